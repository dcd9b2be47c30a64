package handler

import (
	"github.com/palemoky/scatters/internal/protocol"
)

// handleStartGame 开始游戏
func (h *Handler) handleStartGame(client Client, msg *protocol.Message) {
	if _, ok := requireName(client); !ok {
		return
	}
	payload, ok := parsePayload[protocol.RoomActionPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	r.Engine.StartGame()

	h.gateway.BroadcastToRoom(payload.Room, protocol.MustNewMessage(protocol.MsgGameStarted, protocol.GameStartedPayload{
		Room:         payload.Room,
		ActivePlayer: r.Engine.ActivePlayer(),
	}))
}

// handleRollDice 掷字母骰子。非当前回合玩家的请求被引擎静默吞掉，不广播。
func (h *Handler) handleRollDice(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.RoomActionPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	letter := r.Engine.RollDice(name)
	if letter == "" {
		return
	}

	h.gateway.BroadcastToRoom(payload.Room, protocol.MustNewMessage(protocol.MsgDiceRolled, protocol.DiceRolledPayload{
		Room:   payload.Room,
		Letter: letter,
	}))
}

// handleRerollDice 重掷
func (h *Handler) handleRerollDice(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.RoomActionPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	letter := r.Engine.RerollDice(name)
	if letter == "" {
		return
	}

	h.gateway.BroadcastToRoom(payload.Room, protocol.MustNewMessage(protocol.MsgDiceRolled, protocol.DiceRolledPayload{
		Room:   payload.Room,
		Letter: letter,
	}))
}

// handleResetDiceRoll 重置骰子
func (h *Handler) handleResetDiceRoll(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.RoomActionPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	r.Engine.ResetDiceRoll(name)

	h.gateway.BroadcastToRoom(payload.Room, protocol.MustNewMessage(protocol.MsgDiceRollReset, protocol.DiceRolledPayload{
		Room: payload.Room,
	}))
}

// handleStartRound 开始回合计时。滴答和到期都广播给整个房间，
// 异步模式的滴答带上计时玩家的用户名。
func (h *Handler) handleStartRound(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.RoomActionPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	roomName := payload.Room
	engine := r.Engine

	started := engine.StartTimer(func(username string, remaining int64) {
		start, end := engine.TimerWindow(username)
		h.gateway.BroadcastToRoom(roomName, protocol.MustNewMessage(protocol.MsgTimerFired, protocol.TimerFiredPayload{
			Room:      roomName,
			Username:  username,
			TimeLeft:  remaining,
			StartTime: start,
			EndTime:   end,
		}))

		if remaining <= 0 {
			h.gateway.BroadcastToRoom(roomName, protocol.MustNewMessage(protocol.MsgRoundEnded, protocol.RoundEndedPayload{
				Room:  roomName,
				Round: engine.GetRound(),
			}))
		}
	}, name)

	// 计时器已在跑说明回合早就宣布过了，不重复广播
	if !started {
		return
	}

	start, end := engine.TimerWindow(name)
	h.gateway.BroadcastToRoom(roomName, protocol.MustNewMessage(protocol.MsgRoundStarted, protocol.RoundStartedPayload{
		Room:      roomName,
		Username:  name,
		StartTime: start,
		EndTime:   end,
	}))
}

// handleSendAnswers 提交本回合答案，把已交卷集合广播给房间
func (h *Handler) handleSendAnswers(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.SendAnswersPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	responses := r.Engine.SetPlayerAnswers(name, payload.Answers)

	h.gateway.BroadcastToRoom(payload.Room, protocol.MustNewMessage(protocol.MsgGotResponses, protocol.GotResponsesPayload{
		Room:      payload.Room,
		Responses: responses,
	}))
}

// handleSendTallies 提交计票。最后一票触发计分，
// 计分结果在引擎锁外广播并落盘。
func (h *Handler) handleSendTallies(client Client, msg *protocol.Message) {
	if _, ok := requireName(client); !ok {
		return
	}
	payload, ok := parsePayload[protocol.SendTalliesPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	roomName := payload.Room
	r.Engine.TalliesToScores(payload.Tallies, func() {
		go h.broadcastRoundScored(roomName)
	})
}

// broadcastRoundScored 广播本回合计分结果并写 Redis
func (h *Handler) broadcastRoundScored(roomName string) {
	r := h.roomManager.FindRoom(roomName)
	if r == nil {
		return
	}

	h.gateway.BroadcastToRoom(roomName, protocol.MustNewMessage(protocol.MsgRoundScored, protocol.RoundScoredPayload{
		Room:    roomName,
		Round:   r.Engine.GetRound(),
		Players: r.Engine.Players(),
	}))

	h.roomManager.SaveRoomState(roomName)
}

// handleNextRound 进入下一回合
func (h *Handler) handleNextRound(client Client, msg *protocol.Message) {
	if _, ok := requireName(client); !ok {
		return
	}
	payload, ok := parsePayload[protocol.RoomActionPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	r.Engine.NextRound()
	h.roomManager.SaveRoomState(payload.Room)

	h.gateway.BroadcastToRoom(payload.Room, protocol.MustNewMessage(protocol.MsgNextRoundPush, protocol.NextRoundPayload{
		Room:         payload.Room,
		Round:        r.Engine.GetRound(),
		ActivePlayer: r.Engine.ActivePlayer(),
	}))
}

// handleSetRound 覆盖回合数（作答中的写入会被引擎忽略）
func (h *Handler) handleSetRound(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.SetRoundPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	r.Engine.SetRound(payload.Round, name)
}

// handleGetStatus 状态快照
func (h *Handler) handleGetStatus(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.RoomActionPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgStatus, r.Engine.Snapshot(name)))
}

// handleSetAway 暂离房间
func (h *Handler) handleSetAway(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.RoomActionPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	r.Engine.SetPlayerAway(name)

	h.gateway.BroadcastToRoom(payload.Room, protocol.MustNewMessage(protocol.MsgPlayerAway, protocol.PlayerAwayPayload{
		Room:     payload.Room,
		Username: name,
	}))
}

// handleSetBack 回到房间
func (h *Handler) handleSetBack(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.RoomActionPayload](client, msg)
	if !ok {
		return
	}
	r, ok := h.roomFor(client, payload.Room)
	if !ok {
		return
	}

	r.Engine.SetPlayerBack(name)

	h.gateway.BroadcastToRoom(payload.Room, protocol.MustNewMessage(protocol.MsgPlayerBack, protocol.PlayerAwayPayload{
		Room:     payload.Room,
		Username: name,
	}))
}
