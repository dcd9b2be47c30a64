package handler

import (
	"errors"
	"log"

	"github.com/palemoky/scatters/internal/apperrors"
	"github.com/palemoky/scatters/internal/game/room"
	"github.com/palemoky/scatters/internal/game/session"
	"github.com/palemoky/scatters/internal/presence"
	"github.com/palemoky/scatters/internal/protocol"
)

// Client 处理器眼里的客户端连接
type Client interface {
	GetID() string
	GetName() string
	GetRooms() []string
	AddRoom(name string)
	RemoveRoom(name string)
	InRoom(name string) bool
	SendMessage(msg *protocol.Message)
}

// Gateway 处理器回头找服务器做的事
type Gateway interface {
	BindName(client Client, name string) bool
	ClientByName(name string) Client
	BroadcastToRoom(roomName string, msg *protocol.Message)
}

// Deps 处理器依赖
type Deps struct {
	Gateway     Gateway
	RoomManager *room.RoomManager
	Presence    *presence.Tracker
}

// Handler 消息处理器
type Handler struct {
	gateway     Gateway
	roomManager *room.RoomManager
	presence    *presence.Tracker
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client Client, msg *protocol.Message)

// New 创建处理器
func New(deps Deps) *Handler {
	h := &Handler{
		gateway:     deps.Gateway,
		roomManager: deps.RoomManager,
		presence:    deps.Presence,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgName: h.handleName,
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgCreateRoom:   h.handleCreateRoom,
		protocol.MsgJoinRoom:     h.handleJoinRoom,
		protocol.MsgLeaveRoom:    h.handleLeaveRoom,
		protocol.MsgListRooms:    func(c Client, _ *protocol.Message) { h.handleListRooms(c) },
		protocol.MsgMyRooms:      func(c Client, _ *protocol.Message) { h.handleMyRooms(c) },
		protocol.MsgInvitePlayer: h.handleInvitePlayer,

		// 游戏操作
		protocol.MsgStartGame:     h.handleStartGame,
		protocol.MsgRollDice:      h.handleRollDice,
		protocol.MsgRerollDice:    h.handleRerollDice,
		protocol.MsgResetDiceRoll: h.handleResetDiceRoll,
		protocol.MsgStartRound:    h.handleStartRound,
		protocol.MsgSendAnswers:   h.handleSendAnswers,
		protocol.MsgSendTallies:   h.handleSendTallies,
		protocol.MsgNextRound:     h.handleNextRound,
		protocol.MsgSetRound:      h.handleSetRound,
		protocol.MsgGetStatus:     h.handleGetStatus,
		protocol.MsgSetAway:       h.handleSetAway,
		protocol.MsgSetBack:       h.handleSetBack,
	}
}

// Handle 处理消息。已报名玩家的任何消息都算一次活跃。
func (h *Handler) Handle(client Client, msg *protocol.Message) {
	if name := client.GetName(); name != "" {
		h.presence.Touch(name)
	}

	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Printf("⚠️  未知消息类型: '%s' (来自玩家: %s, ID: %s)", msg.Type, client.GetName(), client.GetID())
	client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// AttachRoom 给房间接上阶段广播。监听器只读事件本身，不回调引擎。
func (h *Handler) AttachRoom(r *room.Room) {
	roomName := r.Name
	r.Engine.RegisterPhaseListener("broadcast", func(ev session.PhaseEvent) {
		h.gateway.BroadcastToRoom(roomName, protocol.MustNewMessage(protocol.MsgPhaseChanged, protocol.PhaseChangedPayload{
			Room:     ev.Room,
			Username: ev.Username,
			Phase:    string(ev.Phase),
		}))
	})
}

// sendError 把错误回给客户端。注册表错误带码带文案，其他错误一律按未知处理。
func sendError(client Client, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(protocol.NewErrorMessageWithText(gameErr.Code, gameErr.Message))
		return
	}
	client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
}

// parsePayload 解析 Payload，格式错误时直接回错误消息
func parsePayload[T any](client Client, msg *protocol.Message) (*T, bool) {
	payload, err := protocol.ParsePayload[T](msg)
	if err != nil {
		log.Printf("Payload 解析错误: %v (类型: %s)", err, msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return nil, false
	}
	return payload, true
}

// requireName 要求客户端已报名
func requireName(client Client) (string, bool) {
	name := client.GetName()
	if name == "" {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeInvalidMsg, "set your name first"))
		return "", false
	}
	return name, true
}

// roomFor 查找客户端已加入的房间
func (h *Handler) roomFor(client Client, roomName string) (*room.Room, bool) {
	r := h.roomManager.FindRoom(roomName)
	if r == nil {
		sendError(client, apperrors.ErrRoomNotFound)
		return nil, false
	}
	if !client.InRoom(roomName) {
		sendError(client, apperrors.ErrNotInRoom)
		return nil, false
	}
	return r, true
}
