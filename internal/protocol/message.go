package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgName MessageType = "name" // 报上用户名
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom   MessageType = "create-room"   // 创建房间
	MsgJoinRoom     MessageType = "join-room"     // 加入房间
	MsgLeaveRoom    MessageType = "leave-room"    // 离开房间
	MsgListRooms    MessageType = "list-rooms"    // 房间列表
	MsgMyRooms      MessageType = "my-rooms"      // 自己所在的房间
	MsgInvitePlayer MessageType = "invite-player" // 邀请玩家进私密房间

	// 游戏操作
	MsgStartGame     MessageType = "start-game"      // 开始游戏
	MsgRollDice      MessageType = "roll-dice"       // 掷字母骰子
	MsgRerollDice    MessageType = "reroll-dice"     // 重掷
	MsgResetDiceRoll MessageType = "reset-dice-roll" // 重置骰子
	MsgStartRound    MessageType = "start-round"     // 开始回合计时
	MsgSendAnswers   MessageType = "send-answers"    // 提交答案
	MsgSendTallies   MessageType = "send-tallies"    // 提交计票
	MsgNextRound     MessageType = "next-round"      // 进入下一回合
	MsgSetRound      MessageType = "set-round"       // 覆盖回合数
	MsgGetStatus     MessageType = "get-status"      // 状态快照
	MsgSetAway       MessageType = "set-away"        // 暂离房间
	MsgSetBack       MessageType = "set-back"        // 回到房间
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 房间相关
	MsgRoomCreated    MessageType = "room-created"    // 房间创建成功
	MsgJoinedRoom     MessageType = "joined-room"     // 加入房间成功
	MsgPlayersUpdated MessageType = "players-updated" // 房间成员变化
	MsgRoomsList      MessageType = "rooms-list"      // 房间列表结果
	MsgInvited        MessageType = "invited"         // 收到房间邀请
	MsgPlayerAway     MessageType = "player-away"     // 玩家暂离
	MsgPlayerBack     MessageType = "player-back"     // 玩家回来

	// 游戏流程
	MsgGameStarted   MessageType = "game-started"    // 游戏开始
	MsgDiceRolled    MessageType = "dice-rolled"     // 骰子已掷出
	MsgDiceRollReset MessageType = "dice-roll-reset" // 骰子已重置
	MsgRoundStarted  MessageType = "round-started"   // 回合计时开始
	MsgTimerFired    MessageType = "timer-fired"     // 计时器滴答
	MsgRoundEnded    MessageType = "round-ended"     // 回合作答结束
	MsgPhaseChanged  MessageType = "phase-changed"   // 阶段变化
	MsgGotResponses  MessageType = "got-responses"   // 已收到的答案集合
	MsgRoundScored   MessageType = "round-scored"    // 本回合已计分
	MsgNextRoundPush MessageType = "next-round-push" // 下一回合已开启
	MsgStatus        MessageType = "status"          // 状态快照结果

	// 错误
	MsgError MessageType = "error" // 错误消息
)
