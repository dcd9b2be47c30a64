package protocol

// --- 公共 DTO ---

// PlayerInfo 玩家在房间内的展示信息
type PlayerInfo struct {
	Username    string   `json:"username"`
	Score       int      `json:"score"`
	RoundScores []int    `json:"round_scores"`
	Answers     []string `json:"answers"`
	Ordinal     int      `json:"ordinal"`
	IsOnline    bool     `json:"is_online"`
	IsTurn      bool     `json:"is_turn"`
	Away        bool     `json:"away"`
}

// RoomInfo 房间展示信息
type RoomInfo struct {
	Name       string       `json:"name"`
	Visibility string       `json:"visibility"`
	Mode       string       `json:"mode"`
	Players    []PlayerInfo `json:"players"`
}

// AnswerSet 某个玩家已提交的答案
type AnswerSet struct {
	Username string   `json:"username"`
	Answers  []string `json:"answers"`
}

// --- 客户端请求 Payloads ---

// NamePayload 报上用户名
type NamePayload struct {
	Name string `json:"name"`
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	Name       string `json:"name"`
	Mode       string `json:"mode"`       // realtime/async
	Visibility string `json:"visibility"` // public/private
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	Room string `json:"room"`
}

// LeaveRoomPayload 离开房间请求
type LeaveRoomPayload struct {
	Room string `json:"room"`
}

// InvitePlayerPayload 邀请玩家进私密房间
type InvitePlayerPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// RoomActionPayload 只带房间名的游戏操作（开始游戏、掷骰子等）
type RoomActionPayload struct {
	Room string `json:"room"`
}

// SendAnswersPayload 提交本回合答案
type SendAnswersPayload struct {
	Room    string   `json:"room"`
	Answers []string `json:"answers"`
}

// SendTalliesPayload 提交计票。键为被计票玩家，值为该玩家 12 个类目的票值。
type SendTalliesPayload struct {
	Room    string           `json:"room"`
	Tallies map[string][]int `json:"tallies"`
}

// SetRoundPayload 覆盖回合数
type SetRoundPayload struct {
	Room  string `json:"room"`
	Round int    `json:"round"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID string `json:"player_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// RoomCreatedPayload 房间创建成功响应
type RoomCreatedPayload struct {
	Room RoomInfo `json:"room"`
}

// JoinedRoomPayload 加入房间成功响应
type JoinedRoomPayload struct {
	Room    string       `json:"room"`
	Player  PlayerInfo   `json:"player"`
	Players []PlayerInfo `json:"players"`
}

// PlayersUpdatedPayload 房间成员变化广播
type PlayersUpdatedPayload struct {
	Room    string       `json:"room"`
	Players []PlayerInfo `json:"players"`
}

// RoomsListPayload 房间列表结果
type RoomsListPayload struct {
	Rooms []RoomInfo `json:"rooms"`
}

// InvitedPayload 收到房间邀请
type InvitedPayload struct {
	Room string `json:"room"`
	From string `json:"from"`
}

// GameStartedPayload 游戏开始广播
type GameStartedPayload struct {
	Room         string `json:"room"`
	ActivePlayer string `json:"active_player"`
}

// DiceRolledPayload 骰子掷出广播
type DiceRolledPayload struct {
	Room   string `json:"room"`
	Letter string `json:"letter"`
}

// RoundStartedPayload 回合计时开始广播
type RoundStartedPayload struct {
	Room      string `json:"room"`
	Username  string `json:"username,omitempty"` // 异步模式下开始计时的玩家
	StartTime int64  `json:"start_time"`         // 毫秒时间戳
	EndTime   int64  `json:"end_time"`           // 毫秒时间戳
}

// TimerFiredPayload 计时器滴答，到期时 TimeLeft 为 0
type TimerFiredPayload struct {
	Room      string `json:"room"`
	Username  string `json:"username,omitempty"`
	TimeLeft  int64  `json:"time_left"` // 剩余毫秒
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
}

// RoundEndedPayload 回合作答结束广播
type RoundEndedPayload struct {
	Room  string `json:"room"`
	Round int    `json:"round"`
}

// PhaseChangedPayload 阶段变化广播
type PhaseChangedPayload struct {
	Room     string `json:"room"`
	Username string `json:"username,omitempty"` // 异步模式下受影响的玩家
	Phase    string `json:"phase"`
}

// GotResponsesPayload 已提交答案的玩家集合
type GotResponsesPayload struct {
	Room      string      `json:"room"`
	Responses []AnswerSet `json:"responses"`
}

// RoundScoredPayload 本回合计分完成广播
type RoundScoredPayload struct {
	Room    string       `json:"room"`
	Round   int          `json:"round"`
	Players []PlayerInfo `json:"players"`
}

// NextRoundPayload 下一回合已开启广播
type NextRoundPayload struct {
	Room         string `json:"room"`
	Round        int    `json:"round"`
	ActivePlayer string `json:"active_player"`
}

// StatusPayload 状态快照（只读，不改变任何状态）
type StatusPayload struct {
	Room            string       `json:"room"`
	ActivePlayer    string       `json:"active_player"`
	Round           int          `json:"round"`
	Phase           string       `json:"phase"`
	RoundInProgress bool         `json:"round_in_progress"`
	GameInProgress  bool         `json:"game_in_progress"`
	Letter          string       `json:"letter"`
	Players         []PlayerInfo `json:"players"`
	StartTime       int64        `json:"start_time,omitempty"`
	EndTime         int64        `json:"end_time,omitempty"`
}

// PlayerAwayPayload 玩家暂离/回来广播
type PlayerAwayPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
