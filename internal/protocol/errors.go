package protocol

// 错误码
const (
	ErrCodeUnknown        = 1000
	ErrCodeInvalidMsg     = 1001
	ErrCodeRateLimit      = 1002 // 速率限制
	ErrCodeRoomNotFound   = 2001
	ErrCodeRoomExists     = 2002 // 房间名已被占用
	ErrCodeNotInRoom      = 2003
	ErrCodeNotInvited     = 2004 // 私密房间未受邀
	ErrCodePlayerNotFound = 2005
	ErrCodeNotCreator     = 2006 // 只有房主能邀请
	ErrCodeGameNotStart   = 3001
	ErrCodeNotYourTurn    = 3002
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:        "unknown error",
	ErrCodeInvalidMsg:     "invalid message format",
	ErrCodeRateLimit:      "too many requests",
	ErrCodeRoomNotFound:   "room not found",
	ErrCodeRoomExists:     "room name already taken",
	ErrCodeNotInRoom:      "you are not in this room",
	ErrCodeNotInvited:     "this room is private",
	ErrCodePlayerNotFound: "player not found",
	ErrCodeNotCreator:     "only the room creator can invite",
	ErrCodeGameNotStart:   "game has not started",
	ErrCodeNotYourTurn:    "it is not your turn",
}

// ErrorText 错误码对应的文案，未登记的码回退到未知错误
func ErrorText(code int) string {
	if text, ok := ErrorMessages[code]; ok {
		return text
	}
	return ErrorMessages[ErrCodeUnknown]
}
