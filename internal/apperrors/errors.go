package apperrors

import (
	"github.com/palemoky/scatters/internal/protocol"
)

// GameError 游戏错误（注册表和会话共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound   = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "room not found"}
	ErrRoomExists     = &GameError{Code: protocol.ErrCodeRoomExists, Message: "room name already taken"}
	ErrNotInRoom      = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "you are not in this room"}
	ErrNotInvited     = &GameError{Code: protocol.ErrCodeNotInvited, Message: "this room is private"}
	ErrNotCreator     = &GameError{Code: protocol.ErrCodeNotCreator, Message: "only the room creator can invite"}
	ErrPlayerNotFound = &GameError{Code: protocol.ErrCodePlayerNotFound, Message: "player not found"}
	ErrGameNotStart   = &GameError{Code: protocol.ErrCodeGameNotStart, Message: "game has not started"}
)
