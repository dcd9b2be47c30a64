package room

import (
	"context"
	"log"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/palemoky/scatters/internal/apperrors"
	"github.com/palemoky/scatters/internal/game/session"
	"github.com/palemoky/scatters/internal/protocol"
	"github.com/palemoky/scatters/internal/storage"
)

// RoomManager 房间注册表。房间的查找和增删都经过这里，
// 房间内部的状态由各自引擎的锁保护，不同房间互不阻塞。
type RoomManager struct {
	redisStore *storage.RedisStore // 可以为空（不持久化）
	roundLen   time.Duration
	clock      clockwork.Clock
	rng        *rand.Rand

	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewRoomManager 创建房间管理器
func NewRoomManager(rs *storage.RedisStore, roundLen time.Duration) *RoomManager {
	return &RoomManager{
		redisStore: rs,
		roundLen:   roundLen,
		clock:      clockwork.NewRealClock(),
		rooms:      make(map[string]*Room),
	}
}

// NewRoomManagerWithClock 用指定时钟和随机源创建房间管理器（测试用）
func NewRoomManagerWithClock(rs *storage.RedisStore, roundLen time.Duration, clock clockwork.Clock, rng *rand.Rand) *RoomManager {
	return &RoomManager{
		redisStore: rs,
		roundLen:   roundLen,
		clock:      clock,
		rng:        rng,
		rooms:      make(map[string]*Room),
	}
}

// CreateRoom 创建房间。房间名冲突检查不区分大小写。
func (rm *RoomManager) CreateRoom(name string, mode session.Mode, visibility Visibility, creator string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for existing := range rm.rooms {
		if strings.EqualFold(existing, name) {
			return nil, apperrors.ErrRoomExists
		}
	}

	if mode != session.ModeAsync {
		mode = session.ModeRealtime
	}
	if visibility != VisibilityPrivate {
		visibility = VisibilityPublic
	}

	room := &Room{
		Name:       name,
		Visibility: visibility,
		Creator:    creator,
		CreatedAt:  rm.clock.Now(),
		Engine: session.New(session.Config{
			Room:     name,
			Mode:     mode,
			RoundLen: rm.roundLen,
			Clock:    rm.clock,
			Rand:     rm.rng,
		}),
		clock:   rm.clock,
		invited: make(map[string]Invitation),
	}
	rm.rooms[name] = room

	rm.saveRoom(room)

	log.Printf("🏠 房间 %s 已创建（%s/%s），房主 %s", name, mode, visibility, creator)

	return room, nil
}

// FindRoom 查找房间，不存在时返回 nil
func (rm *RoomManager) FindRoom(name string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[name]
}

// DeleteRoom 销毁房间：停掉引擎计时器并从注册表和 Redis 移除
func (rm *RoomManager) DeleteRoom(name string) {
	rm.mu.Lock()
	room, exists := rm.rooms[name]
	if exists {
		delete(rm.rooms, name)
	}
	rm.mu.Unlock()

	if !exists {
		return
	}

	room.Engine.Shutdown()
	if rm.redisStore != nil {
		go func() { _ = rm.redisStore.DeleteRoom(context.Background(), name) }()
	}

	log.Printf("🏠 房间 %s 已解散", name)
}

// AddPlayerToRoom 把玩家加进房间。私密房间只放行房主和被邀请的玩家。
func (rm *RoomManager) AddPlayerToRoom(name, username string) (protocol.PlayerInfo, error) {
	room := rm.FindRoom(name)
	if room == nil {
		return protocol.PlayerInfo{}, apperrors.ErrRoomNotFound
	}

	if !room.PlayerAllowed(username) {
		return protocol.PlayerInfo{}, apperrors.ErrNotInvited
	}

	info := room.Engine.AddPlayer(username)
	rm.saveRoom(room)

	log.Printf("👤 玩家 %s 加入房间 %s", username, name)

	return info, nil
}

// RemovePlayerFromRoom 把玩家移出房间。最后一个玩家离开时
// 引擎自行回到初始状态，房间保留，等待下一批玩家。
func (rm *RoomManager) RemovePlayerFromRoom(name, username string) error {
	room := rm.FindRoom(name)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}

	room.Engine.RemovePlayer(username, true)
	rm.saveRoom(room)

	log.Printf("👋 玩家 %s 离开房间 %s", username, name)

	return nil
}

// InvitePlayer 邀请玩家进私密房间，只有房主能发出邀请
func (rm *RoomManager) InvitePlayer(name, invitee, inviter string) error {
	room := rm.FindRoom(name)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}

	if inviter != room.Creator {
		return apperrors.ErrNotCreator
	}

	room.Invite(invitee, inviter)
	rm.saveRoom(room)

	log.Printf("✉️ 玩家 %s 被 %s 邀请进房间 %s", invitee, inviter, name)

	return nil
}

// ListAllRooms 房间列表。includePrivate 为 false 时只返回公开房间。
func (rm *RoomManager) ListAllRooms(includePrivate bool) []protocol.RoomInfo {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	var infos []protocol.RoomInfo
	for _, room := range rm.rooms {
		if !includePrivate && room.Visibility == VisibilityPrivate {
			continue
		}
		infos = append(infos, room.Info())
	}

	sortRoomInfos(infos)
	return infos
}

// ListRoomsExcluding 公开房间列表，排除指定的房间名
func (rm *RoomManager) ListRoomsExcluding(exclude []string) []protocol.RoomInfo {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	var infos []protocol.RoomInfo
	for _, room := range rm.rooms {
		if room.Visibility == VisibilityPrivate {
			continue
		}
		if slices.Contains(exclude, room.Name) {
			continue
		}
		infos = append(infos, room.Info())
	}

	sortRoomInfos(infos)
	return infos
}

// FindRoomsForPlayer 玩家所在的房间列表（包括私密房间）
func (rm *RoomManager) FindRoomsForPlayer(username string) []protocol.RoomInfo {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	var infos []protocol.RoomInfo
	for _, room := range rm.rooms {
		if _, ok := room.Engine.FindPlayer(username); ok {
			infos = append(infos, room.Info())
		}
	}

	sortRoomInfos(infos)
	return infos
}

// ListPlayersInRoom 房间成员列表
func (rm *RoomManager) ListPlayersInRoom(name string) ([]protocol.PlayerInfo, error) {
	room := rm.FindRoom(name)
	if room == nil {
		return nil, apperrors.ErrRoomNotFound
	}
	return room.Engine.Players(), nil
}

// RoomCount 房间数量
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// SaveRoomState 把房间当前状态写进 Redis（计分等变更后调用）
func (rm *RoomManager) SaveRoomState(name string) {
	room := rm.FindRoom(name)
	if room == nil {
		return
	}
	rm.saveRoom(room)
}

// Shutdown 停掉所有房间的计时器
func (rm *RoomManager) Shutdown() {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for _, room := range rm.rooms {
		room.Engine.Shutdown()
	}
}

// saveRoom 后台写 Redis，失败不阻塞游戏
func (rm *RoomManager) saveRoom(room *Room) {
	if rm.redisStore == nil {
		return
	}
	data := room.ToRoomData()
	go func() { _ = rm.redisStore.SaveRoom(context.Background(), room.Name, data) }()
}

// sortRoomInfos 列表按房间名排序，保证输出稳定
func sortRoomInfos(infos []protocol.RoomInfo) {
	slices.SortFunc(infos, func(a, b protocol.RoomInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
}
