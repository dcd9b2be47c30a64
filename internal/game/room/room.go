package room

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/palemoky/scatters/internal/game/session"
	"github.com/palemoky/scatters/internal/protocol"
	"github.com/palemoky/scatters/internal/storage"
)

// Visibility 房间可见性
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Room 游戏房间：会话引擎加上可见性与邀请名单
type Room struct {
	Name       string
	Visibility Visibility
	Creator    string
	CreatedAt  time.Time
	Engine     *session.Engine

	clock   clockwork.Clock
	mu      sync.RWMutex
	invited map[string]Invitation // 被邀请人 -> 邀请记录
}

// Invitation 一条邀请记录
type Invitation struct {
	Invitee string
	Inviter string
	SentAt  time.Time
}

// Invite 把玩家加进邀请名单，重复邀请覆盖旧记录
func (r *Room) Invite(invitee, inviter string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invited[invitee] = Invitation{Invitee: invitee, Inviter: inviter, SentAt: r.clock.Now()}
}

// PlayerInvited 玩家是否在邀请名单里
func (r *Room) PlayerInvited(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.invited[username]
	return ok
}

// PlayerAllowed 玩家是否能进入房间。公开房间来者不拒，
// 私密房间只放行房主和被邀请的玩家。
func (r *Room) PlayerAllowed(username string) bool {
	if r.Visibility != VisibilityPrivate {
		return true
	}
	if username == r.Creator {
		return true
	}
	return r.PlayerInvited(username)
}

// InvitedPlayers 邀请名单
func (r *Room) InvitedPlayers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.invited))
	for u := range r.invited {
		names = append(names, u)
	}
	return names
}

// Invitations 全部邀请记录
func (r *Room) Invitations() []Invitation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Invitation, 0, len(r.invited))
	for _, inv := range r.invited {
		out = append(out, inv)
	}
	return out
}

// Info 房间展示信息
func (r *Room) Info() protocol.RoomInfo {
	return protocol.RoomInfo{
		Name:       r.Name,
		Visibility: string(r.Visibility),
		Mode:       string(r.Engine.Mode()),
		Players:    r.Engine.Players(),
	}
}

// ToRoomData 转成 Redis 存储结构
func (r *Room) ToRoomData() *storage.RoomData {
	players := r.Engine.Players()
	data := &storage.RoomData{
		Name:       r.Name,
		Visibility: string(r.Visibility),
		Mode:       string(r.Engine.Mode()),
		Invited:    r.InvitedPlayers(),
		Round:      r.Engine.GetRound(),
		CreatedAt:  r.CreatedAt.Unix(),
		Players:    make([]storage.PlayerData, 0, len(players)),
	}
	for _, p := range players {
		data.Players = append(data.Players, storage.PlayerData{
			Username:    p.Username,
			Score:       p.Score,
			RoundScores: p.RoundScores,
			Ordinal:     p.Ordinal,
		})
	}
	return data
}
