package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix     = "room:"
	presenceKeyPrefix = "presence:"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour
)

// RoomData 房间数据（用于 Redis 序列化）
type RoomData struct {
	Name       string       `json:"name"`
	Visibility string       `json:"visibility"`
	Mode       string       `json:"mode"`
	Invited    []string     `json:"invited,omitempty"`
	Round      int          `json:"round"`
	Players    []PlayerData `json:"players"`
	CreatedAt  int64        `json:"created_at"`
}

// PlayerData 玩家计分数据
type PlayerData struct {
	Username    string `json:"username"`
	Score       int    `json:"score"`
	RoundScores []int  `json:"round_scores"`
	Ordinal     int    `json:"ordinal"`
}

// PresenceData 玩家在线数据（用于 Redis 序列化）
type PresenceData struct {
	Username string `json:"username"`
	IsOnline bool   `json:"is_online"`
	LastSeen int64  `json:"last_seen"` // 毫秒时间戳
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// --- 房间存储 ---

// SaveRoom 保存房间到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, name string, data *RoomData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	key := roomKeyPrefix + name
	return rs.client.Set(ctx, key, jsonData, roomExpiration).Err()
}

// LoadRoom 从 Redis 加载房间（仅返回数据，需要外部重建）
func (rs *RedisStore) LoadRoom(ctx context.Context, name string) (*RoomData, error) {
	key := roomKeyPrefix + name
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}

	return &roomData, nil
}

// DeleteRoom 从 Redis 删除房间
func (rs *RedisStore) DeleteRoom(ctx context.Context, name string) error {
	key := roomKeyPrefix + name
	return rs.client.Del(ctx, key).Err()
}

// GetAllRoomNames 获取所有房间名
func (rs *RedisStore) GetAllRoomNames(ctx context.Context) ([]string, error) {
	keys, err := rs.client.Keys(ctx, roomKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = key[len(roomKeyPrefix):]
	}
	return names, nil
}

// --- 在线状态存储 ---

// SavePresence 保存玩家在线状态到 Redis
func (rs *RedisStore) SavePresence(ctx context.Context, presence *PresenceData) error {
	data := map[string]any{
		"username":  presence.Username,
		"is_online": presence.IsOnline,
		"last_seen": presence.LastSeen,
	}

	key := presenceKeyPrefix + presence.Username
	return rs.client.HSet(ctx, key, data).Err()
}

// LoadPresence 从 Redis 加载玩家在线状态
func (rs *RedisStore) LoadPresence(ctx context.Context, username string) (*PresenceData, error) {
	key := presenceKeyPrefix + username
	data, err := rs.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	lastSeen, _ := strconv.ParseInt(data["last_seen"], 10, 64)
	return &PresenceData{
		Username: data["username"],
		IsOnline: data["is_online"] == "1",
		LastSeen: lastSeen,
	}, nil
}

// DeletePresence 删除玩家在线状态
func (rs *RedisStore) DeletePresence(ctx context.Context, username string) error {
	key := presenceKeyPrefix + username
	return rs.client.Del(ctx, key).Err()
}

// --- 辅助方法 ---

// SetRoomExpiration 设置房间过期时间
func (rs *RedisStore) SetRoomExpiration(ctx context.Context, name string, expiration time.Duration) error {
	key := roomKeyPrefix + name
	return rs.client.Expire(ctx, key, expiration).Err()
}
