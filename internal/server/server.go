package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/scatters/internal/config"
	"github.com/palemoky/scatters/internal/game/room"
	"github.com/palemoky/scatters/internal/game/session"
	"github.com/palemoky/scatters/internal/presence"
	"github.com/palemoky/scatters/internal/protocol"
	"github.com/palemoky/scatters/internal/server/handler"
	"github.com/palemoky/scatters/internal/storage"
)

// Server WebSocket 服务器
type Server struct {
	upgrader websocket.Upgrader

	config      *config.Config
	redis       *redis.Client
	redisStore  *storage.RedisStore
	roomManager *room.RoomManager
	presence    *presence.Tracker
	handler     *handler.Handler

	clients   map[string]*Client // 按连接 ID
	byName    map[string]*Client // 按用户名（报名后）
	clientsMu sync.RWMutex

	// 安全组件
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	httpServer *http.Server
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化 Redis 客户端
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	s := &Server{
		config:         cfg,
		redis:          rdb,
		redisStore:     storage.NewRedisStore(rdb),
		clients:        make(map[string]*Client),
		byName:         make(map[string]*Client),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
		// 压缩对大量小消息是负优化，不开启
		EnableCompression: false,
	}

	// 初始化房间管理器
	s.roomManager = room.NewRoomManager(s.redisStore, cfg.Game.RoundDuration())

	// 初始化在线检测器：超窗玩家在其所有房间里翻成离线并广播
	s.presence = presence.New(s.onPresenceChange)

	// 初始化消息处理器
	s.handler = handler.New(handler.Deps{
		Gateway:     s,
		RoomManager: s.roomManager,
		Presence:    s.presence,
	})

	// 创建默认公开房间，随开随玩
	if cfg.Game.DefaultRoom != "" {
		defaultRoom, err := s.roomManager.CreateRoom(
			cfg.Game.DefaultRoom, session.ModeRealtime, room.VisibilityPublic, "")
		if err != nil {
			return nil, fmt.Errorf("创建默认房间失败: %w", err)
		}
		s.handler.AttachRoom(defaultRoom)
	}

	log.Printf("🔒 安全配置: 消息限制=%d/s, 最大连接数=%d",
		cfg.Security.MessageLimit.MaxPerSecond, cfg.Server.MaxConnections)

	return s, nil
}

// Start 启动服务器（阻塞直到服务器关闭）
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.presence.Start()
	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	// 连接数限制检查
	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	default:
		log.Printf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	// 来源验证
	if !s.originChecker.Check(r) {
		log.Printf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID: client.ID,
	}))

	log.Printf("✅ 客户端 %s 已连接 (IP: %s)", client.ID, clientIP)

	go client.ReadPump()
	go client.WritePump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		if name := client.GetName(); name != "" && s.byName[name] == client {
			delete(s.byName, name)
		}
		log.Printf("❌ 玩家 %s (%s) 已断开", client.GetName(), client.ID)
	}
}

// BindName 把用户名绑定到客户端。用户名已被别的连接占用时返回 false。
func (s *Server) BindName(client handler.Client, name string) bool {
	c, ok := client.(*Client)
	if !ok {
		return false
	}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if existing, taken := s.byName[name]; taken && existing != c {
		return false
	}
	s.byName[name] = c
	c.SetName(name)
	return true
}

// ClientByName 按用户名查找客户端，不在线时返回 nil
func (s *Server) ClientByName(name string) handler.Client {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	c, ok := s.byName[name]
	if !ok {
		return nil // 显式返回无类型 nil，避免接口非空陷阱
	}
	return c
}

// BroadcastToRoom 广播消息给房间内的所有客户端
func (s *Server) BroadcastToRoom(roomName string, msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		if client.InRoom(roomName) {
			client.SendMessage(msg)
		}
	}
}

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// onPresenceChange 在线状态翻转：同步进该玩家所在的所有房间并广播成员列表
func (s *Server) onPresenceChange(username string, online bool) {
	// 状态翻转落一份到 Redis，失败只影响重启后的快照，不阻塞广播
	go func() {
		_ = s.redisStore.SavePresence(context.Background(), &storage.PresenceData{
			Username: username,
			IsOnline: online,
			LastSeen: time.Now().UnixMilli(),
		})
	}()

	for _, info := range s.roomManager.FindRoomsForPlayer(username) {
		if r := s.roomManager.FindRoom(info.Name); r != nil {
			r.Engine.SetPlayerOnline(username, online)
		}
		players, err := s.roomManager.ListPlayersInRoom(info.Name)
		if err != nil {
			continue
		}
		s.BroadcastToRoom(info.Name, protocol.MustNewMessage(protocol.MsgPlayersUpdated, protocol.PlayersUpdatedPayload{
			Room:    info.Name,
			Players: players,
		}))
	}

	if !online {
		log.Printf("💤 玩家 %s 超时离线", username)
	}
}

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("📊 [监控] 在线: %d | 房间: %d | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
			s.GetOnlineCount(),
			s.roomManager.RoomCount(),
			runtime.NumGoroutine(),
			len(s.semaphore),
			s.maxConnections,
			float64(m.Alloc)/1024/1024)
	}
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("🔧 服务器开始关闭")

	// 停掉后台组件
	s.presence.Stop()
	s.roomManager.Shutdown()

	// 关闭所有客户端连接
	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	// 关闭 Redis
	_ = s.redis.Close()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	log.Println("服务器已关闭")
	return nil
}
