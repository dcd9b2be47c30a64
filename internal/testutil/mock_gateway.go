//go:build !production

package testutil

import (
	"sync"

	"github.com/palemoky/scatters/internal/protocol"
	"github.com/palemoky/scatters/internal/server/handler"
)

// SimpleGateway 实现 handler.Gateway，消息直接投递给注册的 SimpleClient
type SimpleGateway struct {
	mu      sync.Mutex
	clients map[string]*SimpleClient // 按用户名
}

// NewSimpleGateway 创建网关
func NewSimpleGateway() *SimpleGateway {
	return &SimpleGateway{
		clients: make(map[string]*SimpleClient),
	}
}

// Register 注册客户端（按用户名）
func (g *SimpleGateway) Register(c *SimpleClient) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[c.Name] = c
}

func (g *SimpleGateway) BindName(client handler.Client, name string) bool {
	c, ok := client.(*SimpleClient)
	if !ok {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, taken := g.clients[name]; taken && existing != c {
		return false
	}
	c.Name = name
	g.clients[name] = c
	return true
}

func (g *SimpleGateway) ClientByName(name string) handler.Client {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.clients[name]
	if !ok {
		return nil
	}
	return c
}

func (g *SimpleGateway) BroadcastToRoom(roomName string, msg *protocol.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.clients {
		if c.InRoom(roomName) {
			c.SendMessage(msg)
		}
	}
}
