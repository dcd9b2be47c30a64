//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/scatters/internal/protocol"
)

// MockClient 实现 handler.Client 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetRooms() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockClient) AddRoom(name string) {
	m.Called(name)
}

func (m *MockClient) RemoveRoom(name string) {
	m.Called(name)
}

func (m *MockClient) InRoom(name string) bool {
	args := m.Called(name)
	return args.Bool(0)
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

// SimpleClient 简单的 mock 客户端，不使用 testify（用于不需要断言调用次数的测试）
type SimpleClient struct {
	ID   string
	Name string

	mu       sync.Mutex
	rooms    map[string]bool
	Messages []*protocol.Message
}

// NewSimpleClient 创建简单客户端
func NewSimpleClient(id, name string) *SimpleClient {
	return &SimpleClient{
		ID:    id,
		Name:  name,
		rooms: make(map[string]bool),
	}
}

func (c *SimpleClient) GetID() string   { return c.ID }
func (c *SimpleClient) GetName() string { return c.Name }

func (c *SimpleClient) GetRooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.rooms))
	for name := range c.rooms {
		names = append(names, name)
	}
	return names
}

func (c *SimpleClient) AddRoom(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[name] = true
}

func (c *SimpleClient) RemoveRoom(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, name)
}

func (c *SimpleClient) InRoom(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[name]
}

func (c *SimpleClient) SendMessage(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Messages = append(c.Messages, msg)
}

// Received 收到的所有消息（拷贝）
func (c *SimpleClient) Received() []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*protocol.Message(nil), c.Messages...)
}

// LastOfType 收到的最后一条指定类型的消息，没有时返回 nil
func (c *SimpleClient) LastOfType(msgType protocol.MessageType) *protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Type == msgType {
			return c.Messages[i]
		}
	}
	return nil
}

// CountOfType 收到的指定类型消息数量
func (c *SimpleClient) CountOfType(msgType protocol.MessageType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, msg := range c.Messages {
		if msg.Type == msgType {
			n++
		}
	}
	return n
}
