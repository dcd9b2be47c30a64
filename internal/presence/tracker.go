// Package presence 跟踪玩家在线状态：玩家触发的每个外部操作都 Touch 一次，
// 后台按固定间隔扫描，超过存活窗口没动静的玩家判定离线。
package presence

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// DefaultSweepInterval 扫描间隔
	DefaultSweepInterval = 2 * time.Second
	// DefaultWindow 存活窗口，超过这个时长没有 Touch 判定离线
	DefaultWindow = 4 * time.Second
)

// ChangeFunc 在线状态翻转回调。回调在扫描协程里执行，不要做阻塞操作。
type ChangeFunc func(username string, online bool)

// Tracker 在线状态跟踪器
type Tracker struct {
	mu sync.Mutex

	clock    clockwork.Clock
	interval time.Duration
	window   time.Duration
	onChange ChangeFunc

	lastSeen map[string]time.Time
	online   map[string]bool
	stopCh   chan struct{}
}

// New 创建跟踪器
func New(onChange ChangeFunc) *Tracker {
	return NewWithClock(clockwork.NewRealClock(), DefaultSweepInterval, DefaultWindow, onChange)
}

// NewWithClock 用指定时钟创建跟踪器（测试注入假时钟）
func NewWithClock(clock clockwork.Clock, interval, window time.Duration, onChange ChangeFunc) *Tracker {
	return &Tracker{
		clock:    clock,
		interval: interval,
		window:   window,
		onChange: onChange,
		lastSeen: make(map[string]time.Time),
		online:   make(map[string]bool),
	}
}

// Start 启动后台扫描。已启动时为空操作。
func (tr *Tracker) Start() {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.stopCh != nil {
		return
	}
	tr.stopCh = make(chan struct{})
	go tr.sweepLoop(tr.stopCh)
}

// Stop 停止后台扫描，可重复调用
func (tr *Tracker) Stop() {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.stopCh == nil {
		return
	}
	close(tr.stopCh)
	tr.stopCh = nil
}

func (tr *Tracker) sweepLoop(stop chan struct{}) {
	for {
		select {
		case <-tr.clock.After(tr.interval):
			tr.Sweep()
		case <-stop:
			return
		}
	}
}

// Touch 标记玩家刚刚活跃过。离线玩家立刻翻回在线，不等下一次扫描。
func (tr *Tracker) Touch(username string) {
	tr.mu.Lock()
	tr.lastSeen[username] = tr.clock.Now()
	wasOnline := tr.online[username]
	tr.online[username] = true
	onChange := tr.onChange
	tr.mu.Unlock()

	if !wasOnline && onChange != nil {
		onChange(username, true)
	}
}

// Forget 不再跟踪玩家（下线清理）
func (tr *Tracker) Forget(username string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	delete(tr.lastSeen, username)
	delete(tr.online, username)
}

// IsOnline 玩家当前是否在线
func (tr *Tracker) IsOnline(username string) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.online[username]
}

// Sweep 执行一次扫描，把超窗的玩家判定为离线。
// 后台循环定时调用，测试也可以直接调用。
func (tr *Tracker) Sweep() {
	now := tr.clock.Now()

	tr.mu.Lock()
	var wentOffline []string
	for username, seen := range tr.lastSeen {
		if tr.online[username] && now.Sub(seen) > tr.window {
			tr.online[username] = false
			wentOffline = append(wentOffline, username)
		}
	}
	onChange := tr.onChange
	tr.mu.Unlock()

	if onChange == nil {
		return
	}
	for _, username := range wentOffline {
		onChange(username, false)
	}
}
