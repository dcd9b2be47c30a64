// Package timer 实现回合倒计时：按固定间隔回调剩余时长，
// 剩余时长从墙钟终点重新计算，不靠 tick 累加，睡过头也不会漂移。
package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickInterval 滴答间隔
const TickInterval = 250 * time.Millisecond

// TickFunc 每次滴答收到剩余时长，到期最后一次收到 0
type TickFunc func(remaining time.Duration)

// RoundTimer 单个回合的倒计时器。Start 之后每 TickInterval 回调一次,
// 到期自动停止。可重复 Start/Stop 复用。
type RoundTimer struct {
	mu sync.Mutex

	clock  clockwork.Clock
	length time.Duration

	inProg    bool
	startTime time.Time
	endTime   time.Time
	callback  TickFunc
	stopCh    chan struct{}
}

// New 创建计时器
func New(length time.Duration) *RoundTimer {
	return NewWithClock(length, clockwork.NewRealClock())
}

// NewWithClock 用指定时钟创建计时器（测试注入假时钟）
func NewWithClock(length time.Duration, clock clockwork.Clock) *RoundTimer {
	return &RoundTimer{
		clock:  clock,
		length: length,
	}
}

// Start 开始倒计时。已在运行时为空操作。onTick 在独立协程里回调，
// 第一次滴答立即发出（剩余全长），到期回调 0 并自动停止。
func (t *RoundTimer) Start(onTick TickFunc) {
	t.mu.Lock()
	if t.inProg {
		t.mu.Unlock()
		return
	}

	t.inProg = true
	t.startTime = t.clock.Now()
	t.endTime = t.startTime.Add(t.length)
	t.callback = onTick
	t.stopCh = make(chan struct{})
	stop := t.stopCh
	t.mu.Unlock()

	go t.run(stop)
}

func (t *RoundTimer) run(stop chan struct{}) {
	for {
		t.mu.Lock()
		// 被 Stop 过或者已经被新一轮 Start 顶掉的协程直接退出
		if !t.inProg || t.stopCh != stop {
			t.mu.Unlock()
			return
		}
		remaining := t.endTime.Sub(t.clock.Now())
		cb := t.callback
		t.mu.Unlock()

		if remaining <= 0 {
			t.Stop()
			if cb != nil {
				cb(0)
			}
			return
		}

		if cb != nil {
			cb(remaining)
		}

		select {
		case <-t.clock.After(TickInterval):
		case <-stop:
			return
		}
	}
}

// Stop 停止计时并清空计时状态，可重复调用
func (t *RoundTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.inProg {
		return
	}

	t.inProg = false
	t.startTime = time.Time{}
	t.endTime = time.Time{}
	t.callback = nil
	close(t.stopCh)
}

// InProgress 是否在运行
func (t *RoundTimer) InProgress() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inProg
}

// StartTime 本轮开始时间，未运行时为零值
func (t *RoundTimer) StartTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startTime
}

// EndTime 本轮截止时间，未运行时为零值
func (t *RoundTimer) EndTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endTime
}
