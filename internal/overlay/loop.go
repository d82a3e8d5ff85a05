package overlay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"screenmark/internal/platform"
)

// DefaultFollowInterval 跟随光标的轮询间隔
const DefaultFollowInterval = time.Second

// Loop 事件循环：托盘、快捷键、窗口事件和定时器都投递到这里串行执行
type Loop struct {
	log      *zap.Logger
	interval time.Duration
	events   chan func(*Machine)

	mu   sync.Mutex
	done chan struct{}
	quit bool
}

// NewLoop interval <= 0 时使用 DefaultFollowInterval
func NewLoop(log *zap.Logger, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultFollowInterval
	}
	return &Loop{
		log:      log,
		interval: interval,
		events:   make(chan func(*Machine), 256),
		done:     make(chan struct{}),
	}
}

// Post 投递一个操作。循环结束后投递的操作被丢弃，返回 false
func (l *Loop) Post(fn func(*Machine)) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.done:
		return false
	}
}

// AfterFunc 延迟后在循环上执行 fn
func (l *Loop) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, func() {
		l.Post(func(*Machine) { fn() })
	})
	return func() { t.Stop() }
}

// Run 启动状态机并处理事件，直到 ctx 取消。退出前调用 Shutdown
func (l *Loop) Run(ctx context.Context, m *Machine) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	defer l.stop()

	m.Start()
	l.log.Debug("事件循环已启动", zap.Duration("follow", l.interval))

	for {
		select {
		case <-ctx.Done():
			m.Shutdown()
			l.log.Debug("事件循环已退出")
			return ctx.Err()
		case fn := <-l.events:
			fn(m)
		case <-ticker.C:
			m.FollowCursor()
		}
	}
}

func (l *Loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.quit {
		l.quit = true
		close(l.done)
	}
}

// Sink 把窗口事件转投到循环上，供适配器在窗口线程调用
func (l *Loop) Sink() platform.EventSink {
	return loopSink{l}
}

type loopSink struct{ l *Loop }

func (s loopSink) PointerDown(p platform.Pointer) {
	s.l.Post(func(m *Machine) { m.PointerDown(p) })
}

func (s loopSink) PointerMove(p platform.Pointer) {
	s.l.Post(func(m *Machine) { m.PointerMove(p) })
}

func (s loopSink) PointerUp(p platform.Pointer) {
	s.l.Post(func(m *Machine) { m.PointerUp(p) })
}

func (s loopSink) KeyDown(k platform.Key) {
	s.l.Post(func(m *Machine) { m.KeyDown(k) })
}

func (s loopSink) CatchClicked() {
	s.l.Post(func(m *Machine) { m.CatchClicked() })
}

func (s loopSink) DisplayChanged() {
	s.l.Post(func(m *Machine) { m.DisplaysChanged() })
}
