package display

import (
	"errors"
	"image"
	"sync"

	hook "github.com/robotn/gohook"
	"go.uber.org/zap"
)

// ErrCursorUnknown 尚未收到任何指针事件
var ErrCursorUnknown = errors.New("display: cursor position not yet known")

// HookCursor 通过全局输入钩子跟踪指针位置。
// 钩子只读，不拦截任何事件。
type HookCursor struct {
	log *zap.Logger

	mu    sync.RWMutex
	pos   image.Point
	known bool

	done chan struct{}
}

// NewHookCursor 创建指针跟踪器，需调用 Start 后才会更新
func NewHookCursor(log *zap.Logger) *HookCursor {
	return &HookCursor{log: log}
}

// Start 启动钩子事件循环
func (c *HookCursor) Start() {
	if c.done != nil {
		return
	}
	c.done = make(chan struct{})

	events := hook.Start()
	if events == nil {
		c.log.Warn("全局输入钩子启动失败，光标跟随将使用默认位置")
		close(c.done)
		return
	}

	go func() {
		defer close(c.done)
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("光标钩子异常退出", zap.Any("panic", r))
			}
		}()
		for ev := range events {
			switch ev.Kind {
			case hook.MouseMove, hook.MouseDrag, hook.MouseDown, hook.MouseUp:
				c.Observe(image.Pt(int(ev.X), int(ev.Y)))
			}
		}
	}()
}

// Stop 停止钩子
func (c *HookCursor) Stop() {
	if c.done == nil {
		return
	}
	hook.End()
	<-c.done
	c.done = nil
}

// Observe 记录一个指针位置（钩子事件或平台适配器都会调用）
func (c *HookCursor) Observe(p image.Point) {
	c.mu.Lock()
	c.pos = p
	c.known = true
	c.mu.Unlock()
}

// Position 最近一次观察到的指针位置
func (c *HookCursor) Position() (image.Point, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.known {
		return image.Point{}, ErrCursorUnknown
	}
	return c.pos, nil
}

// Cursors 按顺序询问多个来源，返回第一个已知的位置
type Cursors []Cursor

// Position 全部来源都失败时返回最后一个错误
func (cs Cursors) Position() (image.Point, error) {
	err := ErrCursorUnknown
	for _, c := range cs {
		if c == nil {
			continue
		}
		p, cerr := c.Position()
		if cerr == nil {
			return p, nil
		}
		err = cerr
	}
	return image.Point{}, err
}
