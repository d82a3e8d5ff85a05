// Package hotkey 全局快捷键：切换绘制的组合键，以及绘制期间临时拦截的翻页笔按键。
package hotkey

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"

	"screenmark/internal/platform"
)

// ErrUnknownKey 主键无法识别
var ErrUnknownKey = errors.New("hotkey: unknown key")

// ErrNotRegistered 还没有注册过组合键
var ErrNotRegistered = errors.New("hotkey: no chord registered")

// Binding 一个系统级热键注册
type Binding interface {
	Register() error
	Unregister() error
	Keydown() <-chan hotkey.Event
}

// Factory 创建绑定，测试中替换为假实现
type Factory func(mods []hotkey.Modifier, key hotkey.Key) Binding

func systemFactory(mods []hotkey.Modifier, key hotkey.Key) Binding {
	return hotkey.New(mods, key)
}

// Manager 切换绘制的全局组合键
type Manager struct {
	log     *zap.Logger
	factory Factory

	mu       sync.Mutex
	binding  Binding
	stop     chan struct{}
	combo    string
	callback func()
}

// NewManager 创建热键管理器
func NewManager(log *zap.Logger) *Manager {
	return newManager(log, systemFactory)
}

func newManager(log *zap.Logger, factory Factory) *Manager {
	return &Manager{log: log, factory: factory}
}

// parseModifiers 解析修饰键
func parseModifiers(mods []string) ([]hotkey.Modifier, error) {
	var result []hotkey.Modifier
	for _, mod := range mods {
		switch strings.ToLower(strings.TrimSpace(mod)) {
		case "ctrl", "control":
			result = append(result, hotkey.ModCtrl)
		case "alt", "option":
			result = append(result, modAlt)
		case "shift":
			result = append(result, hotkey.ModShift)
		case "win", "cmd", "command", "super":
			result = append(result, modSuper)
		default:
			return nil, fmt.Errorf("未知的修饰键: %s", mod)
		}
	}
	return result, nil
}

// parseKey 解析主键
func parseKey(key string) (hotkey.Key, error) {
	key = strings.ToUpper(strings.TrimSpace(key))

	if len(key) == 1 {
		switch c := key[0]; {
		case c >= 'A' && c <= 'Z':
			return letterKeys[c-'A'], nil
		case c >= '0' && c <= '9':
			return digitKeys[c-'0'], nil
		}
	}

	switch key {
	case "F1":
		return hotkey.KeyF1, nil
	case "F2":
		return hotkey.KeyF2, nil
	case "F3":
		return hotkey.KeyF3, nil
	case "F4":
		return hotkey.KeyF4, nil
	case "F5":
		return hotkey.KeyF5, nil
	case "F6":
		return hotkey.KeyF6, nil
	case "F7":
		return hotkey.KeyF7, nil
	case "F8":
		return hotkey.KeyF8, nil
	case "F9":
		return hotkey.KeyF9, nil
	case "F10":
		return hotkey.KeyF10, nil
	case "F11":
		return hotkey.KeyF11, nil
	case "F12":
		return hotkey.KeyF12, nil
	case "SPACE":
		return hotkey.KeySpace, nil
	case "RETURN", "ENTER":
		return hotkey.KeyReturn, nil
	case "ESCAPE", "ESC":
		return hotkey.KeyEscape, nil
	case "TAB":
		return hotkey.KeyTab, nil
	case "DELETE", "DEL":
		return hotkey.KeyDelete, nil
	case "UP":
		return hotkey.KeyUp, nil
	case "DOWN":
		return hotkey.KeyDown, nil
	case "LEFT":
		return hotkey.KeyLeft, nil
	case "RIGHT":
		return hotkey.KeyRight, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

var letterKeys = [26]hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF,
	hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL,
	hotkey.KeyM, hotkey.KeyN, hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR,
	hotkey.KeyS, hotkey.KeyT, hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX,
	hotkey.KeyY, hotkey.KeyZ,
}

var digitKeys = [10]hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}

// interceptKey 虚拟键码转换为当前平台的热键码
func interceptKey(code int) (hotkey.Key, bool) {
	switch code {
	case platform.KeyEscape:
		return hotkey.KeyEscape, true
	case platform.KeyLeft:
		return hotkey.KeyLeft, true
	case platform.KeyRight:
		return hotkey.KeyRight, true
	case platform.KeyUp:
		return hotkey.KeyUp, true
	case platform.KeyDown:
		return hotkey.KeyDown, true
	case platform.KeySpace:
		return hotkey.KeySpace, true
	case platform.KeyEnter:
		return hotkey.KeyReturn, true
	}
	return pagingKey(code)
}

// Validate 检查组合键是否可注册：至少一个修饰键加一个可识别的主键
func Validate(mods []string, key string) error {
	if len(mods) == 0 {
		return fmt.Errorf("需要至少一个修饰键 (%s)", Usage())
	}
	if key == "" {
		return fmt.Errorf("需要一个主键 (%s)", Usage())
	}
	if _, err := parseModifiers(mods); err != nil {
		return fmt.Errorf("%w (%s)", err, Usage())
	}
	if _, err := parseKey(key); err != nil {
		return fmt.Errorf("%w (%s)", err, Usage())
	}
	return nil
}

// Register 注册热键并开始监听，已有注册会先被替换
func (m *Manager) Register(modifiers []string, key string, callback func()) error {
	mods, err := parseModifiers(modifiers)
	if err != nil {
		return err
	}
	k, err := parseKey(key)
	if err != nil {
		return err
	}

	combo := strings.ToLower(strings.Join(append(append([]string{}, modifiers...), key), "+"))

	m.mu.Lock()
	defer m.mu.Unlock()

	// 同一组合不能重复注册，先释放
	if m.binding != nil && m.combo == combo {
		m.releaseLocked()
	}
	b := m.factory(mods, k)
	if err := b.Register(); err != nil {
		return fmt.Errorf("无法注册热键: %w", err)
	}
	m.releaseLocked()
	m.log.Info("注册热键", zap.String("hotkey", combo))

	m.binding = b
	m.combo = combo
	m.callback = callback
	m.stop = make(chan struct{})
	go listen(b, m.stop, func() {
		if callback != nil {
			callback()
		}
	})
	return nil
}

// Rebind 换一个组合键；新组合注册失败时保留原来的
func (m *Manager) Rebind(modifiers []string, key string) error {
	m.mu.Lock()
	cb, bound := m.callback, m.binding != nil
	m.mu.Unlock()
	if !bound {
		return ErrNotRegistered
	}
	return m.Register(modifiers, key, cb)
}

// Combo 当前注册的组合键，如 "ctrl+shift+d"
func (m *Manager) Combo() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.combo
}

// Unregister 注销热键
func (m *Manager) Unregister() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseLocked()
}

func (m *Manager) releaseLocked() error {
	if m.binding == nil {
		return nil
	}
	close(m.stop)
	err := m.binding.Unregister()
	m.binding = nil
	m.combo = ""
	return err
}

func listen(b Binding, stop <-chan struct{}, fn func()) {
	for {
		select {
		case <-stop:
			return
		case _, ok := <-b.Keydown():
			if !ok {
				return
			}
			fn()
		}
	}
}

// Intercepts 绘制期间拦截的翻页笔按键（无修饰键）。
// 离开绘制状态和退出时必须全部释放。
type Intercepts struct {
	log     *zap.Logger
	factory Factory
	onKey   func(code int)

	mu       sync.Mutex
	bindings []Binding
	stop     chan struct{}
}

// NewIntercepts onKey 收到被拦截按键的虚拟键码
func NewIntercepts(log *zap.Logger, onKey func(code int)) *Intercepts {
	return newIntercepts(log, systemFactory, onKey)
}

func newIntercepts(log *zap.Logger, factory Factory, onKey func(code int)) *Intercepts {
	return &Intercepts{log: log, factory: factory, onKey: onKey}
}

// Register 注册全部按键。个别按键被其他程序占用时跳过并返回汇总错误，其余照常生效
func (i *Intercepts) Register() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.bindings != nil {
		return nil
	}

	i.stop = make(chan struct{})
	i.bindings = []Binding{}
	var errs []error
	for _, code := range platform.PresentationKeys {
		k, ok := interceptKey(code)
		if !ok {
			continue
		}
		b := i.factory(nil, k)
		if err := b.Register(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", platform.KeyName(code), err))
			continue
		}
		i.bindings = append(i.bindings, b)
		code := code
		go listen(b, i.stop, func() {
			if i.onKey != nil {
				i.onKey(code)
			}
		})
	}
	i.log.Debug("已注册按键拦截", zap.Int("count", len(i.bindings)))
	return errors.Join(errs...)
}

// Unregister 释放全部按键，可重复调用
func (i *Intercepts) Unregister() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.bindings == nil {
		return nil
	}
	close(i.stop)
	var errs []error
	for _, b := range i.bindings {
		if err := b.Unregister(); err != nil {
			errs = append(errs, err)
		}
	}
	i.log.Debug("已释放按键拦截", zap.Int("count", len(i.bindings)))
	i.bindings = nil
	return errors.Join(errs...)
}

// Active 是否处于拦截状态
func (i *Intercepts) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bindings != nil
}

// Count 实际注册成功的按键数
func (i *Intercepts) Count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.bindings)
}

// Run 在主线程中运行（macOS 要求热键在主线程注册）
func Run(fn func()) {
	mainthread.Init(fn)
}

// SupportedModifiers 可用的修饰键，macOS 上 win 即 cmd
func SupportedModifiers() []string {
	return []string{"ctrl", "alt", "shift", "win"}
}

// namedKeys 除 a-z、0-9、f1-f12 外能识别的主键
var namedKeys = []string{"space", "enter", "esc", "tab", "delete", "up", "down", "left", "right"}

// Usage 组合键格式说明，用于命令行帮助和错误提示
func Usage() string {
	return fmt.Sprintf("修饰键: %s；主键: a-z, 0-9, f1-f12, %s",
		strings.Join(SupportedModifiers(), ", "), strings.Join(namedKeys, ", "))
}
