// Package ipc 宿主（窗口管理）与内容层（画布页面）之间的消息通道。
// 两端各持一个端口，只能发送自己被授权的消息类型；内容层拿不到任何窗口管理接口。
// 通道里传的是 JSON 信封，接收端解析并校验后才交给处理方。
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Type 消息类型
type Type string

// 宿主 → 内容层
const (
	TypeToggleDrawing  Type = "toggle-drawing"
	TypeClearCanvas    Type = "clear-canvas"
	TypeDisplayChanged Type = "display-changed"
)

// 内容层 → 宿主
const (
	TypeSetIgnoreMouseEvents Type = "set-ignore-mouse-events"
	TypeOpenDrawing          Type = "open-drawing"
	TypeCloseDrawing         Type = "close-drawing"
	TypeForwardKey           Type = "forward-key"
)

var (
	// ErrNotPermitted 端口无权发送该类型的消息
	ErrNotPermitted = errors.New("ipc: message not permitted on this port")
	// ErrClosed 通道已关闭
	ErrClosed = errors.New("ipc: bus closed")
)

// Message 一条消息。只有与类型相关的字段有意义。
type Message struct {
	Type    Type  `json:"type"`
	Enabled *bool `json:"enabled,omitempty"` // toggle-drawing
	Ignore  *bool `json:"ignore,omitempty"`  // set-ignore-mouse-events
	KeyCode int   `json:"keyCode,omitempty"` // forward-key
	Width   int   `json:"width,omitempty"`   // display-changed
	Height  int   `json:"height,omitempty"`  // display-changed
}

// ToggleDrawing 通知内容层绘制开关
func ToggleDrawing(enabled bool) Message {
	return Message{Type: TypeToggleDrawing, Enabled: &enabled}
}

// ClearCanvas 通知内容层清空画布
func ClearCanvas() Message {
	return Message{Type: TypeClearCanvas}
}

// DisplayChanged 通知内容层显示器尺寸变化
func DisplayChanged(width, height int) Message {
	return Message{Type: TypeDisplayChanged, Width: width, Height: height}
}

// SetIgnoreMouseEvents 请求宿主切换鼠标穿透
func SetIgnoreMouseEvents(ignore bool) Message {
	return Message{Type: TypeSetIgnoreMouseEvents, Ignore: &ignore}
}

// OpenDrawing 请求开启绘制
func OpenDrawing() Message {
	return Message{Type: TypeOpenDrawing}
}

// CloseDrawing 请求关闭绘制
func CloseDrawing() Message {
	return Message{Type: TypeCloseDrawing}
}

// ForwardKey 请求关闭绘制并把按键交给下层应用
func ForwardKey(keyCode int) Message {
	return Message{Type: TypeForwardKey, KeyCode: keyCode}
}

// Validate 检查消息字段是否完整
func (m Message) Validate() error {
	switch m.Type {
	case TypeToggleDrawing:
		if m.Enabled == nil {
			return fmt.Errorf("ipc: %s requires enabled", m.Type)
		}
	case TypeSetIgnoreMouseEvents:
		if m.Ignore == nil {
			return fmt.Errorf("ipc: %s requires ignore", m.Type)
		}
	case TypeClearCanvas, TypeDisplayChanged, TypeOpenDrawing, TypeCloseDrawing, TypeForwardKey:
	default:
		return fmt.Errorf("ipc: unknown message type %q", m.Type)
	}
	return nil
}

// Encode 序列化为 JSON
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Decode 从 JSON 解析并校验
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("ipc: decode: %w", err)
	}
	return m, m.Validate()
}

var (
	hostSends    = map[Type]bool{TypeToggleDrawing: true, TypeClearCanvas: true, TypeDisplayChanged: true}
	contentSends = map[Type]bool{TypeSetIgnoreMouseEvents: true, TypeOpenDrawing: true, TypeCloseDrawing: true, TypeForwardKey: true}
)

// Port 通道的一端
type Port struct {
	bus     *Bus
	allowed map[Type]bool
	out     chan []byte
	in      chan []byte
}

// Send 发送一条消息，不阻塞；对端积压满时丢弃最旧的消息
func (p *Port) Send(m Message) error {
	if !p.allowed[m.Type] {
		return fmt.Errorf("%w: %s", ErrNotPermitted, m.Type)
	}
	data, err := Encode(m)
	if err != nil {
		return err
	}

	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	if p.bus.closed {
		return ErrClosed
	}
	for {
		select {
		case p.out <- data:
			return nil
		default:
			select {
			case <-p.out:
			default:
			}
		}
	}
}

// Drain 取出并解析当前所有待处理消息，不阻塞；解析失败的信封被丢弃
func (p *Port) Drain() []Message {
	var msgs []Message
	for {
		select {
		case data, ok := <-p.in:
			if !ok {
				return msgs
			}
			m, err := Decode(data)
			if err != nil {
				continue
			}
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

// Bus 双向消息通道
type Bus struct {
	mu     sync.Mutex
	closed bool

	host    *Port
	content *Port
}

// NewBus 创建通道，buffer 为每个方向的积压上限
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	toContent := make(chan []byte, buffer)
	toHost := make(chan []byte, buffer)

	b := &Bus{}
	b.host = &Port{bus: b, allowed: hostSends, out: toContent, in: toHost}
	b.content = &Port{bus: b, allowed: contentSends, out: toHost, in: toContent}
	return b
}

// Host 宿主端口
func (b *Bus) Host() *Port { return b.host }

// Content 内容层端口
func (b *Bus) Content() *Port { return b.content }

// Close 关闭通道
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.host.out)
	close(b.content.out)
}
