package ipc

import (
	"errors"
	"testing"
)

func TestPortsAreCapabilityScoped(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	hostOK := []Message{ToggleDrawing(true), ClearCanvas(), DisplayChanged(1920, 1080)}
	contentOK := []Message{SetIgnoreMouseEvents(true), OpenDrawing(), CloseDrawing(), ForwardKey(0x1B)}

	for _, m := range hostOK {
		if err := bus.Host().Send(m); err != nil {
			t.Errorf("host send %s: %v", m.Type, err)
		}
		if err := bus.Content().Send(m); !errors.Is(err, ErrNotPermitted) {
			t.Errorf("content send %s err = %v, want ErrNotPermitted", m.Type, err)
		}
	}
	for _, m := range contentOK {
		if err := bus.Host().Send(m); !errors.Is(err, ErrNotPermitted) {
			t.Errorf("host send %s err = %v, want ErrNotPermitted", m.Type, err)
		}
	}
}

func TestMessagesArriveInOrder(t *testing.T) {
	bus := NewBus(8)
	defer bus.Close()

	_ = bus.Content().Send(OpenDrawing())
	_ = bus.Content().Send(ForwardKey(0x27))

	got := bus.Host().Drain()
	if len(got) != 2 || got[0].Type != TypeOpenDrawing || got[1].KeyCode != 0x27 {
		t.Errorf("Drain() = %+v", got)
	}
	if len(bus.Host().Drain()) != 0 {
		t.Error("second Drain() should be empty")
	}
}

func TestSendDropsOldestWhenFull(t *testing.T) {
	bus := NewBus(2)
	defer bus.Close()

	_ = bus.Host().Send(ToggleDrawing(true))
	_ = bus.Host().Send(ClearCanvas())
	if err := bus.Host().Send(ToggleDrawing(false)); err != nil {
		t.Fatalf("Send() on full buffer: %v", err)
	}

	got := bus.Content().Drain()
	if len(got) != 2 || got[0].Type != TypeClearCanvas || *got[1].Enabled {
		t.Errorf("Drain() = %+v", got)
	}
}

func TestSendAfterClose(t *testing.T) {
	bus := NewBus(2)
	bus.Close()
	bus.Close()
	if err := bus.Host().Send(ClearCanvas()); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after close err = %v", err)
	}
	if got := bus.Content().Drain(); len(got) != 0 {
		t.Errorf("Drain() after close = %+v", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(SetIgnoreMouseEvents(false))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"set-ignore-mouse-events","ignore":false}` {
		t.Errorf("Encode() = %s", data)
	}

	m, err := Decode([]byte(`{"type":"toggle-drawing","enabled":true}`))
	if err != nil || m.Enabled == nil || !*m.Enabled {
		t.Errorf("Decode() = %+v, %v", m, err)
	}

	if _, err := Decode([]byte(`{"type":"toggle-drawing"}`)); err == nil {
		t.Error("expected missing field error")
	}
	if _, err := Decode([]byte(`{"type":"resize-window"}`)); err == nil {
		t.Error("expected unknown type error")
	}
}

func TestBusCarriesJSONEnvelopes(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	if err := bus.Content().Send(ForwardKey(0x22)); err != nil {
		t.Fatal(err)
	}
	data := <-bus.content.out
	if string(data) != `{"type":"forward-key","keyCode":34}` {
		t.Errorf("envelope = %s", data)
	}

	// 接收端丢弃无法解析或字段不全的信封
	bus.content.out <- []byte(`{"type":"close-drawing"`)
	bus.content.out <- []byte(`{"type":"set-ignore-mouse-events"}`)
	bus.content.out <- data
	got := bus.Host().Drain()
	if len(got) != 1 || got[0].Type != TypeForwardKey || got[0].KeyCode != 0x22 {
		t.Errorf("Drain() = %+v", got)
	}
}
