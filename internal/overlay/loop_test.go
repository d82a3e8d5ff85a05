package overlay

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"go.uber.org/zap"

	"screenmark/internal/canvas"
	"screenmark/internal/content"
	"screenmark/internal/display"
	"screenmark/internal/ipc"
	"screenmark/internal/platform"
)

func TestLoopRunsPostedWorkAndShutsDown(t *testing.T) {
	bus := ipc.NewBus(32)
	defer bus.Close()

	adapter := platform.NewHeadless(zap.NewNop(), platform.Capabilities{})
	intercepts := &fakeIntercepts{}
	loop := NewLoop(zap.NewNop(), time.Hour)
	m := NewMachine(Deps{
		Log:        zap.NewNop(),
		Adapter:    adapter,
		Displays:   &fakeDisplays{list: []display.Display{displayA}},
		Cursor:     &fakeCursor{},
		Settings:   &fakeSettings{},
		Intercepts: intercepts,
		Scheduler:  loop,
		Bus:        bus,
		Content:    content.NewPage(zap.NewNop(), bus.Content(), image.Pt(1920, 1080), canvas.DefaultOptions()),
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx, m) }()

	states := make(chan bool, 1)
	loop.Post(func(m *Machine) {
		m.Toggle()
		states <- m.State().DrawingEnabled
	})
	select {
	case on := <-states:
		if !on {
			t.Fatal("posted toggle did not enable drawing")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("posted work never ran")
	}

	// 窗口事件经由 Sink 投递
	loop.Sink().CatchClicked()
	fired := make(chan struct{})
	loop.AfterFunc(10*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("AfterFunc callback never ran")
	}

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if intercepts.Active() {
		t.Error("intercepts still registered after shutdown")
	}
	if adapter.OverlayWindow().Visible() {
		t.Error("overlay visible after shutdown")
	}
	if loop.Post(func(*Machine) {}) {
		t.Error("Post() accepted work after Run returned")
	}
}

func TestLoopAfterFuncCancel(t *testing.T) {
	loop := NewLoop(zap.NewNop(), 0)
	cancel := loop.AfterFunc(time.Hour, func() { t.Error("cancelled callback ran") })
	cancel()
	if loop.interval != DefaultFollowInterval {
		t.Errorf("interval = %v", loop.interval)
	}
}
