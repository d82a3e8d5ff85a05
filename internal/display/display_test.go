package display

import (
	"errors"
	"image"
	"testing"
)

var (
	displayA = Display{ID: IDFor(image.Rect(0, 0, 1920, 1080)), Bounds: image.Rect(0, 0, 1920, 1080), Primary: true}
	displayB = Display{ID: IDFor(image.Rect(1920, 0, 3840, 1080)), Bounds: image.Rect(1920, 0, 3840, 1080)}
)

func TestResolveCursorInsideDisplay(t *testing.T) {
	tests := []struct {
		name   string
		cursor image.Point
		want   Display
	}{
		{"inside A", image.Pt(100, 100), displayA},
		{"inside B", image.Pt(2000, 500), displayB},
		{"A right edge", image.Pt(1919, 0), displayA},
		{"B left edge", image.Pt(1920, 0), displayB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stale := Resolve([]Display{displayA, displayB}, tt.cursor, "")
			if stale {
				t.Fatal("unexpected stale lock")
			}
			if got.ID != tt.want.ID {
				t.Errorf("Resolve() = %s, want %s", got.ID, tt.want.ID)
			}
		})
	}
}

func TestResolveLockedIgnoresCursor(t *testing.T) {
	displays := []Display{displayA, displayB}
	for _, cursor := range []image.Point{{2000, 500}, {-500, -500}, {10000, 10000}, {0, 0}} {
		got, stale := Resolve(displays, cursor, displayA.ID)
		if stale {
			t.Fatalf("cursor %v: lock reported stale", cursor)
		}
		if got != displayA {
			t.Errorf("cursor %v: Resolve() = %+v, want %+v", cursor, got, displayA)
		}
	}
}

func TestResolveStaleLockFallsBack(t *testing.T) {
	got, stale := Resolve([]Display{displayB}, image.Pt(2000, 500), displayA.ID)
	if !stale {
		t.Error("expected stale lock to be reported")
	}
	if got.ID != displayB.ID {
		t.Errorf("Resolve() = %s, want %s", got.ID, displayB.ID)
	}
}

func TestResolveNearestOutside(t *testing.T) {
	// 光标位于两个显示器之间的空隙
	left := Display{ID: "a", Bounds: image.Rect(0, 0, 100, 100)}
	right := Display{ID: "b", Bounds: image.Rect(300, 0, 400, 100)}

	got, _ := Resolve([]Display{left, right}, image.Pt(150, 50), "")
	if got.ID != "a" {
		t.Errorf("nearest to 150 = %s, want a", got.ID)
	}
	got, _ = Resolve([]Display{left, right}, image.Pt(260, 50), "")
	if got.ID != "b" {
		t.Errorf("nearest to 260 = %s, want b", got.ID)
	}
}

func TestResolveTieBreaksOnLowestID(t *testing.T) {
	// (150,50) 到 a 的最近点 (99,50) 距离 51，到 b 的最近点 (201,50) 距离 51
	a := Display{ID: "z", Bounds: image.Rect(0, 0, 100, 100)}
	b := Display{ID: "m", Bounds: image.Rect(201, 0, 300, 100)}

	got, _ := Resolve([]Display{a, b}, image.Pt(150, 50), "")
	if got.ID != "m" {
		t.Errorf("tie resolved to %s, want m", got.ID)
	}
}

func TestSignatureIsOrderIndependent(t *testing.T) {
	s1 := Signature([]Display{displayA, displayB})
	s2 := Signature([]Display{displayB, displayA})
	if s1 != s2 {
		t.Errorf("signature depends on order: %q vs %q", s1, s2)
	}
	if Signature([]Display{displayA}) == s1 {
		t.Error("signature did not change when a display was removed")
	}
}

func TestContaining(t *testing.T) {
	got, ok := Containing([]Display{displayA, displayB}, displayB.Bounds)
	if !ok || got.ID != displayB.ID {
		t.Errorf("Containing(B bounds) = %s, %v", got.ID, ok)
	}
	if _, ok := Containing(nil, displayA.Bounds); ok {
		t.Error("Containing(nil) reported a display")
	}
}

func TestIDFor(t *testing.T) {
	if got := IDFor(image.Rect(-1920, 0, 0, 1200)); got != "-1920,0:1920x1200" {
		t.Errorf("IDFor() = %q", got)
	}
}

func TestHookCursorObserve(t *testing.T) {
	c := NewHookCursor(nil)
	if _, err := c.Position(); !errors.Is(err, ErrCursorUnknown) {
		t.Fatalf("Position() before observe err = %v", err)
	}
	c.Observe(image.Pt(5, 7))
	p, err := c.Position()
	if err != nil || p != image.Pt(5, 7) {
		t.Errorf("Position() = %v, %v", p, err)
	}
}

type fixedCursor struct {
	pos   image.Point
	err   error
	calls int
}

func (f *fixedCursor) Position() (image.Point, error) {
	f.calls++
	return f.pos, f.err
}

func TestCursorsFallBackInOrder(t *testing.T) {
	hook := NewHookCursor(nil)
	system := &fixedCursor{pos: image.Pt(300, 400)}
	cursor := Cursors{hook, system}

	// 钩子还没收到事件时用系统光标
	p, err := cursor.Position()
	if err != nil || p != image.Pt(300, 400) || system.calls != 1 {
		t.Fatalf("Position() = %v, %v (system calls %d)", p, err, system.calls)
	}

	hook.Observe(image.Pt(2500, 10))
	p, err = cursor.Position()
	if err != nil || p != image.Pt(2500, 10) {
		t.Errorf("Position() = %v, %v, want hook position", p, err)
	}
	if system.calls != 1 {
		t.Error("system cursor queried although the hook knew the position")
	}
}

func TestCursorsAllUnknown(t *testing.T) {
	failed := errors.New("GetCursorPos failed")
	cursor := Cursors{NewHookCursor(nil), &fixedCursor{err: failed}}
	if _, err := cursor.Position(); !errors.Is(err, failed) {
		t.Errorf("err = %v, want last source error", err)
	}
	if _, err := (Cursors{}).Position(); !errors.Is(err, ErrCursorUnknown) {
		t.Errorf("empty err = %v", err)
	}
}
