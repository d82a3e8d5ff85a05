package hotkey

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.design/x/hotkey"

	"screenmark/internal/platform"
)

type fakeBinding struct {
	key        hotkey.Key
	mods       []hotkey.Modifier
	fail       bool
	registered bool
	ch         chan hotkey.Event
}

func (b *fakeBinding) Register() error {
	if b.fail {
		return errors.New("already taken")
	}
	b.registered = true
	return nil
}

func (b *fakeBinding) Unregister() error {
	b.registered = false
	return nil
}

func (b *fakeBinding) Keydown() <-chan hotkey.Event { return b.ch }

type fakeSystem struct {
	mu       sync.Mutex
	bindings []*fakeBinding
	taken    map[hotkey.Key]bool
}

func (s *fakeSystem) factory(mods []hotkey.Modifier, key hotkey.Key) Binding {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &fakeBinding{key: key, mods: mods, fail: s.taken[key], ch: make(chan hotkey.Event, 1)}
	s.bindings = append(s.bindings, b)
	return b
}

func (s *fakeSystem) registered() []*fakeBinding {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeBinding
	for _, b := range s.bindings {
		if b.registered {
			out = append(out, b)
		}
	}
	return out
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want hotkey.Key
	}{
		{"d", hotkey.KeyD},
		{"D", hotkey.KeyD},
		{"7", hotkey.Key7},
		{"f9", hotkey.KeyF9},
		{"esc", hotkey.KeyEscape},
		{"enter", hotkey.KeyReturn},
	}
	for _, tt := range tests {
		got, err := parseKey(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseKey(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := parseKey("pause"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("parseKey(pause) err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]string{"ctrl", "shift"}, "d"); err != nil {
		t.Errorf("Validate(ctrl+shift+d) = %v", err)
	}
	if err := Validate(nil, "d"); err == nil {
		t.Error("expected error without modifiers")
	}
	if err := Validate([]string{"hyper"}, "d"); err == nil {
		t.Error("expected error for unknown modifier")
	}
	if err := Validate([]string{"ctrl"}, ""); err == nil {
		t.Error("expected error without key")
	}
}

func TestUsageKeysAllParse(t *testing.T) {
	keys := append([]string{"a", "z", "0", "9", "f1", "f12"}, namedKeys...)
	for _, k := range keys {
		if _, err := parseKey(k); err != nil {
			t.Errorf("parseKey(%q) = %v", k, err)
		}
	}
	if _, err := parseModifiers(SupportedModifiers()); err != nil {
		t.Errorf("parseModifiers(supported) = %v", err)
	}
}

func TestValidateErrorListsSupportedKeys(t *testing.T) {
	err := Validate([]string{"ctrl"}, "pause")
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("Validate() = %v, want ErrUnknownKey", err)
	}
	if !strings.Contains(err.Error(), "f1-f12") || !strings.Contains(err.Error(), "shift") {
		t.Errorf("error lacks usage: %v", err)
	}
}

func TestManagerRegisterAndFire(t *testing.T) {
	sys := &fakeSystem{}
	m := newManager(zap.NewNop(), sys.factory)

	fired := make(chan struct{}, 1)
	if err := m.Register([]string{"ctrl", "shift"}, "d", func() { fired <- struct{}{} }); err != nil {
		t.Fatal(err)
	}
	if m.Combo() != "ctrl+shift+d" {
		t.Errorf("Combo() = %q", m.Combo())
	}

	sys.registered()[0].ch <- hotkey.Event{}
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("callback not invoked")
	}

	if err := m.Unregister(); err != nil {
		t.Fatal(err)
	}
	if n := len(sys.registered()); n != 0 {
		t.Errorf("%d bindings still registered", n)
	}
}

func TestManagerRebindKeepsOldOnFailure(t *testing.T) {
	sys := &fakeSystem{taken: map[hotkey.Key]bool{hotkey.KeyF9: true}}
	m := newManager(zap.NewNop(), sys.factory)
	if err := m.Register([]string{"ctrl", "shift"}, "d", func() {}); err != nil {
		t.Fatal(err)
	}

	if err := m.Rebind([]string{"alt"}, "f9"); err == nil {
		t.Fatal("expected rebind failure")
	}
	if m.Combo() != "ctrl+shift+d" {
		t.Errorf("Combo() = %q after failed rebind", m.Combo())
	}
	if reg := sys.registered(); len(reg) != 1 || reg[0].key != hotkey.KeyD {
		t.Errorf("registered = %+v", reg)
	}

	if err := m.Rebind([]string{"alt"}, "f8"); err != nil {
		t.Fatal(err)
	}
	if reg := sys.registered(); len(reg) != 1 || reg[0].key != hotkey.KeyF8 {
		t.Errorf("registered after rebind = %+v", reg)
	}
}

func TestInterceptsRegisterAll(t *testing.T) {
	sys := &fakeSystem{}
	got := make(chan int, 1)
	in := newIntercepts(zap.NewNop(), sys.factory, func(code int) { got <- code })

	if err := in.Register(); err != nil {
		t.Fatal(err)
	}
	if in.Count() != len(platform.PresentationKeys) {
		t.Errorf("Count() = %d, want %d", in.Count(), len(platform.PresentationKeys))
	}
	for _, b := range sys.registered() {
		if len(b.mods) != 0 {
			t.Errorf("intercept %v registered with modifiers", b.key)
		}
	}

	// 重复注册不产生新的绑定
	before := len(sys.bindings)
	_ = in.Register()
	if len(sys.bindings) != before {
		t.Error("second Register() created new bindings")
	}

	for _, b := range sys.registered() {
		if b.key == hotkey.KeyEscape {
			b.ch <- hotkey.Event{}
		}
	}
	select {
	case code := <-got:
		if code != platform.KeyEscape {
			t.Errorf("onKey(%#x), want escape", code)
		}
	case <-time.After(time.Second):
		t.Fatal("onKey not invoked")
	}

	if err := in.Unregister(); err != nil {
		t.Fatal(err)
	}
	if in.Active() || len(sys.registered()) != 0 {
		t.Error("intercepts not fully released")
	}
	if err := in.Unregister(); err != nil {
		t.Errorf("second Unregister() = %v", err)
	}
}

func TestInterceptsPartialFailure(t *testing.T) {
	sys := &fakeSystem{taken: map[hotkey.Key]bool{hotkey.KeySpace: true}}
	in := newIntercepts(zap.NewNop(), sys.factory, nil)

	if err := in.Register(); err == nil {
		t.Error("expected error for taken key")
	}
	if !in.Active() || in.Count() != len(platform.PresentationKeys)-1 {
		t.Errorf("Active() = %v, Count() = %d", in.Active(), in.Count())
	}
	_ = in.Unregister()
	if len(sys.registered()) != 0 {
		t.Error("bindings left after Unregister")
	}
}

func TestRebindWithoutRegister(t *testing.T) {
	m := newManager(zap.NewNop(), (&fakeSystem{}).factory)
	if err := m.Rebind([]string{"ctrl"}, "d"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Rebind() err = %v", err)
	}
}
