package notify

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingNotifier struct{ shown int }

func (c *countingNotifier) Show(title, message string) error {
	c.shown++
	return nil
}

func TestLogNotifierWritesEntry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))
	if err := n.Show("已保存", "/tmp/a.png"); err != nil {
		t.Fatal(err)
	}
	entries := logs.All()
	if len(entries) != 1 || entries[0].Message != "已保存" {
		t.Fatalf("entries = %+v", entries)
	}
	if got := entries[0].ContextMap()["message"]; got != "/tmp/a.png" {
		t.Errorf("message field = %v", got)
	}
}

func TestMuted(t *testing.T) {
	real := &countingNotifier{}
	core, logs := observer.New(zap.InfoLevel)

	Muted(real, zap.New(core), true).Show("a", "b")
	if real.shown != 1 {
		t.Error("enabled notifier not used")
	}
	Muted(real, zap.New(core), false).Show("a", "b")
	if real.shown != 1 || logs.Len() != 1 {
		t.Error("muted notifier still shown")
	}
}
