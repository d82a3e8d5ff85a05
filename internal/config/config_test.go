package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.LockedDisplay() != "" {
		t.Errorf("default locked display = %q", cfg.LockedDisplay())
	}
	if cfg.GetHotkeyString() != "ctrl+shift+d" {
		t.Errorf("default hotkey = %q", cfg.GetHotkeyString())
	}
	if cfg.Canvas.PenWidth != 5 || cfg.Canvas.EraserWidth != 100 || cfg.Canvas.PalmRadius != 20 {
		t.Errorf("unexpected canvas defaults: %+v", cfg.Canvas)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	id := "1920,0:1920x1080"
	cfg.Display.LockedDisplayID = &id
	cfg.Behavior.FollowInterval = Duration(2 * time.Second)

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.LockedDisplay() != id {
		t.Errorf("locked display = %q, want %q", loaded.LockedDisplay(), id)
	}
	if time.Duration(loaded.Behavior.FollowInterval) != 2*time.Second {
		t.Errorf("follow interval = %v", time.Duration(loaded.Behavior.FollowInterval))
	}
	if loaded.Version != SchemaVersion {
		t.Errorf("version = %d", loaded.Version)
	}
}

func TestLoadCorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, "{not json")

	cfg, err := LoadFrom(path)
	if err == nil {
		t.Error("expected decode error")
	}
	if cfg == nil || cfg.LockedDisplay() != "" {
		t.Error("expected usable defaults in auto-follow mode")
	}
}

func TestMigrateFlatV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"lockedDisplayId": "0,0:1920x1080"}`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got := cfg.LockedDisplay(); got != "0,0:1920x1080" {
		t.Errorf("locked display = %q", got)
	}
	if !cfg.Migrated() {
		t.Error("expected Migrated() to be true")
	}
}

func TestMigrateV0LegacyIDs(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{`{"lockedDisplayId": 2}`, "2"},
		{`{"lockedDisplayId": null}`, ""},
		{`{}`, ""},
		{`{"lockedDisplayId": ""}`, ""},
	}
	for _, tt := range tests {
		cfg, err := decode([]byte(tt.doc), "")
		if err != nil {
			t.Fatalf("decode(%s) error = %v", tt.doc, err)
		}
		cfg.Validate()
		if got := cfg.LockedDisplay(); got != tt.want {
			t.Errorf("decode(%s): locked = %q, want %q", tt.doc, got, tt.want)
		}
	}
}

func TestMigrateV1BySignature(t *testing.T) {
	doc := `{"displayLocks": {"sigA": "left", "sigB": "right"}, "hotkey": {"modifiers": ["alt"], "key": "p"}}`

	tests := []struct {
		signature string
		want      string
	}{
		{"sigA", "left"},
		{"sigB", "right"},
		{"unknown", ""},
	}
	for _, tt := range tests {
		cfg, err := decode([]byte(doc), tt.signature)
		if err != nil {
			t.Fatalf("decode() error = %v", err)
		}
		if got := cfg.LockedDisplay(); got != tt.want {
			t.Errorf("signature %s: locked = %q, want %q", tt.signature, got, tt.want)
		}
		if cfg.GetHotkeyString() != "alt+p" {
			t.Errorf("hotkey not carried over: %q", cfg.GetHotkeyString())
		}
	}
}

func TestRejectFutureVersion(t *testing.T) {
	_, err := decode([]byte(`{"version": 99}`), "")
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("decode() error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestValidateFixesBadValues(t *testing.T) {
	cfg := DefaultConfig()
	empty := ""
	cfg.Display.LockedDisplayID = &empty
	cfg.Canvas.PenColor = "red"
	cfg.Canvas.PenWidth = 0
	cfg.Hotkey.Modifiers = []string{"hyper"}
	cfg.Export.Directory = "../../etc"
	cfg.Export.Format = "bmp"
	cfg.Behavior.FollowInterval = Duration(time.Millisecond)
	cfg.Validate()

	defaults := DefaultConfig()
	if cfg.Display.LockedDisplayID != nil {
		t.Error("empty lock should normalize to nil")
	}
	if cfg.Canvas.PenColor != defaults.Canvas.PenColor || cfg.Canvas.PenWidth != defaults.Canvas.PenWidth {
		t.Errorf("canvas not repaired: %+v", cfg.Canvas)
	}
	if len(cfg.Hotkey.Modifiers) != 2 {
		t.Errorf("modifiers not repaired: %v", cfg.Hotkey.Modifiers)
	}
	if cfg.Export.Directory != defaults.Export.Directory || cfg.Export.Format != "png" {
		t.Errorf("export not repaired: %+v", cfg.Export)
	}
	if cfg.Behavior.FollowInterval != defaults.Behavior.FollowInterval {
		t.Errorf("follow interval not repaired: %v", cfg.Behavior.FollowInterval)
	}
}

func TestDurationAcceptsMilliseconds(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`1500`), &d); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if time.Duration(d) != 1500*time.Millisecond {
		t.Errorf("duration = %v", time.Duration(d))
	}
}

func TestParseHotkey(t *testing.T) {
	hk, err := ParseHotkey("Ctrl+Shift+D")
	if err != nil {
		t.Fatalf("ParseHotkey() error = %v", err)
	}
	if hk.Key != "d" || len(hk.Modifiers) != 2 || hk.Modifiers[0] != "ctrl" {
		t.Errorf("ParseHotkey() = %+v", hk)
	}
	for _, bad := range []string{"d", "ctrl+", ""} {
		if _, err := ParseHotkey(bad); err == nil {
			t.Errorf("ParseHotkey(%q) expected error", bad)
		}
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#00ff80")
	if err != nil || c.R != 0 || c.G != 255 || c.B != 0x80 || c.A != 255 {
		t.Errorf("ParseColor() = %+v, %v", c, err)
	}
	c, err = ParseColor("#f00")
	if err != nil || c.R != 255 || c.G != 0 {
		t.Errorf("short form = %+v, %v", c, err)
	}
	if _, err := ParseColor("#zzzzzz"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvHotkey, "alt+shift+m")
	t.Setenv(EnvFollowInterval, "250ms")
	t.Setenv(EnvDebug, "true")
	t.Setenv(EnvLogFile, "/tmp/x.log")

	cfg := DefaultConfig()
	rt := cfg.ApplyEnv()
	if cfg.GetHotkeyString() != "alt+shift+m" {
		t.Errorf("hotkey = %q", cfg.GetHotkeyString())
	}
	if time.Duration(cfg.Behavior.FollowInterval) != 250*time.Millisecond {
		t.Errorf("follow interval = %v", time.Duration(cfg.Behavior.FollowInterval))
	}
	if !rt.Debug || rt.LogFile != "/tmp/x.log" {
		t.Errorf("runtime = %+v", rt)
	}
}

func TestStorePersistsLockChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewStore(path, zap.NewNop())

	store.SetLockedDisplay("left")
	reloaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if reloaded.LockedDisplay() != "left" {
		t.Errorf("persisted lock = %q", reloaded.LockedDisplay())
	}

	store.SetLockedDisplay("")
	reloaded, _ = LoadFrom(path)
	if reloaded.LockedDisplay() != "" {
		t.Errorf("lock not cleared on disk: %q", reloaded.LockedDisplay())
	}
}

func TestStoreMigrateRewritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"displayLocks": {"sig": "right"}}`)

	store := NewStore(path, zap.NewNop())
	store.Migrate("sig")
	if store.LockedDisplay() != "right" {
		t.Fatalf("locked display = %q", store.LockedDisplay())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["version"] != float64(SchemaVersion) {
		t.Errorf("file not rewritten with version: %v", doc["version"])
	}
	if _, ok := doc["displayLocks"]; ok {
		t.Error("legacy key still present")
	}
}

func TestStoreUnwritablePathIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	writeFile(t, blocker, "x")

	// 配置目录实际是一个文件，保存必然失败
	store := NewStore(filepath.Join(blocker, "config.json"), zap.NewNop())
	store.SetLockedDisplay("left")
	if store.LockedDisplay() != "left" {
		t.Error("in-memory lock should still update when save fails")
	}
}

func TestStoreBacksUpUnreadableFile(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"future version", `{"version":3,"hotkey":{"modifiers":["alt"],"key":"x"}}`},
		{"corrupt", `{"hotkey": {"modifiers": ["alt"], "key": "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			writeFile(t, path, tt.doc)

			store := NewStore(path, zap.NewNop())
			if err := store.SaveLockedDisplay("left"); err != nil {
				t.Fatalf("SaveLockedDisplay() error = %v", err)
			}

			backup, err := os.ReadFile(store.BackupPath())
			if err != nil {
				t.Fatalf("original not backed up: %v", err)
			}
			if string(backup) != tt.doc {
				t.Errorf("backup = %s", backup)
			}
			reloaded, err := LoadFrom(path)
			if err != nil || reloaded.LockedDisplay() != "left" {
				t.Errorf("reloaded lock = %q, %v", reloaded.LockedDisplay(), err)
			}

			// 只备份一次，之后的保存不再覆盖 .bak
			store.SetLockedDisplay("right")
			if again, _ := os.ReadFile(store.BackupPath()); string(again) != tt.doc {
				t.Error("backup overwritten by a later save")
			}
		})
	}
}

func TestStoreKeepsFileWhenBackupFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{"version":3}`)
	// .bak 位置被非空目录占住，改名必然失败
	if err := os.MkdirAll(filepath.Join(path+".bak", "x"), 0755); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path, zap.NewNop())
	if err := store.SaveLockedDisplay("left"); err == nil {
		t.Error("save succeeded without a backup")
	}
	if data, _ := os.ReadFile(path); string(data) != `{"version":3}` {
		t.Errorf("unreadable file overwritten: %s", data)
	}
}

func TestSaveLockedDisplayReportsErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	writeFile(t, blocker, "x")

	store := NewStore(filepath.Join(blocker, "config.json"), zap.NewNop())
	if err := store.SaveLockedDisplay("left"); err == nil {
		t.Error("expected a write error")
	}
}
