package main

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"screenmark/internal/config"
	"screenmark/internal/display"
)

type staticDisplays []display.Display

func (s staticDisplays) Displays() ([]display.Display, error) {
	if len(s) == 0 {
		return nil, display.ErrNoDisplays
	}
	return s, nil
}

var twoDisplays = staticDisplays{
	{ID: "0,0:1920x1080", Bounds: image.Rect(0, 0, 1920, 1080), Primary: true},
	{ID: "1920,0:1920x1080", Bounds: image.Rect(1920, 0, 3840, 1080)},
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "screenmark v"+version) {
		t.Errorf("output = %q", out)
	}
}

func TestConfigFlagHonoursEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv(config.EnvConfigPath, path)
	out, err := execute(t, "--config")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output = %q", out)
	}
}

func TestRejectsArguments(t *testing.T) {
	if _, err := execute(t, "extra"); err == nil {
		t.Error("positional argument accepted")
	}
}

func TestSetHotkey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv(config.EnvConfigPath, path)

	if _, err := execute(t, "--set-hotkey", "ctrl+alt+p"); err != nil {
		t.Fatal(err)
	}
	cfg := config.NewStore(path, zap.NewNop()).Config()
	if cfg.GetHotkeyString() != "ctrl+alt+p" {
		t.Errorf("hotkey = %s", cfg.GetHotkeyString())
	}

	if _, err := execute(t, "--set-hotkey", "ctrl+nosuchkey"); err == nil {
		t.Error("invalid hotkey accepted")
	}
	if _, err := execute(t, "--set-hotkey", "p"); err == nil {
		t.Error("hotkey without modifier accepted")
	}
}

func TestLockDisplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := lockDisplay(cmd, twoDisplays, path, "1920,0:1920x1080"); err != nil {
		t.Fatal(err)
	}
	if got := config.NewStore(path, zap.NewNop()).LockedDisplay(); got != "1920,0:1920x1080" {
		t.Errorf("locked = %q", got)
	}

	if err := lockDisplay(cmd, twoDisplays, path, "9,9:1x1"); err == nil {
		t.Error("unknown display accepted")
	}

	if err := lockDisplay(cmd, twoDisplays, path, "AUTO"); err != nil {
		t.Fatal(err)
	}
	if got := config.NewStore(path, zap.NewNop()).LockedDisplay(); got != "" {
		t.Errorf("locked after auto = %q", got)
	}
}

func TestLockDisplayReportsWriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	err := lockDisplay(cmd, twoDisplays, filepath.Join(blocker, "config.json"), "1920,0:1920x1080")
	if err == nil {
		t.Fatal("write failure not reported")
	}
	if strings.Contains(out.String(), "已锁定") {
		t.Errorf("success printed despite failure: %q", out.String())
	}
}

func TestHelpMentionsPlatformAndKeys(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Windows") || !strings.Contains(out, "f1-f12") {
		t.Errorf("help = %q", out)
	}
}

func TestListDisplays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv(config.EnvConfigPath, path)
	config.NewStore(path, zap.NewNop()).SetLockedDisplay("1920,0:1920x1080")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := listDisplays(cmd, twoDisplays); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "主显示器") || !strings.Contains(lines[1], "已锁定") {
		t.Errorf("lines = %q", lines)
	}
}

func TestCanvasOptionsFromConfig(t *testing.T) {
	c := config.DefaultConfig().Canvas
	c.PenColor = "#00ff00"
	c.PalmRadius = 30
	opts := canvasOptions(c, zap.NewNop())
	if opts.PenColor.G != 255 || opts.PenColor.R != 0 || opts.PalmRadius != 30 {
		t.Errorf("opts = %+v", opts)
	}

	c.PenColor = "green"
	if opts := canvasOptions(c, zap.NewNop()); opts.PenColor.R != 255 {
		t.Errorf("invalid color did not fall back: %+v", opts.PenColor)
	}
}
