package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// SchemaVersion 当前配置文件结构版本
const SchemaVersion = 2

// ErrUnsupportedVersion 配置文件来自更新的版本，无法识别
var ErrUnsupportedVersion = errors.New("config: unsupported schema version")

// Hotkey 快捷键配置
type Hotkey struct {
	Modifiers []string `json:"modifiers"` // ctrl, alt, shift, win(windows)/cmd(mac)
	Key       string   `json:"key"`       // 主键，如 d, 1, f1
}

// Display 显示器配置
type Display struct {
	// LockedDisplayID 锁定的显示器，空表示跟随光标
	LockedDisplayID *string `json:"lockedDisplayId"`
}

// Canvas 画布配置
type Canvas struct {
	PenColor    string `json:"penColor"`    // #rrggbb
	PenWidth    int    `json:"penWidth"`    // 画笔线宽
	EraserWidth int    `json:"eraserWidth"` // 橡皮擦宽度
	PalmRadius  int    `json:"palmRadius"`  // 触摸接触半径超过该值视为手掌
	MaxHistory  int    `json:"maxHistory"`  // 撤销历史上限
}

// Behavior 行为配置
type Behavior struct {
	ShowNotification bool     `json:"showNotification"`
	AutoStart        bool     `json:"autoStart"`
	FollowInterval   Duration `json:"followInterval"` // 光标跟随轮询间隔
}

// Export 导出配置
type Export struct {
	Directory string `json:"directory"`
	Format    string `json:"format"`  // png, jpg
	Quality   int    `json:"quality"` // jpg 质量 1-100

	// WithScreen 复制和保存时把标注叠加到当时的屏幕截图上
	WithScreen bool `json:"withScreen"`
}

// Update 更新检查配置
type Update struct {
	FeedURL string `json:"feedUrl"`
}

// Config 主配置结构
type Config struct {
	Version  int      `json:"version"`
	Hotkey   Hotkey   `json:"hotkey"`
	Display  Display  `json:"display"`
	Canvas   Canvas   `json:"canvas"`
	Behavior Behavior `json:"behavior"`
	Export   Export   `json:"export"`
	Update   Update   `json:"update"`

	legacyLocks map[string]string
	migrated    bool
}

// Duration 以 "1s" 形式序列化的时间间隔
type Duration time.Duration

// MarshalJSON 输出字符串形式
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON 同时接受 "1s" 和毫秒数
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	exportDir := filepath.Join(userHome(), "Pictures", "screenmark")

	return &Config{
		Version: SchemaVersion,
		Hotkey: Hotkey{
			Modifiers: []string{"ctrl", "shift"},
			Key:       "d",
		},
		Canvas: Canvas{
			PenColor:    "#ff0000",
			PenWidth:    5,
			EraserWidth: 100,
			PalmRadius:  20,
			MaxHistory:  50,
		},
		Behavior: Behavior{
			ShowNotification: true,
			AutoStart:        false,
			FollowInterval:   Duration(time.Second),
		},
		Export: Export{
			Directory: exportDir,
			Format:    "png",
			Quality:   90,
		},
	}
}

// GetConfigPath 获取配置文件路径
func GetConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}

	var configDir string
	if runtime.GOOS == "windows" {
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(userHome(), "AppData", "Roaming")
		}
	} else {
		configDir = filepath.Join(userHome(), ".config")
	}

	return filepath.Join(configDir, "screenmark", "config.json")
}

// LoadFrom 加载配置；文件不存在时返回默认配置，出错时同样返回可用的默认配置
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := decode(data, "")
	if err != nil {
		return DefaultConfig(), fmt.Errorf("decode %s: %w", path, err)
	}
	cfg.Validate()
	return cfg, nil
}

// Validate 验证并修正配置值
func (c *Config) Validate() {
	defaults := DefaultConfig()
	c.Version = SchemaVersion

	if c.Hotkey.Key == "" {
		c.Hotkey = defaults.Hotkey
	}
	validMods := map[string]bool{"ctrl": true, "alt": true, "shift": true, "win": true, "cmd": true, "control": true, "option": true, "super": true, "command": true}
	mods := []string{}
	for _, mod := range c.Hotkey.Modifiers {
		if validMods[strings.ToLower(mod)] {
			mods = append(mods, strings.ToLower(mod))
		}
	}
	if len(mods) == 0 {
		c.Hotkey.Modifiers = defaults.Hotkey.Modifiers
	} else {
		c.Hotkey.Modifiers = mods
	}
	c.Hotkey.Key = strings.ToLower(c.Hotkey.Key)

	if c.Display.LockedDisplayID != nil && *c.Display.LockedDisplayID == "" {
		c.Display.LockedDisplayID = nil
	}

	if _, err := ParseColor(c.Canvas.PenColor); err != nil {
		c.Canvas.PenColor = defaults.Canvas.PenColor
	}
	if c.Canvas.PenWidth < 1 || c.Canvas.PenWidth > 64 {
		c.Canvas.PenWidth = defaults.Canvas.PenWidth
	}
	if c.Canvas.EraserWidth < 1 || c.Canvas.EraserWidth > 400 {
		c.Canvas.EraserWidth = defaults.Canvas.EraserWidth
	}
	if c.Canvas.PalmRadius < 1 {
		c.Canvas.PalmRadius = defaults.Canvas.PalmRadius
	}
	if c.Canvas.MaxHistory < 1 {
		c.Canvas.MaxHistory = defaults.Canvas.MaxHistory
	}

	if time.Duration(c.Behavior.FollowInterval) < 100*time.Millisecond {
		c.Behavior.FollowInterval = defaults.Behavior.FollowInterval
	}

	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		c.Export.Quality = defaults.Export.Quality
	}
	format := strings.ToLower(c.Export.Format)
	if format != "png" && format != "jpg" && format != "jpeg" {
		c.Export.Format = defaults.Export.Format
	} else {
		c.Export.Format = format
	}
	// 防止路径遍历
	if c.Export.Directory == "" || strings.Contains(c.Export.Directory, "..") {
		c.Export.Directory = defaults.Export.Directory
	}
}

// SaveTo 保存配置到指定路径
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	c.Version = SchemaVersion
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}

	// 先写临时文件再改名，避免写到一半时留下损坏的配置
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LockedDisplay 锁定的显示器 ID，空串表示自动
func (c *Config) LockedDisplay() string {
	if c.Display.LockedDisplayID == nil {
		return ""
	}
	return *c.Display.LockedDisplayID
}

// GetHotkeyString 获取快捷键的字符串表示
func (c *Config) GetHotkeyString() string {
	parts := append([]string{}, c.Hotkey.Modifiers...)
	parts = append(parts, c.Hotkey.Key)
	return strings.Join(parts, "+")
}

// ParseHotkey 解析 "ctrl+shift+d" 形式的快捷键
func ParseHotkey(s string) (Hotkey, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	var hk Hotkey
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return Hotkey{}, fmt.Errorf("invalid hotkey %q", s)
		}
		if i == len(parts)-1 {
			hk.Key = part
		} else {
			hk.Modifiers = append(hk.Modifiers, part)
		}
	}
	if len(hk.Modifiers) == 0 {
		return Hotkey{}, fmt.Errorf("hotkey %q needs at least one modifier", s)
	}
	return hk, nil
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
