package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 环境变量
const (
	EnvFile           = "SCREENMARK_ENV"
	EnvConfigPath     = "SCREENMARK_CONFIG"
	EnvHotkey         = "SCREENMARK_HOTKEY"
	EnvDebug          = "SCREENMARK_DEBUG"
	EnvLogFile        = "SCREENMARK_LOG_FILE"
	EnvFollowInterval = "SCREENMARK_FOLLOW_INTERVAL"
)

// Runtime 只来自环境变量的运行参数，不写回配置文件
type Runtime struct {
	Debug   bool
	LogFile string
}

// LoadEnv 加载 .env：优先可执行文件同级目录，其次 SCREENMARK_ENV 指向的文件。
// 已存在的环境变量不会被覆盖。返回实际加载的路径。
func LoadEnv() string {
	path := resolveEnvPath()
	if path == "" {
		return ""
	}
	if err := godotenv.Load(path); err != nil {
		return ""
	}
	return path
}

func resolveEnvPath() string {
	if exe, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(exe), ".env")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if alt := os.Getenv(EnvFile); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return ""
}

// ApplyEnv 用环境变量覆盖配置
func (c *Config) ApplyEnv() Runtime {
	if v := strings.TrimSpace(os.Getenv(EnvHotkey)); v != "" {
		if hk, err := ParseHotkey(v); err == nil {
			c.Hotkey = hk
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvFollowInterval)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 100*time.Millisecond {
			c.Behavior.FollowInterval = Duration(d)
		}
	}

	return LoadRuntime()
}

// LoadRuntime 读取只来自环境变量的运行参数
func LoadRuntime() Runtime {
	rt := Runtime{LogFile: os.Getenv(EnvLogFile)}
	rt.Debug, _ = strconv.ParseBool(os.Getenv(EnvDebug))
	return rt
}

// ParseColor 解析 #rrggbb 或 #rgb
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, strconv.ErrSyntax
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
