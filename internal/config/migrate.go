package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// 历史版本的配置结构：
//
//	v0: {"lockedDisplayId": "<id>"|<数字>|null}
//	v1: {"displayLocks": {"<显示器拓扑签名>": "<id>"}}，按显示器组合分别记忆
//	v2: 当前结构，带 "version" 字段
type legacyDocument struct {
	Version         *int              `json:"version"`
	LockedDisplayID json.RawMessage   `json:"lockedDisplayId"`
	DisplayLocks    map[string]string `json:"displayLocks"`
}

// decode 解析任意版本的配置并迁移到当前结构
func decode(data []byte, signature string) (*Config, error) {
	var legacy legacyDocument
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if legacy.Version != nil {
		if *legacy.Version > SchemaVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *legacy.Version)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	// 无版本号：旧结构，其余字段（快捷键等）按当前结构尽量读取
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	switch {
	case legacy.DisplayLocks != nil:
		cfg.Display.LockedDisplayID = nil
		cfg.legacyLocks = legacy.DisplayLocks
		if signature != "" {
			cfg.ApplyLegacyLocks(signature)
		}
	default:
		if id := legacyID(legacy.LockedDisplayID); id != "" {
			cfg.Display.LockedDisplayID = &id
		}
	}
	cfg.migrated = true
	return cfg, nil
}

// ApplyLegacyLocks 用当前显示器拓扑签名解析 v1 的按拓扑记忆的锁定，
// 返回是否有待迁移的数据
func (c *Config) ApplyLegacyLocks(signature string) bool {
	if c.legacyLocks == nil {
		return false
	}
	if id, ok := c.legacyLocks[signature]; ok && id != "" {
		c.Display.LockedDisplayID = &id
	}
	c.legacyLocks = nil
	return true
}

// Migrated 配置是否从旧版本迁移而来（需要回写）
func (c *Config) Migrated() bool {
	return c.migrated
}

// legacyID 早期版本的 id 可能是数字（显示器序号），原样保留为字符串，
// 解析时对不上任何显示器，按失效锁定处理
func legacyID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	return strings.Trim(string(raw), `"`)
}
