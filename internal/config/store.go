package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Store 设置存储：持有配置文档，锁定状态变化时同步写盘。
// 写盘失败只记录日志，不影响运行。
type Store struct {
	path string
	log  *zap.Logger

	mu  sync.Mutex
	cfg *Config
	// unread 原文件存在但读不出来；第一次写盘前先把它挪到 .bak
	unread error
}

// NewStore 从指定路径加载配置；读取失败时使用默认配置（自动跟随），
// 原文件保留到第一次写盘前备份
func NewStore(path string, log *zap.Logger) *Store {
	cfg, err := LoadFrom(path)
	if err != nil {
		log.Warn("读取配置失败，使用默认配置", zap.String("path", path), zap.Error(err))
	}
	return &Store{path: path, log: log, cfg: cfg, unread: err}
}

// Path 配置文件路径
func (s *Store) Path() string {
	return s.path
}

// BackupPath 无法读取的原配置备份位置
func (s *Store) BackupPath() string {
	return s.path + ".bak"
}

// Config 返回配置副本
func (s *Store) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *s.cfg
	c.Hotkey.Modifiers = append([]string(nil), s.cfg.Hotkey.Modifiers...)
	if s.cfg.Display.LockedDisplayID != nil {
		id := *s.cfg.Display.LockedDisplayID
		c.Display.LockedDisplayID = &id
	}
	return c
}

// LockedDisplay 当前锁定的显示器，空串表示自动
func (s *Store) LockedDisplay() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.LockedDisplay()
}

// SetLockedDisplay 设置（id 为空则清除）锁定的显示器并立即保存，失败只记录
func (s *Store) SetLockedDisplay(id string) {
	if err := s.SaveLockedDisplay(id); err != nil {
		s.log.Warn("保存配置失败", zap.String("path", s.path), zap.Error(err))
	}
}

// SaveLockedDisplay 同 SetLockedDisplay，但把写盘错误返回给调用方
func (s *Store) SaveLockedDisplay(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.LockedDisplay() == id {
		return nil
	}
	if id == "" {
		s.cfg.Display.LockedDisplayID = nil
	} else {
		s.cfg.Display.LockedDisplayID = &id
	}
	return s.saveLocked()
}

// SetAutoStart 记录开机启动开关
func (s *Store) SetAutoStart(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Behavior.AutoStart = enabled
	if err := s.saveLocked(); err != nil {
		s.log.Warn("保存配置失败", zap.String("path", s.path), zap.Error(err))
	}
}

// SetHotkey 修改快捷键
func (s *Store) SetHotkey(hk Hotkey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Hotkey = hk
	s.cfg.Validate()
	return s.saveLocked()
}

// Migrate 用当前显示器拓扑完成旧版本迁移，需要时回写新结构
func (s *Store) Migrate(signature string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.ApplyLegacyLocks(signature)
	if s.cfg.Migrated() {
		s.cfg.migrated = false
		s.log.Info("配置已迁移到新版本", zap.Int("version", SchemaVersion))
		if err := s.saveLocked(); err != nil {
			s.log.Warn("保存配置失败", zap.String("path", s.path), zap.Error(err))
		}
	}
}

// Save 保存当前配置
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if s.unread != nil {
		if err := s.backupLocked(); err != nil {
			return fmt.Errorf("原配置无法读取也无法备份，不覆盖: %w", err)
		}
	}
	return s.cfg.SaveTo(s.path)
}

func (s *Store) backupLocked() error {
	bak := s.BackupPath()
	err := os.Rename(s.path, bak)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err == nil {
		s.log.Warn("无法读取的原配置已备份", zap.String("backup", bak), zap.NamedError("cause", s.unread))
	}
	s.unread = nil
	return nil
}
