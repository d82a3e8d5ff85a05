// Package logutil 构造 zap 日志：调试模式输出到终端，否则写入按大小轮转的文件
package logutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultFileName 默认日志文件名
	DefaultFileName = "screenmark.log"
	maxSizeBytes    = 10 * 1024 * 1024 // 10 MB
	maxArchives     = 3
)

// Options 日志参数
type Options struct {
	Debug bool
	// File 日志文件路径，空时写到当前目录的 DefaultFileName
	File string
}

// New 创建日志。返回的 close 在退出前调用，刷新并关闭文件
func New(opts Options) (*zap.Logger, func(), error) {
	if opts.Debug {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), zap.DebugLevel)
		log := zap.New(core, zap.AddCaller())
		return log, func() { _ = log.Sync() }, nil
	}

	path := opts.File
	if path == "" {
		path = DefaultFileName
	}
	w, err := NewRotatingWriter(path, maxSizeBytes, maxArchives)
	if err != nil {
		// 打不开文件时退回到终端
		log := zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.Lock(os.Stderr), zap.InfoLevel))
		return log, func() { _ = log.Sync() }, err
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(w), zap.InfoLevel)
	log := zap.New(core)
	return log, func() {
		_ = log.Sync()
		_ = w.Close()
	}, nil
}

// RotatingWriter 按大小轮转的文件：超过上限时 .1 .2 .3 依次后移，最旧的丢弃
type RotatingWriter struct {
	path     string
	maxSize  int64
	archives int

	mu sync.Mutex
	f  *os.File
}

// NewRotatingWriter 打开（必要时先轮转）日志文件
func NewRotatingWriter(path string, maxSize int64, archives int) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	w := &RotatingWriter{path: path, maxSize: maxSize, archives: archives}
	w.rotateIfNeeded(0)
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write 写入前检查大小
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return 0, os.ErrClosed
	}
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > w.maxSize {
		_ = w.f.Close()
		w.rotateIfNeeded(int64(len(p)))
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	return w.f.Write(p)
}

// Sync 刷新到磁盘
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

// Close 关闭文件
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	w.f = f
	return nil
}

func (w *RotatingWriter) rotateIfNeeded(incoming int64) {
	st, err := os.Stat(w.path)
	if err != nil || st.Size()+incoming <= w.maxSize {
		return
	}
	_ = os.Remove(w.archiveName(w.archives))
	for i := w.archives - 1; i >= 1; i-- {
		_ = os.Rename(w.archiveName(i), w.archiveName(i+1))
	}
	_ = os.Rename(w.path, w.archiveName(1))
}

func (w *RotatingWriter) archiveName(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}
