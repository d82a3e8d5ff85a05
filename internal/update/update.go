// Package update 检查新版本。只做提示，下载交给浏览器
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"
)

// ErrNoFeed 没有配置更新地址
var ErrNoFeed = errors.New("update: no feed url configured")

const checkTimeout = 10 * time.Second

// Release 更新源返回的版本信息
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	Notes   string `json:"notes,omitempty"`
}

// Prompter 向用户展示结果
type Prompter interface {
	Info(title, message string)
	Confirm(title, message string) bool
}

// Checker 更新检查
type Checker struct {
	log     *zap.Logger
	client  *http.Client
	feed    string
	current string
	prompt  Prompter
	open    func(url string) error
}

// NewChecker 创建检查器，结果通过系统对话框展示
func NewChecker(log *zap.Logger, feed, current string) *Checker {
	return &Checker{
		log:     log,
		client:  &http.Client{Timeout: checkTimeout},
		feed:    strings.TrimSpace(feed),
		current: current,
		prompt:  dialogPrompter{},
		open:    openURL,
	}
}

// Latest 读取更新源上的最新版本
func (c *Checker) Latest(ctx context.Context) (Release, error) {
	if c.feed == "" {
		return Release{}, ErrNoFeed
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feed, nil)
	if err != nil {
		return Release{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("fetch %s: %w", c.feed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("fetch %s: status %d", c.feed, resp.StatusCode)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return Release{}, fmt.Errorf("decode release: %w", err)
	}
	if rel.Version == "" {
		return Release{}, fmt.Errorf("release without version")
	}
	return rel, nil
}

// Check 检查并提示用户；有新版本且用户同意时在浏览器打开下载页
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	rel, err := c.Latest(ctx)
	if errors.Is(err, ErrNoFeed) {
		c.prompt.Info("检查更新", "没有配置更新地址。")
		return err
	}
	if err != nil {
		c.log.Warn("检查更新失败", zap.Error(err))
		c.prompt.Info("检查更新", "暂时无法检查更新，请稍后再试。")
		return err
	}

	if !Newer(rel.Version, c.current) {
		c.log.Info("已是最新版本", zap.String("version", c.current))
		c.prompt.Info("没有更新", fmt.Sprintf("当前已是最新版本 %s。", c.current))
		return nil
	}

	c.log.Info("发现新版本", zap.String("version", rel.Version))
	msg := fmt.Sprintf("发现新版本 %s（当前 %s），现在打开下载页面吗？", rel.Version, c.current)
	if rel.Notes != "" {
		msg += "\n\n" + rel.Notes
	}
	if rel.URL == "" || !c.prompt.Confirm("发现新版本", msg) {
		return nil
	}
	if err := c.open(rel.URL); err != nil {
		return fmt.Errorf("open %s: %w", rel.URL, err)
	}
	return nil
}

// Newer latest 是否比 current 新。按点分数字段比较，忽略 v 前缀和 - 之后的后缀
func Newer(latest, current string) bool {
	a, b := fields(latest), fields(current)
	for i := 0; i < max(len(a), len(b)); i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			return x > y
		}
	}
	return false
}

func fields(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	var out []int
	for _, part := range strings.Split(v, ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out
}

type dialogPrompter struct{}

func (dialogPrompter) Info(title, message string) {
	dialog.Message("%s", message).Title(title).Info()
}

func (dialogPrompter) Confirm(title, message string) bool {
	return dialog.Message("%s", message).Title(title).YesNo()
}

// openURL 用系统默认程序打开链接
func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
