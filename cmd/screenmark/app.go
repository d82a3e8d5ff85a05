package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"screenmark/internal/autostart"
	"screenmark/internal/canvas"
	"screenmark/internal/capture"
	"screenmark/internal/clipboard"
	"screenmark/internal/config"
	"screenmark/internal/content"
	"screenmark/internal/display"
	"screenmark/internal/hotkey"
	"screenmark/internal/ipc"
	"screenmark/internal/logutil"
	"screenmark/internal/notify"
	"screenmark/internal/overlay"
	"screenmark/internal/platform"
	"screenmark/internal/storage"
	"screenmark/internal/tray"
	"screenmark/internal/update"
)

// app 托盘、快捷键和状态机之间的胶水。状态机的调用一律投递到事件循环
type app struct {
	log      *zap.Logger
	store    *config.Store
	loop     *overlay.Loop
	displays display.Source
	hotkeys  *hotkey.Manager
	notifier notify.Notifier
	clip     clipboard.Clipboard
	exporter *storage.Storage
	launcher autostart.Launcher
	checker  *update.Checker
	capturer capture.Capturer
	onScreen bool
	tray     *tray.Presenter
	cancel   context.CancelFunc

	mu        sync.Mutex
	autoStart bool
}

func runApp(debug bool) error {
	path := config.GetConfigPath()
	rt := config.LoadRuntime()
	rt.Debug = rt.Debug || debug
	if rt.LogFile == "" {
		rt.LogFile = filepath.Join(filepath.Dir(path), logutil.DefaultFileName)
	}
	log, closeLog, err := logutil.New(logutil.Options{Debug: rt.Debug, File: rt.LogFile})
	if err != nil {
		log.Warn("打开日志文件失败，改为输出到终端", zap.String("file", rt.LogFile), zap.Error(err))
	}
	defer closeLog()
	logDisplayDiagnostics(log)

	store := config.NewStore(path, log.Named("config"))
	cfg := store.Config()
	cfg.ApplyEnv()

	adapter, err := platform.New(log.Named("platform"))
	if err != nil {
		return fmt.Errorf("创建覆盖层窗口失败: %w", err)
	}
	defer adapter.Close()

	src := display.NewScreenSource()
	if ds, err := src.Displays(); err == nil {
		store.Migrate(display.Signature(ds))
	} else {
		log.Warn("无法列出显示器", zap.Error(err))
	}

	// 全局钩子为主，钩子还没收到事件时问适配器要系统光标
	hc := display.NewHookCursor(log.Named("cursor"))
	hc.Start()
	defer hc.Stop()
	cursor := display.Cursors{hc}
	if c, ok := adapter.(display.Cursor); ok {
		cursor = append(cursor, c)
	}

	bus := ipc.NewBus(64)
	defer bus.Close()
	page := content.NewPage(log.Named("content"), bus.Content(), image.Pt(1, 1), canvasOptions(cfg.Canvas, log))

	loop := overlay.NewLoop(log.Named("loop"), time.Duration(cfg.Behavior.FollowInterval))
	intercepts := hotkey.NewIntercepts(log.Named("intercept"), func(code int) {
		loop.Post(func(m *overlay.Machine) { m.Intercepted(code) })
	})
	m := overlay.NewMachine(overlay.Deps{
		Log:        log.Named("overlay"),
		Adapter:    adapter,
		Displays:   src,
		Cursor:     cursor,
		Settings:   store,
		Intercepts: intercepts,
		Scheduler:  loop,
		Bus:        bus,
		Content:    page,
		Forward:    hotkey.Forward,
	})

	a := &app{
		log:      log,
		store:    store,
		loop:     loop,
		displays: src,
		hotkeys:  hotkey.NewManager(log.Named("hotkey")),
		notifier: notify.Muted(notify.NewNotifier(log.Named("notify")), log.Named("notify"), cfg.Behavior.ShowNotification),
		clip:     clipboard.NewClipboard(),
		exporter: storage.NewStorage(cfg.Export.Directory, cfg.Export.Format, cfg.Export.Quality),
		launcher: autostart.New(),
		checker:  update.NewChecker(log.Named("update"), cfg.Update.FeedURL, version),
		capturer: capture.NewCapturer(),
		onScreen: cfg.Export.WithScreen,
	}
	a.autoStart = a.syncAutoStart(cfg.Behavior.AutoStart)
	a.tray = tray.NewPresenter(log.Named("tray"), tray.Actions{
		Toggle:       a.toggle,
		Clear:        func() { loop.Post(func(m *overlay.Machine) { m.Clear() }) },
		LockDisplay:  a.lockDisplay,
		Copy:         func() { a.withAnnotation(a.copyAnnotation) },
		Save:         func() { a.withAnnotation(a.saveAnnotation) },
		SetAutoStart: a.setAutoStart,
		SetHotkey:    func() { go a.promptHotkey() },
		CheckUpdates: func() { go a.checkUpdates() },
		Quit:         func() { a.cancel() },
	})

	if err := a.hotkeys.Register(cfg.Hotkey.Modifiers, cfg.Hotkey.Key, a.toggle); err != nil {
		log.Warn("注册快捷键失败", zap.String("hotkey", cfg.GetHotkeyString()), zap.Error(err))
		a.notifier.Show("快捷键不可用", fmt.Sprintf("%s 可能已被占用，可在托盘菜单中修改", cfg.GetHotkeyString()))
	}
	defer a.hotkeys.Unregister()

	m.Subscribe(func(s overlay.OverlayState) { a.render(m, s) })

	if err := adapter.Start(loop.Sink()); err != nil {
		return fmt.Errorf("启动覆盖层窗口失败: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	a.cancel = cancel

	done := make(chan error, 1)
	go func() {
		err := loop.Run(ctx, m)
		a.tray.Quit()
		done <- err
	}()

	log.Info("screenmark 已启动",
		zap.String("version", version),
		zap.String("hotkey", a.hotkeys.Combo()),
		zap.String("config", path))

	// 托盘阻塞直到退出
	a.tray.Run()
	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("screenmark 已退出")
	return nil
}

func canvasOptions(c config.Canvas, log *zap.Logger) canvas.Options {
	opts := canvas.DefaultOptions()
	if col, err := config.ParseColor(c.PenColor); err == nil {
		opts.PenColor = col
	} else {
		log.Warn("画笔颜色无效，使用默认值", zap.String("color", c.PenColor))
	}
	opts.PenWidth = c.PenWidth
	opts.EraserWidth = c.EraserWidth
	opts.PalmRadius = float64(c.PalmRadius)
	opts.MaxHistory = c.MaxHistory
	return opts
}

func (a *app) toggle() {
	a.loop.Post(func(m *overlay.Machine) { m.Toggle() })
}

func (a *app) lockDisplay(id string) {
	a.loop.Post(func(m *overlay.Machine) {
		if err := m.LockDisplay(id); err != nil {
			a.log.Warn("锁定显示器失败", zap.String("display", id), zap.Error(err))
			// 恢复菜单上的勾选
			a.render(m, m.State())
		}
	})
}

// render 在事件循环上调用
func (a *app) render(m *overlay.Machine, s overlay.OverlayState) {
	displays, err := a.displays.Displays()
	if err != nil {
		displays = nil
	}
	a.mu.Lock()
	auto := a.autoStart
	a.mu.Unlock()

	a.tray.Render(tray.View{
		Drawing:       s.DrawingEnabled,
		Displays:      displays,
		LockedID:      s.LockedDisplayID,
		AutoStart:     auto,
		Hotkey:        a.hotkeys.Combo(),
		HasAnnotation: s.DrawingEnabled || m.Annotation() != nil,
	})
}

func (a *app) refresh() {
	a.loop.Post(func(m *overlay.Machine) { a.render(m, m.State()) })
}

// withAnnotation 在事件循环上取出标注，在后台导出
func (a *app) withAnnotation(fn func(img *image.RGBA)) {
	a.loop.Post(func(m *overlay.Machine) {
		img, bounds := m.Annotation(), m.Display().Bounds
		go func() {
			if img != nil && a.onScreen {
				withScreen, err := capture.Annotated(a.capturer, bounds, img)
				if err != nil {
					a.log.Warn("截屏失败，只导出标注", zap.Error(err))
				} else {
					img = withScreen
				}
			}
			fn(img)
		}()
	})
}

func (a *app) copyAnnotation(img *image.RGBA) {
	if img == nil {
		a.notifier.Show("没有标注", "先画点什么再复制")
		return
	}
	if err := a.clip.SetImage(img); err != nil {
		a.log.Warn("复制标注失败", zap.Error(err))
		a.notifier.Show("复制失败", err.Error())
		return
	}
	a.notifier.Show("已复制", "标注已复制到剪贴板")
}

func (a *app) saveAnnotation(img *image.RGBA) {
	if img == nil {
		a.notifier.Show("没有标注", "先画点什么再保存")
		return
	}
	_ = os.MkdirAll(a.exporter.Directory(), 0755)
	target, err := dialog.File().
		Title("保存标注").
		Filter("PNG 图片", "png").
		Filter("JPEG 图片", "jpg", "jpeg").
		SetStartDir(a.exporter.Directory()).
		Save()
	if errors.Is(err, dialog.ErrCancelled) {
		return
	}

	var path string
	if err != nil {
		// 没有文件对话框时直接存到导出目录
		a.log.Debug("文件对话框不可用", zap.Error(err))
		path, err = a.exporter.Save(img)
	} else {
		path, err = a.exporter.SaveAs(target, img)
	}
	if err != nil {
		a.log.Warn("保存标注失败", zap.Error(err))
		a.notifier.Show("保存失败", err.Error())
		return
	}
	a.log.Info("标注已保存", zap.String("path", path))
	a.notifier.Show("已保存", path)
}

// syncAutoStart 让系统启动项和配置一致，返回实际状态
func (a *app) syncAutoStart(want bool) bool {
	on, err := a.launcher.Enabled()
	if err != nil {
		a.log.Warn("读取开机启动状态失败", zap.Error(err))
	}
	if on == want {
		return on
	}
	if err := autostart.Set(a.launcher, want); err != nil {
		a.log.Warn("设置开机启动失败", zap.Bool("enabled", want), zap.Error(err))
		return on
	}
	return want
}

func (a *app) setAutoStart(enabled bool) {
	if err := autostart.Set(a.launcher, enabled); err != nil {
		a.log.Warn("设置开机启动失败", zap.Bool("enabled", enabled), zap.Error(err))
		a.notifier.Show("设置失败", err.Error())
		return
	}
	a.store.SetAutoStart(enabled)
	a.mu.Lock()
	a.autoStart = enabled
	a.mu.Unlock()
	a.refresh()
}

func (a *app) promptHotkey() {
	input, err := hotkey.Prompt(a.hotkeys.Combo())
	if errors.Is(err, hotkey.ErrPromptUnsupported) {
		a.notifier.Show("设置快捷键", "请使用 screenmark --set-hotkey ctrl+shift+d 修改")
		return
	}
	if err != nil {
		a.log.Warn("快捷键输入框失败", zap.Error(err))
		return
	}
	if input == "" {
		return
	}

	hk, err := config.ParseHotkey(input)
	if err == nil {
		err = hotkey.Validate(hk.Modifiers, hk.Key)
	}
	if err != nil {
		a.notifier.Show("快捷键无效", err.Error())
		return
	}

	err = a.hotkeys.Rebind(hk.Modifiers, hk.Key)
	if errors.Is(err, hotkey.ErrNotRegistered) {
		err = a.hotkeys.Register(hk.Modifiers, hk.Key, a.toggle)
	}
	if err != nil {
		a.notifier.Show("快捷键不可用", err.Error())
		return
	}
	if err := a.store.SetHotkey(hk); err != nil {
		a.log.Warn("保存快捷键失败", zap.Error(err))
	}
	a.notifier.Show("快捷键已更新", tray.FormatHotkey(a.hotkeys.Combo()))
	a.refresh()
}

func (a *app) checkUpdates() {
	if err := a.checker.Check(context.Background()); err != nil && !errors.Is(err, update.ErrNoFeed) {
		a.log.Debug("检查更新结束", zap.Error(err))
	}
}
