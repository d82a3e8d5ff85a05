package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"screenmark/internal/config"
	"screenmark/internal/display"
	"screenmark/internal/hotkey"
)

// version 发布时通过 -ldflags "-X main.version=..." 覆盖
var version = "1.0.0"

type options struct {
	version      bool
	showConfig   bool
	listDisplays bool
	lockDisplay  string
	setHotkey    string
	debug        bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "screenmark",
		Short:         "屏幕标注工具：在任意显示器上用画笔圈点，翻页笔按键自动收起",
		Long: `屏幕标注工具：在任意显示器上用画笔圈点，翻页笔按键自动收起。

覆盖层窗口目前只在 Windows 上实现。macOS 和 Linux 上托盘、快捷键、
剪贴板和导出照常工作，但覆盖层以无窗口模式运行，窗口操作只写进日志，
dock 压制（kiosk）和穿透重设也不会作用到真实窗口。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := opts.run(cmd)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "错误:", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.version, "version", false, "显示版本信息")
	f.BoolVar(&opts.showConfig, "config", false, "显示配置文件路径")
	f.BoolVar(&opts.listDisplays, "list-displays", false, "列出当前连接的显示器")
	f.StringVar(&opts.lockDisplay, "lock-display", "", "锁定到显示器 ID，auto 表示跟随光标")
	f.StringVar(&opts.setHotkey, "set-hotkey", "", "设置快捷键，格式：ctrl+shift+d（"+hotkey.Usage()+"）")
	f.BoolVar(&opts.debug, "debug", false, "调试模式，日志输出到终端")
	return cmd
}

func (o *options) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	if o.version {
		fmt.Fprintf(out, "screenmark v%s\n", version)
		return nil
	}
	if o.showConfig {
		fmt.Fprintln(out, "配置文件路径:", config.GetConfigPath())
		return nil
	}

	config.LoadEnv()

	switch {
	case o.listDisplays:
		return listDisplays(cmd, display.NewScreenSource())
	case o.lockDisplay != "":
		return lockDisplay(cmd, display.NewScreenSource(), config.GetConfigPath(), o.lockDisplay)
	case o.setHotkey != "":
		return setHotkey(cmd, config.GetConfigPath(), o.setHotkey)
	}

	var runErr error
	// 全局快捷键要求主线程
	hotkey.Run(func() {
		runErr = runApp(o.debug)
	})
	return runErr
}

func listDisplays(cmd *cobra.Command, src display.Source) error {
	displays, err := src.Displays()
	if err != nil {
		return err
	}
	locked := config.NewStore(config.GetConfigPath(), zap.NewNop()).LockedDisplay()
	for i, d := range displays {
		var marks []string
		if d.Primary {
			marks = append(marks, "主显示器")
		}
		if d.ID == locked {
			marks = append(marks, "已锁定")
		}
		line := fmt.Sprintf("%d  %-22s %dx%d", i+1, d.ID, d.Bounds.Dx(), d.Bounds.Dy())
		if len(marks) > 0 {
			line += "  (" + strings.Join(marks, ", ") + ")"
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func lockDisplay(cmd *cobra.Command, src display.Source, path, id string) error {
	store := config.NewStore(path, zap.NewNop())
	if strings.EqualFold(id, "auto") {
		if err := store.SaveLockedDisplay(""); err != nil {
			return fmt.Errorf("保存配置失败: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "已恢复跟随光标")
		return nil
	}
	displays, err := src.Displays()
	if err != nil {
		return err
	}
	if _, ok := display.Find(displays, id); !ok {
		return fmt.Errorf("未知的显示器 %q，可用 --list-displays 查看", id)
	}
	if err := store.SaveLockedDisplay(id); err != nil {
		return fmt.Errorf("保存配置失败: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "已锁定到显示器:", id)
	return nil
}

func setHotkey(cmd *cobra.Command, path, chord string) error {
	hk, err := config.ParseHotkey(chord)
	if err != nil {
		return err
	}
	if err := hotkey.Validate(hk.Modifiers, hk.Key); err != nil {
		return err
	}
	if err := config.NewStore(path, zap.NewNop()).SetHotkey(hk); err != nil {
		return fmt.Errorf("保存配置失败: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "快捷键已设置为:", chord)
	return nil
}
