//go:build windows

package hotkey

import (
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// Prompt 弹出输入框让用户输入新的组合键，返回 "ctrl+shift+d" 形式；取消时返回空串
// 使用 PowerShell InputBox，避免在托盘线程上跑 Windows GUI
func Prompt(current string) (string, error) {
	script := fmt.Sprintf(`
Add-Type -AssemblyName Microsoft.VisualBasic
$msg = "请输入切换画笔的快捷键" + [char]10 + [char]10 + "格式: 修饰键+主键，例如 ctrl+shift+d" + [char]10 + [char]10 + "%s"
$result = [Microsoft.VisualBasic.Interaction]::InputBox($msg, "设置快捷键", "%s")
Write-Output $result
`, Usage(), strings.ReplaceAll(current, `"`, ""))

	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("PowerShell 执行失败: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(string(output))), nil
}
