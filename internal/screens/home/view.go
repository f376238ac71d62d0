package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/ui/theme"
)

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 34

func renderGreeting(nickname string, cw int, compact bool) string {
	title := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).
		Render(fmt.Sprintf("你好，%s", nickname))
	if compact {
		return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(title)
	}
	sub := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render("花几分钟了解一下最近的状态吧。")
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(title + "\n" + sub)
}

// renderStatusBar shows how many instruments are in the current report.
func renderStatusBar(completed int, admin bool, cw int) string {
	total := len(instrument.AllScaleIDs())
	text := fmt.Sprintf("本次已完成 %d / %d 项测评", completed, total)
	if admin {
		text += "   ·   管理员"
	}
	return lipgloss.NewStyle().
		Width(cw - 2).
		Align(lipgloss.Center).
		Foreground(theme.Secondary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(text)
}

// renderMenu renders each menu item as a fixed-width button.
func renderMenu(items []string, selected int, cw int) string {
	selectedBtn := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(theme.Text).
		Background(theme.Primary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Padding(0, 1)

	normalBtn := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	var buttons []string
	for i, label := range items {
		if i == selected {
			buttons = append(buttons, selectedBtn.Render("▸ "+label))
		} else {
			buttons = append(buttons, normalBtn.Render(label))
		}
	}

	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(buttons, "\n"))
}

// renderMenuCompact renders menu items as plain lines for small terminals
// where bordered buttons would overflow.
func renderMenuCompact(items []string, selected int, cw int) string {
	var lines []string
	for i, label := range items {
		if i == selected {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(theme.Text).
				Background(theme.Primary).
				Bold(true).
				Render(" ▸ "+label+" "))
		} else {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(theme.Text).
				Render("   "+label))
		}
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(lines, "\n"))
}

// renderAdvisoryBanner notes that results will show without AI advice.
func renderAdvisoryBanner(cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Accent).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ 未配置 AI 服务，报告中将不包含个性化建议（见 mindharmony --help）")
}

func renderError(msg string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Error).
		Width(cw).
		Align(lipgloss.Center).
		Render("出错了: " + msg)
}

// renderUpdateNote renders a dim one-line update notification.
func renderUpdateNote(latestVersion string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Width(cw).
		Align(lipgloss.Center).
		Render(fmt.Sprintf("新版本 %s 可用，运行 mindharmony update 升级", latestVersion))
}
