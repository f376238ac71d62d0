package questionnaire

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mindharmony/mindharmony/internal/ui/components"
	"github.com/mindharmony/mindharmony/internal/ui/theme"
)

func (s *QuestionnaireScreen) View(width, height int) string {
	if s.fatal != nil {
		return renderError(width, s.fatal.Error())
	}
	if s.confirmQuit {
		return renderQuitConfirm(width)
	}
	return s.renderQuestion(width, height)
}

func (s *QuestionnaireScreen) renderQuestion(width, height int) string {
	cw := components.ContentWidth(width)
	schema := s.session.Schema()
	n := s.session.Len()
	i := s.session.Current()

	var b strings.Builder

	b.WriteString(theme.Title.Width(cw).Render(schema.Title))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(cw).Render(schema.Description))
	b.WriteString("\n\n")

	progress := float64(s.session.Answered()) / float64(n)
	b.WriteString(components.NewProgressBar(fmt.Sprintf("第 %d / %d 题", i+1, n), progress, true, cw).View())
	b.WriteString("\n\n")

	q := s.session.Question()
	body := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(cw - 6).Render(q.Text) +
		"\n\n" + s.choice.View()
	b.WriteString(components.Card(body, cw))

	if s.session.IsLast() {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("这是最后一题，作答后将自动提交。"))
	}
	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render(s.notice))
	}

	return components.Center(b.String(), width, height)
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("确定要退出本次测评吗？"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("已作答的内容不会被保存。"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render("[Y] 放弃并返回"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Success).
		Render("[N] 继续作答"))

	return b.String()
}

func renderError(width int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\n  出错了: %s\n\n  按任意键返回。", errMsg))
}
