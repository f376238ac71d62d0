package summary

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mindharmony/mindharmony/internal/report"
	"github.com/mindharmony/mindharmony/internal/ui/components"
	"github.com/mindharmony/mindharmony/internal/ui/theme"
)

const emptyReport = "还没有完成任何测评。请先从主菜单选择一项量表。"

func (s *SummaryScreen) View(width, height int) string {
	if s.report == nil || s.report.Empty() {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  " + emptyReport)
	}

	cw := components.ContentWidth(width)
	var sections []string

	title := "你的测评结果"
	if s.report.Owner != "" {
		title = s.report.Owner + "，这是你的测评结果"
	}
	sections = append(sections, theme.Title.Width(cw).Render(title))

	if notice, ok := s.report.CrisisNotice(); ok {
		sections = append(sections, renderCrisis(notice, cw))
	}

	for _, row := range s.report.Rows() {
		sections = append(sections, renderRow(row, cw))
	}

	sections = append(sections, s.renderAdvisory(cw))

	if s.status != "" {
		style := lipgloss.NewStyle().Foreground(theme.Success)
		if s.statusErr {
			style = theme.Warning
		}
		sections = append(sections, style.Render(s.status))
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(sections, "\n"))
}

func renderRow(row report.Row, cw int) string {
	head := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(row.Title) +
		"  " + theme.Badge(row.Band.Level, row.Band.Color)
	score := lipgloss.NewStyle().Foreground(theme.BandColor(row.Band.Color)).Bold(true).
		Render(fmt.Sprintf("%d / %d", row.Score, row.MaxScore))
	advice := lipgloss.NewStyle().Foreground(theme.TextDim).Width(cw - 6).Render(row.Band.Advice)

	return components.AccentCard(head+"\n"+score+"\n"+advice, row.Band.Color, cw)
}

func renderCrisis(text string, cw int) string {
	body := theme.Warning.Render("⚠ "+report.CrisisTitle) + "\n" +
		lipgloss.NewStyle().Width(cw-6).Render(text)
	return theme.Crisis.Width(cw - 2).Render(body)
}

func (s *SummaryScreen) renderAdvisory(cw int) string {
	heading := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("AI 建议")
	wrap := lipgloss.NewStyle().Width(cw - 6)

	var body string
	switch s.report.AdvisoryState() {
	case report.AdvisoryPending:
		frame := spinnerFrames[s.frame%len(spinnerFrames)]
		body = theme.Hint.Render(frame + " 正在生成个性化建议...")
	case report.AdvisoryReady:
		a := s.report.Analysis()
		var b strings.Builder
		b.WriteString(wrap.Foreground(theme.Text).Render(a.Summary))
		b.WriteString("\n")
		for i, strategy := range a.CopingStrategies {
			b.WriteString("\n")
			b.WriteString(wrap.Foreground(theme.Text).Render(fmt.Sprintf("%d. %s", i+1, strategy)))
		}
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render(report.AIDisclaimer))
		body = b.String()
	case report.AdvisoryUnavailable:
		body = lipgloss.NewStyle().Foreground(theme.Accent).Render(s.report.FallbackMessage())
	default:
		body = theme.Hint.Render("AI 建议未启用。")
	}

	return components.Card(heading+"\n\n"+body, cw)
}
