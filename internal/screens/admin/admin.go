// Package admin renders the aggregate dashboard unlocked by the admin
// nickname.
package admin

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/report"
	"github.com/mindharmony/mindharmony/internal/router"
	"github.com/mindharmony/mindharmony/internal/screen"
	"github.com/mindharmony/mindharmony/internal/store"
	"github.com/mindharmony/mindharmony/internal/ui/components"
	"github.com/mindharmony/mindharmony/internal/ui/layout"
	"github.com/mindharmony/mindharmony/internal/ui/theme"
)

type statsLoadedMsg struct {
	Stats report.Stats
	Err   error
}

// AdminScreen shows de-identified totals computed from stored summaries.
type AdminScreen struct {
	results store.ResultRepo
	stats   report.Stats
	loaded  bool
	errMsg  string
}

var _ screen.Screen = (*AdminScreen)(nil)
var _ screen.KeyHintProvider = (*AdminScreen)(nil)

func New(results store.ResultRepo) *AdminScreen {
	return &AdminScreen{results: results}
}

func (s *AdminScreen) Init() tea.Cmd {
	return s.load()
}

func (s *AdminScreen) load() tea.Cmd {
	repo := s.results
	return func() tea.Msg {
		if repo == nil {
			return statsLoadedMsg{}
		}
		hist, err := repo.ScoreHistogram(context.Background())
		if err != nil {
			return statsLoadedMsg{Err: err}
		}
		return statsLoadedMsg{Stats: report.ComputeStats(hist)}
	}
}

func (s *AdminScreen) Title() string {
	return "管理员面板"
}

func (s *AdminScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "R", Description: "刷新"},
		{Key: "Esc", Description: "返回"},
	}
}

func (s *AdminScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.stats = msg.Stats
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r", "R":
			return s, s.load()
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *AdminScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\n出错了: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  正在统计...")
	}

	cw := components.ContentWidth(width)
	var sections []string

	notice := lipgloss.NewStyle().Foreground(theme.Accent).Width(cw - 6).Render(report.AdminNotice)
	sections = append(sections, components.AccentCard(notice, "#f59e0b", cw))

	phq := s.stats.Scale(instrument.PHQ9)
	counters := []string{
		counter("总测评数", fmt.Sprintf("%d", s.stats.Total), theme.Primary),
		counter("PHQ-9 平均分", fmt.Sprintf("%.1f", phq.Average), theme.Secondary),
		counter("标记为高风险", fmt.Sprintf("%d", s.stats.HighRisk), theme.Error),
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, counters...))

	for _, id := range instrument.AllScaleIDs() {
		sections = append(sections, renderScale(s.stats.Scale(id), cw))
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(sections, "\n"))
}

func counter(label, value string, c color.Color) string {
	body := lipgloss.NewStyle().Foreground(c).Bold(true).Render(value) + "\n" +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(label)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(22).
		Align(lipgloss.Center).
		Render(body)
}

func renderScale(sc report.ScaleStats, cw int) string {
	schema := instrument.MustLookup(sc.ScaleID)
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).
		Render(fmt.Sprintf("%s  共 %d 次  平均 %.1f  高风险 %d", schema.ShortName, sc.Count, sc.Average, sc.HighRisk)))
	for _, band := range schema.Bands {
		n := 0
		if band.Rank < len(sc.Bands) {
			n = sc.Bands[band.Rank]
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s %d", theme.Badge(band.Level, band.Color), n))
	}
	return components.Card(b.String(), cw)
}
