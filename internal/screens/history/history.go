package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/router"
	"github.com/mindharmony/mindharmony/internal/scoring"
	"github.com/mindharmony/mindharmony/internal/screen"
	"github.com/mindharmony/mindharmony/internal/store"
	"github.com/mindharmony/mindharmony/internal/ui/layout"
	"github.com/mindharmony/mindharmony/internal/ui/theme"
)

// PageSize is the number of results loaded.
const PageSize = 50

type historyLoadedMsg struct {
	Results []store.ResultRecord
	Err     error
}

// HistoryScreen lists stored score summaries, newest first.
type HistoryScreen struct {
	results  store.ResultRepo
	records  []store.ResultRecord
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(results store.ResultRepo) *HistoryScreen {
	return &HistoryScreen{
		results:  results,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.results
	return func() tea.Msg {
		if repo == nil {
			return historyLoadedMsg{}
		}
		recs, err := repo.ListResults(context.Background(), store.QueryOpts{Limit: PageSize})
		return historyLoadedMsg{Results: recs, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "历史记录"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "详情"},
		{Key: "↑↓", Description: "浏览"},
		{Key: "Esc", Description: "返回"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.records = msg.Results
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.records)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\n出错了: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  正在加载历史记录...")
	}
	if len(s.records) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  暂无历史记录。")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, rec := range s.records {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		// Severity is derived from the stored score; no label is persisted.
		band, ok := classify(rec)
		level := "未知量表"
		if ok {
			level = band.Level
		}

		line := fmt.Sprintf("%s%s  %-6s  %2d / %-2d  ",
			prefix, rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.ScaleID, rec.Score, rec.MaxScore)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			style.Render(line)+theme.Badge(level, band.Color)))
		b.WriteString("\n")

		if s.expanded[i] && ok {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).
					Render("    "+band.Advice)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func classify(rec store.ResultRecord) (instrument.Band, bool) {
	schema, err := instrument.Lookup(instrument.ScaleID(rec.ScaleID))
	if err != nil {
		return instrument.Band{}, false
	}
	band, err := scoring.Classify(schema, rec.Score)
	if err != nil {
		return instrument.Band{}, false
	}
	return band, true
}
