// Package summary shows the current report: per-instrument score cards,
// the advisory panel and export actions.
package summary

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/mindharmony/mindharmony/internal/report"
	"github.com/mindharmony/mindharmony/internal/router"
	"github.com/mindharmony/mindharmony/internal/screen"
	"github.com/mindharmony/mindharmony/internal/ui/layout"
)

const spinnerInterval = 120 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Deps are the services the report screen uses. Advisor may be nil, in
// which case no analysis is requested.
type Deps struct {
	Reports   *report.Store
	Advisor   *report.Advisor
	ExportDir string
}

// SummaryScreen displays one report.
type SummaryScreen struct {
	report *report.Report
	deps   Deps
	now    func() time.Time

	frame     int
	status    string
	statusErr bool
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a report screen for r.
func New(r *report.Report, deps Deps) *SummaryScreen {
	return &SummaryScreen{report: r, deps: deps, now: time.Now}
}

// Report returns the report being shown.
func (s *SummaryScreen) Report() *report.Report {
	return s.report
}

// Init dispatches the advisory request. Scores are already rendered
// synchronously; the analysis arrives later as an advisoryDoneMsg.
func (s *SummaryScreen) Init() tea.Cmd {
	if s.deps.Advisor == nil || s.report == nil {
		return nil
	}
	done := make(chan report.Outcome, 1)
	ok := s.deps.Advisor.RequestAdvisory(context.Background(), s.report, func(o report.Outcome) {
		done <- o
	})
	if !ok {
		return nil
	}
	return tea.Batch(
		func() tea.Msg { return advisoryDoneMsg{Outcome: <-done} },
		spinnerTick(),
	)
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

func (s *SummaryScreen) Title() string {
	return "测评报告"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	if s.report == nil || s.report.Empty() {
		return []layout.KeyHint{{Key: "Esc", Description: "返回"}}
	}
	return []layout.KeyHint{
		{Key: "E", Description: "导出 JSON"},
		{Key: "M", Description: "导出 Markdown"},
		{Key: "H", Description: "导出 HTML"},
		{Key: "R", Description: "重新开始"},
		{Key: "Esc", Description: "返回"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case advisoryDoneMsg:
		// State lives on the report; this message only triggers a redraw.
		return s, nil

	case spinnerTickMsg:
		if s.report == nil || s.report.AdvisoryState() != report.AdvisoryPending {
			return s, nil
		}
		s.frame++
		return s, spinnerTick()

	case exportDoneMsg:
		if msg.Err != nil {
			s.status = fmt.Sprintf("导出失败: %v", msg.Err)
			s.statusErr = true
		} else {
			s.status = "已导出到 " + msg.Path
			s.statusErr = false
		}
		return s, nil

	case tea.KeyMsg:
		if s.report == nil || s.report.Empty() {
			return s, nil
		}
		switch msg.String() {
		case "e", "E":
			return s, s.export(report.FormatJSON)
		case "m", "M":
			return s, s.export(report.FormatMarkdown)
		case "h", "H":
			return s, s.export(report.FormatHTML)
		case "r", "R":
			if s.deps.Reports != nil {
				s.deps.Reports.Reset()
			}
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) export(f report.Format) tea.Cmd {
	r, dir, now := s.report, s.deps.ExportDir, s.now()
	return func() tea.Msg {
		path, err := report.Export(context.Background(), r, dir, f, now)
		return exportDoneMsg{Path: path, Err: err}
	}
}
