// Package questionnaire implements the question-by-question screen for one
// screening instrument.
package questionnaire

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/mindharmony/mindharmony/internal/assessment"
	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/report"
	"github.com/mindharmony/mindharmony/internal/router"
	"github.com/mindharmony/mindharmony/internal/screen"
	"github.com/mindharmony/mindharmony/internal/store"
	"github.com/mindharmony/mindharmony/internal/ui/components"
	"github.com/mindharmony/mindharmony/internal/ui/layout"
)

const incompleteNotice = "还有题目未作答，请先完成这一题。"

// QuestionnaireScreen drives an assessment.Session.
type QuestionnaireScreen struct {
	session  *assessment.Session
	reports  *report.Store
	results  store.ResultRepo
	onSubmit func(*report.Report) screen.Screen
	now      func() time.Time

	choice      components.Likert
	confirmQuit bool
	notice      string
	fatal       error
}

var _ screen.Screen = (*QuestionnaireScreen)(nil)
var _ screen.KeyHintProvider = (*QuestionnaireScreen)(nil)
var _ screen.BackHandler = (*QuestionnaireScreen)(nil)

// New starts a session for schema. Submitted results are appended to
// reports and, when results is non-nil, stored as summaries. onSubmit
// builds the screen that replaces this one.
func New(schema *instrument.Schema, reports *report.Store, results store.ResultRepo, onSubmit func(*report.Report) screen.Screen) *QuestionnaireScreen {
	s := &QuestionnaireScreen{
		session:  assessment.New(schema),
		reports:  reports,
		results:  results,
		onSubmit: onSubmit,
		now:      time.Now,
	}
	s.syncChoice()
	return s
}

// Session exposes the underlying session.
func (s *QuestionnaireScreen) Session() *assessment.Session {
	return s.session
}

func (s *QuestionnaireScreen) Init() tea.Cmd {
	return nil
}

func (s *QuestionnaireScreen) Title() string {
	return s.session.Schema().ShortName
}

func (s *QuestionnaireScreen) KeyHints() []layout.KeyHint {
	if s.confirmQuit {
		return []layout.KeyHint{
			{Key: "Y", Description: "放弃本次测评"},
			{Key: "N", Description: "继续作答"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓/0-3", Description: "选择"},
		{Key: "←→", Description: "上一题/下一题"},
		{Key: "S", Description: "提交"},
		{Key: "Esc", Description: "退出"},
	}
}

// Back asks for confirmation before the answers are discarded.
func (s *QuestionnaireScreen) Back() tea.Cmd {
	if s.session.State().Terminal() {
		return func() tea.Msg { return router.PopScreenMsg{} }
	}
	s.confirmQuit = !s.confirmQuit
	return nil
}

func (s *QuestionnaireScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resultSavedMsg:
		if msg.Err != nil {
			slog.Warn("store result failed", "error", msg.Err)
		}
		return s, nil

	case components.LikertChosenMsg:
		return s.answer(msg.Value)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *QuestionnaireScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.fatal != nil {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	if s.confirmQuit {
		switch msg.String() {
		case "y", "Y":
			if err := s.session.Cancel(); err != nil {
				s.fatal = err
				return s, nil
			}
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	switch msg.String() {
	case "left", "h", "backspace":
		if err := s.session.NavigateBack(); err != nil {
			s.fatal = err
			return s, nil
		}
		s.notice = ""
		s.syncChoice()
		return s, nil
	case "right", "l":
		err := s.session.NavigateForward()
		if errors.Is(err, assessment.ErrNotVisited) {
			s.notice = incompleteNotice
			return s, nil
		}
		if err != nil {
			s.fatal = err
			return s, nil
		}
		s.notice = ""
		s.syncChoice()
		return s, nil
	case "s", "S":
		return s.submit()
	}

	var cmd tea.Cmd
	s.choice, cmd = s.choice.Update(msg)
	return s, cmd
}

func (s *QuestionnaireScreen) answer(value int) (screen.Screen, tea.Cmd) {
	wasLast := s.session.IsLast()
	if err := s.session.SelectAnswer(value); err != nil {
		var invalid *assessment.InvalidAnswerError
		if errors.As(err, &invalid) {
			s.notice = err.Error()
			return s, nil
		}
		s.fatal = err
		return s, nil
	}
	s.notice = ""
	s.syncChoice()

	if wasLast {
		return s.submit()
	}
	return s, nil
}

func (s *QuestionnaireScreen) submit() (screen.Screen, tea.Cmd) {
	res, err := s.session.Submit(s.now())
	if err != nil {
		if s.session.Recover(err) {
			s.notice = incompleteNotice
			s.syncChoice()
			return s, nil
		}
		s.fatal = err
		return s, nil
	}

	rep := s.reports.Append(*res)
	next := s.onSubmit(rep)

	cmds := []tea.Cmd{func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }}
	if s.results != nil {
		results, reportID, saved := s.results, rep.CycleID, res.Clone()
		cmds = append(cmds, func() tea.Msg {
			return resultSavedMsg{Err: report.SaveResult(context.Background(), results, reportID, saved)}
		})
	}
	return s, tea.Batch(cmds...)
}

func (s *QuestionnaireScreen) syncChoice() {
	if s.session.State().Terminal() {
		return
	}
	q := s.session.Question()
	s.choice = components.NewLikert(q.Options, s.session.Answer(s.session.Current()))
}
