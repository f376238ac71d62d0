package questionnaire

import (
	"context"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindharmony/mindharmony/internal/assessment"
	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/report"
	"github.com/mindharmony/mindharmony/internal/router"
	"github.com/mindharmony/mindharmony/internal/screen"
	"github.com/mindharmony/mindharmony/internal/store"
	"github.com/mindharmony/mindharmony/internal/ui/components"
)

type reportScreen struct{ r *report.Report }

func (s *reportScreen) Init() tea.Cmd                          { return nil }
func (s *reportScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *reportScreen) View(int, int) string                   { return "report" }
func (s *reportScreen) Title() string                          { return "Report" }

func newTestScreen(t *testing.T, id instrument.ScaleID, results store.ResultRepo) (*QuestionnaireScreen, *report.Store) {
	t.Helper()
	reports := report.NewStore()
	reports.Create("小林")
	s := New(instrument.MustLookup(id), reports, results, func(r *report.Report) screen.Screen {
		return &reportScreen{r: r}
	})
	return s, reports
}

// choose drives the Likert component the way a keypress does.
func choose(t *testing.T, s *QuestionnaireScreen, value int) tea.Cmd {
	t.Helper()
	_, cmd := s.Update(tea.KeyPressMsg{Code: rune('0' + value), Text: string(rune('0' + value))})
	require.NotNil(t, cmd, "digit key should choose an option")
	_, next := s.Update(cmd())
	return next
}

// collect runs cmd and flattens batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestAnswerAdvances(t *testing.T) {
	s, _ := newTestScreen(t, instrument.PHQ9, nil)

	choose(t, s, 2)
	assert.Equal(t, 1, s.Session().Current())
	assert.Equal(t, 2, s.Session().Answer(0))
	assert.Len(t, s.Session().Answers(), 9)
}

func TestBackKeepsAnswerAndHighlightsIt(t *testing.T) {
	s, _ := newTestScreen(t, instrument.GAD7, nil)
	choose(t, s, 3)

	s.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	assert.Equal(t, 0, s.Session().Current())
	assert.Equal(t, 3, s.choice.Current)

	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	assert.Equal(t, 1, s.Session().Current())

	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	assert.Equal(t, 1, s.Session().Current(), "cannot move past the furthest visited question")
	assert.Equal(t, incompleteNotice, s.notice)
}

func TestLastAnswerSubmitsAndReplaces(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	s, reports := newTestScreen(t, instrument.GAD7, st.ResultRepo())
	var cmd tea.Cmd
	for i := 0; i < 7; i++ {
		cmd = choose(t, s, 1)
	}
	require.NotNil(t, cmd)
	assert.Equal(t, assessment.StateCompleted, s.Session().State())

	var replaced *router.ReplaceScreenMsg
	for _, msg := range collect(cmd) {
		switch m := msg.(type) {
		case router.ReplaceScreenMsg:
			replaced = &m
		case resultSavedMsg:
			assert.NoError(t, m.Err)
		}
	}
	require.NotNil(t, replaced)

	rep := replaced.Screen.(*reportScreen).r
	assert.Same(t, reports.Current(), rep)
	require.Equal(t, 1, rep.Len())
	assert.Equal(t, 7, rep.Results()[0].Score)
	assert.Equal(t, "小林", rep.Owner)

	stored, err := st.ResultRepo().ListResults(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, rep.CycleID, stored[0].ReportID)
}

func TestSubmitIncompleteRecovers(t *testing.T) {
	s, reports := newTestScreen(t, instrument.PHQ9, nil)
	choose(t, s, 0)
	choose(t, s, 0)

	_, cmd := s.Update(tea.KeyPressMsg{Code: 's', Text: "s"})
	assert.Nil(t, cmd)
	assert.Equal(t, 2, s.Session().Current())
	assert.Equal(t, incompleteNotice, s.notice)
	assert.Equal(t, assessment.StateInProgress, s.Session().State())
	assert.Equal(t, 0, reports.Current().Len())
}

func TestQuitConfirmCancelsSession(t *testing.T) {
	s, reports := newTestScreen(t, instrument.PHQ9, nil)
	choose(t, s, 2)

	assert.Nil(t, s.Back())
	assert.True(t, s.confirmQuit)

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'n', Text: "n"})
	assert.Nil(t, cmd)
	assert.False(t, s.confirmQuit)

	s.Back()
	_, cmd = s.Update(tea.KeyPressMsg{Code: 'y', Text: "y"})
	require.NotNil(t, cmd)
	assert.IsType(t, router.PopScreenMsg{}, cmd())
	assert.Equal(t, assessment.StateCancelled, s.Session().State())
	assert.Equal(t, 0, reports.Current().Len())
}

func TestLikertChosenMsgRejectsUnknownValue(t *testing.T) {
	s, _ := newTestScreen(t, instrument.PHQ9, nil)
	s.Update(components.LikertChosenMsg{Value: 7})
	assert.NotEmpty(t, s.notice)
	assert.Equal(t, 0, s.Session().Current())
	assert.Nil(t, s.fatal)
}

func TestViewShowsQuestion(t *testing.T) {
	s, _ := newTestScreen(t, instrument.GAD7, nil)
	view := s.View(100, 40)
	assert.Contains(t, view, "第 1 / 7 题")
	assert.Equal(t, "GAD-7", s.Title())
}
