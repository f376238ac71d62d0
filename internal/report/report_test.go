package report

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindharmony/mindharmony/internal/advisory"
	"github.com/mindharmony/mindharmony/internal/assessment"
	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/store"
)

var testNow = time.Date(2026, 3, 7, 10, 30, 0, 0, time.UTC)

// submit answers every question of id with values cycled from vals.
func submit(t *testing.T, id instrument.ScaleID, vals ...int) assessment.Result {
	t.Helper()
	s := assessment.New(instrument.MustLookup(id))
	for i := 0; i < s.Len(); i++ {
		require.NoError(t, s.SelectAnswer(vals[i%len(vals)]))
	}
	res, err := s.Submit(testNow)
	require.NoError(t, err)
	return *res
}

// withScore answers so the total equals score.
func withScore(t *testing.T, id instrument.ScaleID, score int) assessment.Result {
	t.Helper()
	s := assessment.New(instrument.MustLookup(id))
	left := score
	for i := 0; i < s.Len(); i++ {
		v := min(left, instrument.MaxOptionValue)
		require.NoError(t, s.SelectAnswer(v))
		left -= v
	}
	require.Zero(t, left, "score %d not reachable", score)
	res, err := s.Submit(testNow)
	require.NoError(t, err)
	return *res
}

func TestAggregateCopiesResults(t *testing.T) {
	res := submit(t, instrument.PHQ9, 1)
	r := Aggregate("小林", res)

	res.Answers[0] = 3
	assert.Equal(t, 1, r.Results()[0].Answers[0])

	got := r.Results()
	got[0].Answers[1] = 3
	assert.Equal(t, 1, r.Results()[0].Answers[1])

	assert.NotEmpty(t, r.ID)
	assert.NotEqual(t, r.ID, Aggregate("小林", res).ID)
}

func TestRowsRederiveSeverity(t *testing.T) {
	res := withScore(t, instrument.PHQ9, 12)
	res.SeverityLabel = "stale label"

	rows := Aggregate("x", res).Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, 14, rows[0].Band.UpperBound)
	assert.NotEqual(t, "stale label", rows[0].Band.Level)
	assert.False(t, rows[0].HighRisk)
}

func TestRowsScenarios(t *testing.T) {
	phq := instrument.MustLookup(instrument.PHQ9)
	gad := instrument.MustLookup(instrument.GAD7)

	tests := []struct {
		name     string
		res      assessment.Result
		want     instrument.Band
		highRisk bool
	}{
		{"phq9 all zero", withScore(t, instrument.PHQ9, 0), phq.LowestBand(), false},
		{"phq9 all three", withScore(t, instrument.PHQ9, 27), phq.HighestBand(), true},
		{"gad7 zero", withScore(t, instrument.GAD7, 0), gad.LowestBand(), false},
		{"gad7 max", withScore(t, instrument.GAD7, 21), gad.HighestBand(), true},
		{"gad7 moderate", withScore(t, instrument.GAD7, 10), gad.Bands[2], true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := Aggregate("x", tt.res).Rows()[0]
			assert.Equal(t, tt.want.Level, row.Band.Level)
			assert.Equal(t, tt.highRisk, row.HighRisk)
		})
	}
}

func TestPayloadHasNoAnswers(t *testing.T) {
	r := Aggregate("小林", submit(t, instrument.PHQ9, 2), submit(t, instrument.GAD7, 1))

	p := r.Payload()
	require.Len(t, p.Summaries, 2)
	assert.Equal(t, "小林", p.DisplayName)
	assert.Equal(t, instrument.PHQ9, p.Summaries[0].ScaleID)
	assert.Equal(t, 18, p.Summaries[0].Score)
	assert.Equal(t, 27, p.Summaries[0].MaxScore)
	assert.NotEmpty(t, p.Summaries[0].SeverityLabel)
	require.NoError(t, p.Validate())

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "answers")
	assert.NotContains(t, string(data), "[2,2,2")
}

func TestAdvisoryStateTransitions(t *testing.T) {
	r := Aggregate("x", submit(t, instrument.GAD7, 0))
	assert.Equal(t, AdvisoryIdle, r.AdvisoryState())

	require.True(t, r.begin())
	assert.False(t, r.begin(), "second begin must not claim the request")
	assert.Equal(t, AdvisoryPending, r.AdvisoryState())

	a := &advisory.Analysis{Summary: "s", CopingStrategies: []string{"a", "b", "c"}}
	require.True(t, r.attach(a))
	assert.False(t, r.attach(&advisory.Analysis{Summary: "other"}))
	assert.Equal(t, "s", r.Analysis().Summary)

	r.fail(ReasonFailed)
	assert.Equal(t, AdvisoryReady, r.AdvisoryState(), "failure after success is ignored")
}

func TestFallbackMessages(t *testing.T) {
	r := Aggregate("x", submit(t, instrument.GAD7, 0))
	r.fail(ReasonNotConfigured)
	assert.Equal(t, NotConfiguredMessage, r.FallbackMessage())
	assert.Nil(t, r.Analysis())

	r2 := Aggregate("x", submit(t, instrument.GAD7, 0))
	r2.fail(ReasonFailed)
	assert.Equal(t, FailedMessage, r2.FallbackMessage())
	assert.Equal(t, AdvisoryUnavailable, r2.AdvisoryState())
}

func TestCrisisNoticeOnlyWhenFlagged(t *testing.T) {
	r := Aggregate("x", submit(t, instrument.PHQ9, 3))
	_, ok := r.CrisisNotice()
	assert.False(t, ok, "no analysis, no notice")

	r.attach(&advisory.Analysis{Summary: "s", CopingStrategies: []string{"a", "b", "c"}})
	_, ok = r.CrisisNotice()
	assert.False(t, ok, "high score alone does not raise the notice")

	r2 := Aggregate("x", submit(t, instrument.PHQ9, 3))
	r2.attach(&advisory.Analysis{Summary: "s", CopingStrategies: []string{"a", "b", "c"}, IsCrisis: true})
	text, ok := r2.CrisisNotice()
	assert.True(t, ok)
	assert.Equal(t, CrisisText, text)
}

func TestStore(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Current())

	created := s.Create("小林")
	assert.Same(t, created, s.Current())
	assert.True(t, created.Empty())
	gen := s.Generation()

	first := s.Append(submit(t, instrument.PHQ9, 0))
	second := s.Append(submit(t, instrument.GAD7, 1))
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "小林", second.Owner)
	assert.Equal(t, 2, second.Len())
	assert.Equal(t, 1, first.Len(), "earlier report is not mutated")
	assert.Equal(t, gen, s.Generation())

	assert.True(t, s.accepts(second))
	assert.False(t, s.accepts(first))

	s.Reset()
	assert.Nil(t, s.Current())
	assert.Greater(t, s.Generation(), gen)
	assert.False(t, s.accepts(second))
}

func TestStoreOwnerSurvivesReset(t *testing.T) {
	s := NewStore()
	s.Create("小林")
	s.Append(submit(t, instrument.PHQ9, 1))
	s.Reset()

	r := s.Append(submit(t, instrument.GAD7, 2))
	assert.Equal(t, 1, r.Len(), "reset starts an empty report")
	assert.Equal(t, "小林", r.Owner)
	assert.Equal(t, "小林", r.Payload().DisplayName)
	assert.Equal(t, "小林", r.Artifact(testNow).User)
}

func TestStoreLogoutForgetsOwner(t *testing.T) {
	s := NewStore()
	s.Create("小林")
	s.Append(submit(t, instrument.PHQ9, 1))
	gen := s.Generation()

	s.Logout()
	assert.Nil(t, s.Current())
	assert.Empty(t, s.Owner())
	assert.Greater(t, s.Generation(), gen)

	r := s.Append(submit(t, instrument.GAD7, 2))
	assert.Empty(t, r.Owner)
	assert.NotEmpty(t, r.CycleID)
}

func TestStoreCycleID(t *testing.T) {
	s := NewStore()
	created := s.Create("小林")
	require.NotEmpty(t, created.CycleID)

	first := s.Append(submit(t, instrument.PHQ9, 1))
	second := s.Append(submit(t, instrument.GAD7, 2))
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, created.CycleID, first.CycleID)
	assert.Equal(t, created.CycleID, second.CycleID)

	s.Reset()
	third := s.Append(submit(t, instrument.GAD7, 0))
	assert.NotEqual(t, second.CycleID, third.CycleID)

	s.Create("阿明")
	fourth := s.Append(submit(t, instrument.GAD7, 0))
	assert.NotEqual(t, third.CycleID, fourth.CycleID)
}

func TestStoreCycleRoundTrip(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "cycle.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	s := NewStore()
	s.Create("小林")
	older := s.Append(submit(t, instrument.PHQ9, 3))
	require.NoError(t, SaveResult(ctx, st.ResultRepo(), older.CycleID, older.Results()[0]))

	s.Reset()
	first := s.Append(submit(t, instrument.PHQ9, 1))
	require.NoError(t, SaveResult(ctx, st.ResultRepo(), first.CycleID, first.Results()[0]))
	second := s.Append(submit(t, instrument.GAD7, 2))
	require.NoError(t, SaveResult(ctx, st.ResultRepo(), second.CycleID, second.Results()[1]))

	recs, err := st.ResultRepo().ListResults(ctx, store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, second.CycleID, recs[0].ReportID, "latest record belongs to the current cycle")

	restored, err := FromRecords("小林", recs[0].ReportID, recs)
	require.NoError(t, err)
	require.Equal(t, 2, restored.Len())
	assert.Equal(t, instrument.PHQ9, restored.Results()[0].ScaleID)
	assert.Equal(t, instrument.GAD7, restored.Results()[1].ScaleID)
}

func TestRecordDropsAnswers(t *testing.T) {
	res := submit(t, instrument.PHQ9, 1)
	rec := Record("rep", res)
	assert.Equal(t, res.ID, rec.ID)
	assert.Equal(t, "rep", rec.ReportID)
	assert.Equal(t, "PHQ-9", rec.ScaleID)
	assert.Equal(t, 9, rec.Score)
	assert.True(t, strings.HasPrefix(rec.CreatedAt.String(), "2026-03-07"))
}

func TestFromRecords(t *testing.T) {
	recs := []store.ResultRecord{
		{ID: "b", ReportID: "rep", ScaleID: "GAD-7", Score: 16, MaxScore: 21, Sequence: 2},
		{ID: "x", ReportID: "other", ScaleID: "PHQ-9", Score: 1, MaxScore: 27, Sequence: 3},
		{ID: "a", ReportID: "rep", ScaleID: "PHQ-9", Score: 12, MaxScore: 27, Sequence: 1},
	}

	r, err := FromRecords("小林", "rep", recs)
	require.NoError(t, err)
	assert.Equal(t, "rep", r.ID)
	assert.Equal(t, "rep", r.CycleID)
	assert.Equal(t, "小林", r.Owner)

	results := r.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "中度抑郁", results[0].SeverityLabel)
	assert.Equal(t, "重度焦虑", results[1].SeverityLabel)
	assert.Nil(t, results[1].Answers)

	_, err = FromRecords("", "missing", recs)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = FromRecords("", "bad", []store.ResultRecord{{ID: "z", ReportID: "bad", ScaleID: "BDI"}})
	assert.Error(t, err)
}
