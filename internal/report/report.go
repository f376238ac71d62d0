// Package report aggregates submitted results into a report, fetches the
// advisory analysis for it at most once, and exports it.
package report

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindharmony/mindharmony/internal/advisory"
	"github.com/mindharmony/mindharmony/internal/assessment"
	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/scoring"
)

// AdvisoryState tracks the advisory analysis of one report.
type AdvisoryState int

const (
	AdvisoryIdle        AdvisoryState = iota // not requested
	AdvisoryPending                          // request in flight
	AdvisoryReady                            // analysis attached
	AdvisoryUnavailable                      // request failed; see UnavailableReason
)

func (s AdvisoryState) String() string {
	switch s {
	case AdvisoryIdle:
		return "idle"
	case AdvisoryPending:
		return "pending"
	case AdvisoryReady:
		return "ready"
	case AdvisoryUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// UnavailableReason says why no analysis is shown.
type UnavailableReason int

const (
	ReasonNone UnavailableReason = iota
	ReasonNotConfigured
	ReasonFailed
)

// Fallback text shown in place of an analysis.
const (
	NotConfiguredMessage = "缺少 API Key，无法使用 AI 分析功能。"
	FailedMessage        = "无法生成分析报告。"
	AIDisclaimer         = "AI 生成内容仅供参考。请始终以专业医生的建议为准。"
)

// Crisis banner shown when the analysis flags acute distress.
const (
	CrisisTitle = "建议立即关注"
	CrisisText  = "您的测评结果显示您可能正经历一段非常艰难的时期。请务必考虑今天就去学校健康中心或心理咨询室寻求帮助。"
)

// Report is an immutable set of results for one owner plus the advisory
// analysis, which is attached at most once. ID is unique per report value;
// CycleID is shared by every report of one assessment visit and is the id
// results are stored under.
type Report struct {
	ID        string
	CycleID   string
	Owner     string
	CreatedAt time.Time

	results    []assessment.Result
	generation uint64

	mu        sync.Mutex
	requested bool
	state     AdvisoryState
	reason    UnavailableReason
	analysis  *advisory.Analysis
}

// Aggregate builds a new report with a fresh identity. Results are copied.
func Aggregate(owner string, results ...assessment.Result) *Report {
	r := newReport(owner, "", 0, results)
	r.CycleID = r.ID
	return r
}

func newReport(owner, cycleID string, generation uint64, results []assessment.Result) *Report {
	copied := make([]assessment.Result, len(results))
	for i, r := range results {
		copied[i] = r.Clone()
	}
	return &Report{
		ID:         uuid.NewString(),
		CycleID:    cycleID,
		Owner:      owner,
		CreatedAt:  time.Now(),
		results:    copied,
		generation: generation,
	}
}

// Results returns copies of the report's results in submission order.
func (r *Report) Results() []assessment.Result {
	out := make([]assessment.Result, len(r.results))
	for i, res := range r.results {
		out[i] = res.Clone()
	}
	return out
}

// Len returns the number of results.
func (r *Report) Len() int { return len(r.results) }

// Empty reports whether the report has no results.
func (r *Report) Empty() bool { return len(r.results) == 0 }

// Row is one result prepared for display.
type Row struct {
	ResultID  string
	ScaleID   instrument.ScaleID
	Title     string
	ShortName string
	Score     int
	MaxScore  int
	Band      instrument.Band
	HighRisk  bool
	Timestamp time.Time
}

// Rows classifies every result from its schema and score. The severity label
// stored on a result is not consulted.
func (r *Report) Rows() []Row {
	rows := make([]Row, 0, len(r.results))
	for _, res := range r.results {
		s := instrument.MustLookup(res.ScaleID)
		rows = append(rows, Row{
			ResultID:  res.ID,
			ScaleID:   res.ScaleID,
			Title:     s.Title,
			ShortName: s.ShortName,
			Score:     res.Score,
			MaxScore:  res.MaxScore,
			Band:      scoring.MustClassify(s, res.Score),
			HighRisk:  scoring.IsHighRisk(s, res.Score),
			Timestamp: res.Timestamp,
		})
	}
	return rows
}

// AnyHighRisk reports whether some result falls in a high-risk band.
func (r *Report) AnyHighRisk() bool {
	for _, row := range r.Rows() {
		if row.HighRisk {
			return true
		}
	}
	return false
}

// Payload is the advisory request for this report. It carries score
// summaries and the display name only.
func (r *Report) Payload() advisory.Request {
	req := advisory.Request{
		DisplayName: r.Owner,
		Summaries:   make([]advisory.Summary, 0, len(r.results)),
	}
	for _, row := range r.Rows() {
		req.Summaries = append(req.Summaries, advisory.Summary{
			ScaleID:       row.ScaleID,
			Score:         row.Score,
			MaxScore:      row.MaxScore,
			SeverityLabel: row.Band.Level,
		})
	}
	return req
}

// Analysis returns the attached analysis, or nil.
func (r *Report) Analysis() *advisory.Analysis {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.analysis
}

// AdvisoryState returns where the advisory request stands.
func (r *Report) AdvisoryState() AdvisoryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// UnavailableReason is ReasonNone unless the state is AdvisoryUnavailable.
func (r *Report) UnavailableReason() UnavailableReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

// FallbackMessage returns the text shown instead of an unavailable analysis.
func (r *Report) FallbackMessage() string {
	if r.UnavailableReason() == ReasonNotConfigured {
		return NotConfiguredMessage
	}
	return FailedMessage
}

// CrisisNotice returns the crisis banner text when the attached analysis
// flags a crisis.
func (r *Report) CrisisNotice() (string, bool) {
	a := r.Analysis()
	if a == nil || !a.IsCrisis {
		return "", false
	}
	return CrisisText, true
}

// begin claims the report's single advisory request.
func (r *Report) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.requested {
		return false
	}
	r.requested = true
	r.state = AdvisoryPending
	return true
}

// attach stores the analysis unless one is already present.
func (r *Report) attach(a *advisory.Analysis) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.analysis != nil || a == nil {
		return false
	}
	r.analysis = a
	r.state = AdvisoryReady
	r.reason = ReasonNone
	return true
}

func (r *Report) fail(reason UnavailableReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.analysis != nil {
		return
	}
	r.state = AdvisoryUnavailable
	r.reason = reason
}
