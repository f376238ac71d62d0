package store

import (
	"context"
	"time"
)

// QueryOpts configures list queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // events only
	ScaleID string    // results only
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID           int       `sql:"id"`
	Sequence     int64     `sql:"sequence"`
	Timestamp    time.Time `sql:"timestamp"`
	Provider     string    `sql:"provider"`
	Model        string    `sql:"model"`
	Purpose      string    `sql:"purpose"`
	InputTokens  int       `sql:"input_tokens"`
	OutputTokens int       `sql:"output_tokens"`
	LatencyMs    int64     `sql:"latency_ms"`
	Success      bool      `sql:"success"`
	ErrorMessage string    `sql:"error_message"`
	RequestBody  string    `sql:"request_body"`
	ResponseBody string    `sql:"response_body"`
}

// LLMUsage aggregates calls grouped by purpose or model. Key holds the
// group value.
type LLMUsage struct {
	Key          string `sql:"grp"`
	Calls        int    `sql:"calls"`
	InputTokens  int    `sql:"input_tokens"`
	OutputTokens int    `sql:"output_tokens"`
	AvgLatencyMs int64  `sql:"avg_latency_ms"`
	Failures     int    `sql:"failures"`
}

// EventRepo stores and queries advisory LLM events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns ErrNotFound for an unknown id.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}

// ResultRecord is one stored score summary.
type ResultRecord struct {
	ID        string    `sql:"id"`
	ReportID  string    `sql:"report_id"`
	ScaleID   string    `sql:"scale_id"`
	Score     int       `sql:"score"`
	MaxScore  int       `sql:"max_score"`
	CreatedAt time.Time `sql:"created_at"`
	Sequence  int64     `sql:"sequence"`
}

// ScoreCount is the number of stored results with a given scale and score.
type ScoreCount struct {
	ScaleID string `sql:"scale_id"`
	Score   int    `sql:"score"`
	Count   int    `sql:"n"`
}

// ResultRepo stores score summaries.
type ResultRepo interface {
	// AppendResult assigns the record's sequence and stores it. Appending an
	// id twice is an error.
	AppendResult(ctx context.Context, rec *ResultRecord) error

	// ListResults returns records newest first.
	ListResults(ctx context.Context, opts QueryOpts) ([]ResultRecord, error)

	// ScoreHistogram counts results per (scale, score).
	ScoreHistogram(ctx context.Context) ([]ScoreCount, error)
}

// ProfileRecord is the persisted session record. It carries no answers.
type ProfileRecord struct {
	Nickname      string    `sql:"nickname"`
	StudentID     string    `sql:"student_id"`
	AgreedToTerms bool      `sql:"agreed_to_terms"`
	IsAdmin       bool      `sql:"is_admin"`
	CreatedAt     time.Time `sql:"created_at"`
}

// ProfileRepo manages the single local profile row.
type ProfileRepo interface {
	Save(ctx context.Context, p ProfileRecord) error

	// Load returns nil when no profile exists.
	Load(ctx context.Context) (*ProfileRecord, error)

	Clear(ctx context.Context) error
}
