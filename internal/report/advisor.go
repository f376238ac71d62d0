package report

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mindharmony/mindharmony/internal/advisory"
	"github.com/mindharmony/mindharmony/internal/llm"
)

// DefaultAdvisoryTimeout bounds one advisory call.
const DefaultAdvisoryTimeout = 30 * time.Second

const advisoryQueueSize = 8

// Outcome is delivered once per accepted advisory request.
type Outcome struct {
	ReportID string
	Analysis *advisory.Analysis
	Err      error
	Reason   UnavailableReason

	// Discarded is set when the report was reset or replaced before the
	// response arrived. The report was not touched.
	Discarded bool
}

// Advisor fetches advisory analyses on a background worker.
type Advisor struct {
	client  advisory.Client
	store   *Store
	timeout time.Duration

	jobs   chan advisoryJob
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type advisoryJob struct {
	ctx    context.Context
	report *Report
	req    advisory.Request
	done   func(Outcome)
}

// AdvisorOption configures an Advisor.
type AdvisorOption func(*Advisor)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) AdvisorOption {
	return func(a *Advisor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithStore makes the advisor drop responses for reports that are no longer
// current in s.
func WithStore(s *Store) AdvisorOption {
	return func(a *Advisor) { a.store = s }
}

// NewAdvisor starts the worker. A nil client behaves like
// advisory.Unconfigured.
func NewAdvisor(client advisory.Client, opts ...AdvisorOption) *Advisor {
	if client == nil {
		client = advisory.Unconfigured{}
	}
	base, cancel := context.WithCancel(context.Background())
	a := &Advisor{
		client:  client,
		timeout: DefaultAdvisoryTimeout,
		jobs:    make(chan advisoryJob, advisoryQueueSize),
		base:    base,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.wg.Add(1)
	go a.processLoop()
	return a
}

// RequestAdvisory queues the single advisory request for r. It returns false
// without calling done when r is empty or was already requested. Otherwise
// done is called exactly once from the worker goroutine.
func (a *Advisor) RequestAdvisory(ctx context.Context, r *Report, done func(Outcome)) bool {
	if r == nil || r.Empty() || !r.begin() {
		return false
	}

	job := advisoryJob{ctx: ctx, report: r, req: r.Payload(), done: done}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		r.fail(ReasonFailed)
		return false
	}
	select {
	case a.jobs <- job:
		return true
	default:
		slog.Warn("advisory queue full", "report", r.ID)
		r.fail(ReasonFailed)
		return false
	}
}

func (a *Advisor) processLoop() {
	defer a.wg.Done()
	for job := range a.jobs {
		out := a.run(job)
		if job.done != nil {
			job.done(out)
		}
	}
}

func (a *Advisor) run(job advisoryJob) Outcome {
	ctx, cancel := context.WithTimeout(llm.WithReport(job.ctx, job.report.CycleID), a.timeout)
	defer cancel()
	stop := context.AfterFunc(a.base, cancel)
	defer stop()

	start := time.Now()
	analysis, err := a.client.Analyze(ctx, job.req)
	out := Outcome{ReportID: job.report.ID, Err: err}

	if a.store != nil && !a.store.accepts(job.report) {
		slog.Debug("advisory response discarded", "report", job.report.ID)
		out.Discarded = true
		return out
	}

	if err != nil {
		out.Reason = ReasonFailed
		if advisory.IsNotConfigured(err) {
			out.Reason = ReasonNotConfigured
		} else {
			slog.Warn("advisory request failed", "report", job.report.ID, "error", err, "elapsed", time.Since(start))
		}
		job.report.fail(out.Reason)
		return out
	}

	job.report.attach(analysis)
	out.Analysis = job.report.Analysis()
	return out
}

// Close cancels in-flight requests and waits for the worker to exit. Queued
// requests still receive an Outcome.
func (a *Advisor) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.cancel()
	close(a.jobs)
	a.mu.Unlock()

	a.wg.Wait()
}
