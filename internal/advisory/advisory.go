// Package advisory defines the contract with the external text-generation
// service that turns score summaries into supportive, non-clinical advice.
//
// Only summaries cross this boundary. A Request has no field that could
// carry per-question answers.
package advisory

import (
	"context"
	"errors"
	"fmt"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/scoring"
)

// ErrNotConfigured is returned when no provider credential or endpoint is
// available.
var ErrNotConfigured = errors.New("advisory service not configured")

// Client produces an Analysis for a set of score summaries.
type Client interface {
	Analyze(ctx context.Context, req Request) (*Analysis, error)
}

// Summary is the per-instrument outcome sent to the advisory service.
type Summary struct {
	ScaleID       instrument.ScaleID `json:"scaleId"`
	Score         int                `json:"score"`
	MaxScore      int                `json:"maxScore"`
	SeverityLabel string             `json:"severityLabel"`
}

// Request is the full advisory payload.
type Request struct {
	DisplayName string    `json:"displayName"`
	Summaries   []Summary `json:"summaries"`
}

// Validate checks that the request is well formed before it is sent or
// accepted by the proxy.
func (r Request) Validate() error {
	if len(r.Summaries) == 0 {
		return errors.New("request has no summaries")
	}
	for i, s := range r.Summaries {
		schema, err := instrument.Lookup(s.ScaleID)
		if err != nil {
			return fmt.Errorf("summary %d: %w", i, err)
		}
		if s.MaxScore != schema.MaxScore() {
			return fmt.Errorf("summary %d: max score %d does not match %s (%d)",
				i, s.MaxScore, s.ScaleID, schema.MaxScore())
		}
		if s.Score < 0 || s.Score > s.MaxScore {
			return fmt.Errorf("summary %d: score %d outside [0, %d]", i, s.Score, s.MaxScore)
		}
		band, err := scoring.Classify(schema, s.Score)
		if err != nil {
			return fmt.Errorf("summary %d: %w", i, err)
		}
		if s.SeverityLabel != band.Level {
			return fmt.Errorf("summary %d: severity label %q does not match %s score %d (%q)",
				i, s.SeverityLabel, s.ScaleID, s.Score, band.Level)
		}
	}
	return nil
}

// Analysis is the advisory service's answer.
type Analysis struct {
	Summary          string   `json:"summary"`
	CopingStrategies []string `json:"copingStrategies"`
	IsCrisis         bool     `json:"isCrisis"`
}

// StrategyCount is the exact number of coping strategies an Analysis carries.
const StrategyCount = 3

// Unconfigured is the Client used when nothing is configured. Every call
// fails with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) Analyze(context.Context, Request) (*Analysis, error) {
	return nil, ErrNotConfigured
}

// IsNotConfigured reports whether err stems from a missing credential.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
