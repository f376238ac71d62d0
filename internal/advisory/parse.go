package advisory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mindharmony/mindharmony/internal/llm"
)

// ParseError reports why an advisory payload was rejected.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid advisory analysis: %s: %v", e.Reason, e.Err)
	}
	return "invalid advisory analysis: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type rawAnalysis struct {
	Summary          *string   `json:"summary"`
	CopingStrategies *[]string `json:"copingStrategies"`
	IsCrisis         *bool     `json:"isCrisis"`
}

// Parse decodes and validates an Analysis. The payload must satisfy
// AnalysisSchema and be a single JSON object with exactly the three known fields, a non-blank summary, and
// exactly StrategyCount non-blank strategies. Any failure rejects the whole
// payload.
func Parse(raw []byte) (*Analysis, error) {
	if err := llm.ValidateJSON(AnalysisSchema, raw); err != nil {
		return nil, &ParseError{Reason: "schema", Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var r rawAnalysis
	if err := dec.Decode(&r); err != nil {
		return nil, &ParseError{Reason: "decode", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Reason: "trailing data after object"}
	}

	switch {
	case r.Summary == nil:
		return nil, &ParseError{Reason: "missing summary"}
	case r.CopingStrategies == nil:
		return nil, &ParseError{Reason: "missing copingStrategies"}
	case r.IsCrisis == nil:
		return nil, &ParseError{Reason: "missing isCrisis"}
	}

	summary := strings.TrimSpace(*r.Summary)
	if summary == "" {
		return nil, &ParseError{Reason: "empty summary"}
	}
	if n := len(*r.CopingStrategies); n != StrategyCount {
		return nil, &ParseError{Reason: fmt.Sprintf("expected %d coping strategies, got %d", StrategyCount, n)}
	}

	strategies := make([]string, 0, StrategyCount)
	for i, s := range *r.CopingStrategies {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("coping strategy %d is empty", i+1)}
		}
		strategies = append(strategies, s)
	}

	return &Analysis{
		Summary:          summary,
		CopingStrategies: strategies,
		IsCrisis:         *r.IsCrisis,
	}, nil
}
