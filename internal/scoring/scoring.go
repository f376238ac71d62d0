// Package scoring totals Likert answers and maps totals to severity bands.
// Everything here is a pure function of its inputs; severity is never cached.
package scoring

import (
	"fmt"

	"github.com/mindharmony/mindharmony/internal/instrument"
)

// UnsetAnswerError is returned by Score when a slot still holds the unset
// sentinel.
type UnsetAnswerError struct {
	Index int
}

func (e *UnsetAnswerError) Error() string {
	return fmt.Sprintf("answer %d is unset", e.Index+1)
}

// Score sums the answers. It fails if any slot is unset or out of range.
func Score(answers []int) (int, error) {
	total := 0
	for i, v := range answers {
		if v == instrument.Unset {
			return 0, &UnsetAnswerError{Index: i}
		}
		if v < 0 || v > instrument.MaxOptionValue {
			return 0, fmt.Errorf("answer %d: value %d outside [0, %d]", i+1, v, instrument.MaxOptionValue)
		}
		total += v
	}
	return total, nil
}

// MaxScore returns the highest attainable score for the schema.
func MaxScore(s *instrument.Schema) int {
	return s.MaxScore()
}

// Classify returns the first band whose upper bound is >= score.
func Classify(s *instrument.Schema, score int) (instrument.Band, error) {
	if score < 0 || score > s.MaxScore() {
		return instrument.Band{}, fmt.Errorf("score %d outside [0, %d] for %s", score, s.MaxScore(), s.ID)
	}
	for _, b := range s.Bands {
		if score <= b.UpperBound {
			return b, nil
		}
	}
	// Unreachable for validated schemas.
	return instrument.Band{}, fmt.Errorf("no band for score %d in %s", score, s.ID)
}

// MustClassify is Classify for scores produced by Score on the same schema.
func MustClassify(s *instrument.Schema, score int) instrument.Band {
	b, err := Classify(s, score)
	if err != nil {
		panic(err)
	}
	return b
}

// highRiskBands is the number of top bands counted as high risk.
const highRiskBands = 2

// IsHighRisk reports whether score lands in one of the instrument's two
// highest bands (PHQ-9 >= 15, GAD-7 >= 10).
func IsHighRisk(s *instrument.Schema, score int) bool {
	b, err := Classify(s, score)
	if err != nil {
		return false
	}
	return b.Rank >= len(s.Bands)-highRiskBands
}
