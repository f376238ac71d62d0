package assessment

import (
	"time"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/scoring"
)

// Result is the immutable outcome of a submitted session.
//
// SeverityLabel is the level at submission time and exists for exported
// artifacts only. Anything that displays severity calls Band, which
// re-derives it from the score.
type Result struct {
	ID            string             `json:"id"`
	Timestamp     time.Time          `json:"timestamp"`
	ScaleID       instrument.ScaleID `json:"scaleId"`
	Score         int                `json:"score"`
	MaxScore      int                `json:"maxScore"`
	SeverityLabel string             `json:"severity"`
	Answers       []int              `json:"answers"`
}

// Schema returns the instrument the result was produced from.
func (r Result) Schema() (*instrument.Schema, error) {
	return instrument.Lookup(r.ScaleID)
}

// Band re-derives the severity band from the score.
func (r Result) Band() (instrument.Band, error) {
	s, err := r.Schema()
	if err != nil {
		return instrument.Band{}, err
	}
	return scoring.Classify(s, r.Score)
}

// Clone returns a deep copy so callers cannot mutate a stored result's
// answers through a shared slice.
func (r Result) Clone() Result {
	out := r
	out.Answers = append([]int(nil), r.Answers...)
	return out
}
