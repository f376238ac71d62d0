package instrument

import (
	"fmt"
	"strings"
)

// Unset marks an answer slot that has not been filled yet.
const Unset = -1

// MaxOptionValue is the highest Likert value any option may carry.
const MaxOptionValue = 3

// ScaleID identifies a screening instrument.
type ScaleID string

const (
	PHQ9 ScaleID = "PHQ-9"
	GAD7 ScaleID = "GAD-7"
)

// AllScaleIDs returns the closed set of instruments in display order.
func AllScaleIDs() []ScaleID {
	return []ScaleID{PHQ9, GAD7}
}

// ParseScaleID accepts the canonical id and the common spellings
// ("phq9", "PHQ 9", "gad_7").
func ParseScaleID(s string) (ScaleID, error) {
	want := normalizeScaleID(s)
	for _, id := range AllScaleIDs() {
		if normalizeScaleID(string(id)) == want {
			return id, nil
		}
	}
	return "", &UnknownScaleError{ID: ScaleID(s)}
}

func normalizeScaleID(s string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToUpper(s))
}

// Option is one Likert answer choice.
type Option struct {
	Label string
	Value int
}

// Question is a single inventory item.
type Question struct {
	ID      int
	Text    string
	Options []Option
}

// HasValue reports whether v is one of the question's option values.
func (q Question) HasValue(v int) bool {
	for _, o := range q.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// OptionLabel returns the label for value v, or "" if no option carries it.
func (q Question) OptionLabel(v int) string {
	for _, o := range q.Options {
		if o.Value == v {
			return o.Label
		}
	}
	return ""
}

// Band is one row of a severity threshold table. A score belongs to the
// first band (in ascending order) whose UpperBound is >= the score.
type Band struct {
	UpperBound int
	Level      string
	Color      string // hex color token, e.g. "#10b981"
	Advice     string
	Rank       int // 0 for the lowest band; set by the registry
}

// Schema is an immutable, registry-owned questionnaire definition.
type Schema struct {
	ID          ScaleID
	ShortName   string
	Title       string
	Description string
	Questions   []Question
	Bands       []Band
}

// QuestionCount returns the number of items in the instrument.
func (s *Schema) QuestionCount() int {
	return len(s.Questions)
}

// MaxScore returns the highest attainable total, three points per item.
func (s *Schema) MaxScore() int {
	return len(s.Questions) * MaxOptionValue
}

// LowestBand returns the first band of the threshold table.
func (s *Schema) LowestBand() Band {
	return s.Bands[0]
}

// HighestBand returns the last band of the threshold table.
func (s *Schema) HighestBand() Band {
	return s.Bands[len(s.Bands)-1]
}

// UnknownScaleError is returned when a scale id falls outside the closed
// instrument set.
type UnknownScaleError struct {
	ID ScaleID
}

func (e *UnknownScaleError) Error() string {
	return fmt.Sprintf("unknown scale %q", string(e.ID))
}
