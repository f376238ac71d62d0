package scoring

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/mindharmony/mindharmony/internal/instrument"
)

func filled(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		answers []int
		want    int
	}{
		{"all zero", filled(9, 0), 0},
		{"all max", filled(9, 3), 27},
		{"mixed", []int{1, 2, 3, 0, 1, 2, 3, 0, 0}, 12},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		got, err := Score(tt.answers)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestScoreRejectsUnset(t *testing.T) {
	answers := filled(7, 1)
	answers[4] = instrument.Unset
	_, err := Score(answers)
	var unset *UnsetAnswerError
	if !errors.As(err, &unset) {
		t.Fatalf("expected UnsetAnswerError, got %v", err)
	}
	if unset.Index != 4 {
		t.Errorf("index = %d, want 4", unset.Index)
	}
}

func TestScoreRejectsOutOfRange(t *testing.T) {
	if _, err := Score([]int{0, 4}); err == nil {
		t.Fatal("expected error for value 4")
	}
}

func TestScorePermutationInvariant(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 50; trial++ {
		answers := make([]int, 9)
		for i := range answers {
			answers[i] = r.IntN(4)
		}
		want, _ := Score(answers)
		shuffled := append([]int(nil), answers...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got, _ := Score(shuffled)
		if got != want {
			t.Fatalf("permutation changed score: %v=%d vs %v=%d", answers, want, shuffled, got)
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	for _, s := range instrument.All() {
		low, err := Classify(s, 0)
		if err != nil {
			t.Fatalf("%s: %v", s.ID, err)
		}
		if low.Rank != 0 {
			t.Errorf("%s: score 0 landed in rank %d", s.ID, low.Rank)
		}
		high, err := Classify(s, MaxScore(s))
		if err != nil {
			t.Fatalf("%s: %v", s.ID, err)
		}
		if high.Rank != len(s.Bands)-1 {
			t.Errorf("%s: max score landed in rank %d", s.ID, high.Rank)
		}
	}
}

func TestClassifyExactlyOneBand(t *testing.T) {
	for _, s := range instrument.All() {
		for score := 0; score <= MaxScore(s); score++ {
			matches := 0
			lower := -1
			for _, b := range s.Bands {
				if score > lower && score <= b.UpperBound {
					matches++
				}
				lower = b.UpperBound
			}
			if matches != 1 {
				t.Errorf("%s score %d matched %d bands", s.ID, score, matches)
			}
			got := MustClassify(s, score)
			if score > got.UpperBound {
				t.Errorf("%s score %d classified above bound %d", s.ID, score, got.UpperBound)
			}
		}
	}
}

func TestClassifyOutOfRange(t *testing.T) {
	s := instrument.MustLookup(instrument.GAD7)
	if _, err := Classify(s, -1); err == nil {
		t.Error("expected error for -1")
	}
	if _, err := Classify(s, 22); err == nil {
		t.Error("expected error for 22")
	}
}

func TestScenarios(t *testing.T) {
	phq := instrument.MustLookup(instrument.PHQ9)
	gad := instrument.MustLookup(instrument.GAD7)

	tests := []struct {
		name    string
		schema  *instrument.Schema
		answers []int
		score   int
		level   string
	}{
		{"phq9 all zero", phq, filled(9, 0), 0, "无明显抑郁"},
		{"phq9 all max", phq, filled(9, 3), 27, "重度抑郁"},
		{"phq9 sums to 12", phq, []int{2, 2, 2, 2, 1, 1, 1, 1, 0}, 12, "中度抑郁"},
		{"gad7 all zero", gad, filled(7, 0), 0, "无明显焦虑"},
		{"gad7 all max", gad, filled(7, 3), 21, "重度焦虑"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := Score(tt.answers)
			if err != nil {
				t.Fatal(err)
			}
			if score != tt.score {
				t.Fatalf("score %d, want %d", score, tt.score)
			}
			band, err := Classify(tt.schema, score)
			if err != nil {
				t.Fatal(err)
			}
			if band.Level != tt.level {
				t.Errorf("level %q, want %q", band.Level, tt.level)
			}
		})
	}
}

func TestModerateBandRange(t *testing.T) {
	phq := instrument.MustLookup(instrument.PHQ9)
	for score := 10; score <= 14; score++ {
		if got := MustClassify(phq, score).Level; got != "中度抑郁" {
			t.Errorf("score %d: %q", score, got)
		}
	}
}

func TestIsHighRisk(t *testing.T) {
	phq := instrument.MustLookup(instrument.PHQ9)
	gad := instrument.MustLookup(instrument.GAD7)

	tests := []struct {
		schema *instrument.Schema
		score  int
		want   bool
	}{
		{phq, 14, false},
		{phq, 15, true},
		{phq, 27, true},
		{gad, 9, false},
		{gad, 10, true},
		{gad, 99, false},
	}
	for _, tt := range tests {
		if got := IsHighRisk(tt.schema, tt.score); got != tt.want {
			t.Errorf("IsHighRisk(%s, %d) = %v", tt.schema.ID, tt.score, got)
		}
	}
}
