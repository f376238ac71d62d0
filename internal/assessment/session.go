// Package assessment implements the question-by-question flow for one
// screening instrument.
package assessment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/scoring"
)

// State is the lifecycle phase of a Session.
type State int

const (
	StateInProgress State = iota // Answering question Current()
	StateCompleted               // Submitted; a Result was produced
	StateCancelled               // Abandoned; answers discarded
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in progress"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Session tracks answers for a single instrument. It is not safe for
// concurrent use; one user drives one session.
type Session struct {
	schema  *instrument.Schema
	answers []int
	current int
	// visited is the furthest index reached. NavigateForward may not go past it.
	visited int
	state   State
}

// New starts a session at the first question with every slot unset.
func New(schema *instrument.Schema) *Session {
	answers := make([]int, schema.QuestionCount())
	for i := range answers {
		answers[i] = instrument.Unset
	}
	return &Session{
		schema:  schema,
		answers: answers,
		state:   StateInProgress,
	}
}

// Schema returns the instrument being administered.
func (s *Session) Schema() *instrument.Schema { return s.schema }

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// Current returns the index of the question on screen.
func (s *Session) Current() int { return s.current }

// Question returns the question on screen.
func (s *Session) Question() instrument.Question { return s.schema.Questions[s.current] }

// Len returns the number of questions.
func (s *Session) Len() int { return len(s.answers) }

// Answer returns the value recorded at index i, or instrument.Unset.
func (s *Session) Answer(i int) int { return s.answers[i] }

// Answers returns a copy of all slots.
func (s *Session) Answers() []int {
	out := make([]int, len(s.answers))
	copy(out, s.answers)
	return out
}

// Answered counts the slots holding a value.
func (s *Session) Answered() int {
	n := 0
	for _, v := range s.answers {
		if v != instrument.Unset {
			n++
		}
	}
	return n
}

// CanNavigateForward reports whether NavigateForward would succeed.
func (s *Session) CanNavigateForward() bool {
	return s.state == StateInProgress && s.current < s.visited
}

// IsLast reports whether the current question is the final one.
func (s *Session) IsLast() bool { return s.current == len(s.answers)-1 }

// SelectAnswer records value for the current question and advances to the
// next one. On the last question the cursor stays put.
func (s *Session) SelectAnswer(value int) error {
	if err := s.guard("select answer"); err != nil {
		return err
	}
	q := s.Question()
	if !q.HasValue(value) {
		return &InvalidAnswerError{Question: q.ID, Value: value}
	}

	s.answers[s.current] = value
	if s.current < len(s.answers)-1 {
		s.current++
		if s.current > s.visited {
			s.visited = s.current
		}
	}
	return nil
}

// NavigateBack moves to the previous question. Recorded answers are kept.
func (s *Session) NavigateBack() error {
	if err := s.guard("navigate back"); err != nil {
		return err
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// NavigateForward moves to the next question if it was reached before.
func (s *Session) NavigateForward() error {
	if err := s.guard("navigate forward"); err != nil {
		return err
	}
	if s.current >= s.visited {
		return ErrNotVisited
	}
	s.current++
	return nil
}

// Submit scores the completed session and moves it to StateCompleted.
// With unset slots it returns *IncompleteError and stays in progress.
func (s *Session) Submit(now time.Time) (*Result, error) {
	if err := s.guard("submit"); err != nil {
		return nil, err
	}

	first, missing := -1, 0
	for i, v := range s.answers {
		if v == instrument.Unset {
			if first < 0 {
				first = i
			}
			missing++
		}
	}
	if missing > 0 {
		return nil, &IncompleteError{FirstUnset: first, Missing: missing}
	}

	score, err := scoring.Score(s.answers)
	if err != nil {
		return nil, fmt.Errorf("score answers: %w", err)
	}
	band, err := scoring.Classify(s.schema, score)
	if err != nil {
		return nil, fmt.Errorf("classify score: %w", err)
	}

	s.state = StateCompleted
	return &Result{
		ID:            uuid.New().String(),
		Timestamp:     now,
		ScaleID:       s.schema.ID,
		Score:         score,
		MaxScore:      scoring.MaxScore(s.schema),
		SeverityLabel: band.Level,
		Answers:       s.Answers(),
	}, nil
}

// Cancel abandons the session and discards every recorded answer.
func (s *Session) Cancel() error {
	if err := s.guard("cancel"); err != nil {
		return err
	}
	for i := range s.answers {
		s.answers[i] = instrument.Unset
	}
	s.current = 0
	s.visited = 0
	s.state = StateCancelled
	return nil
}

// Recover handles an *IncompleteError from Submit by moving the cursor to
// the first unanswered question. It reports whether err was handled.
func (s *Session) Recover(err error) bool {
	var inc *IncompleteError
	if !errors.As(err, &inc) || s.state != StateInProgress {
		return false
	}
	s.current = inc.FirstUnset
	if s.current > s.visited {
		s.visited = s.current
	}
	return true
}

func (s *Session) guard(op string) error {
	if s.state.Terminal() {
		return &InvalidStateError{State: s.state, Op: op}
	}
	return nil
}
