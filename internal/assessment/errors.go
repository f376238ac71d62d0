package assessment

import (
	"errors"
	"fmt"
)

// ErrNotVisited is returned by NavigateForward when the next question has
// not been reached yet.
var ErrNotVisited = errors.New("next question not visited yet")

// IncompleteError is returned by Submit while at least one answer is unset.
// It is recoverable: the flow jumps back to FirstUnset.
type IncompleteError struct {
	FirstUnset int
	Missing    int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("assessment incomplete: %d unanswered, first is question %d", e.Missing, e.FirstUnset+1)
}

// InvalidStateError is returned when a terminal session is asked to change.
// Reaching it means the caller kept using a finished session.
type InvalidStateError struct {
	State State
	Op    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s: session is %s", e.Op, e.State)
}

// InvalidAnswerError is returned when a value is not one of the current
// question's options. The session is left unchanged.
type InvalidAnswerError struct {
	Question int
	Value    int
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("value %d is not an option for question %d", e.Value, e.Question)
}
