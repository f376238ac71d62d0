package questionnaire

// resultSavedMsg reports whether the score summary reached the local store.
type resultSavedMsg struct {
	Err error
}
