package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a quiz session is not registered.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrDatasetNotFound indicates the question bank could not be loaded.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrQuestionNotFound indicates a question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a selected label is not an option of the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrHistoryNotFound indicates a history record does not exist.
	ErrHistoryNotFound = errors.New("history record not found")

	ErrEmptyPool        = errors.New("question pool is empty")
	ErrInvalidTimeLimit = errors.New("time limit must be positive")

	// ErrSelectionIncomplete is matched by SelectionIncompleteError.
	ErrSelectionIncomplete   = errors.New("multi-select answer incomplete")
	ErrSessionFinished       = errors.New("quiz session already finished")
	ErrSessionPaused         = errors.New("quiz session is paused")
	ErrIntroActive           = errors.New("quiz intro has not been dismissed")
	ErrConfirmationPending   = errors.New("partial submission awaiting confirmation")
	ErrNoPendingConfirmation = errors.New("no partial submission to resolve")
	ErrUnknownResolution     = errors.New("unknown partial submission resolution")
	ErrUnknownCommand        = errors.New("unknown command")
	// ErrSessionInProgress is returned when a result is requested before the session finished.
	ErrSessionInProgress = errors.New("quiz session still in progress")
)

// SelectionIncompleteError is returned when forward navigation is attempted on a
// multi-select question whose selection count differs from the required count.
type SelectionIncompleteError struct {
	Required int
	Selected int
}

func (e *SelectionIncompleteError) Error() string {
	return fmt.Sprintf("select %d options to continue (currently %d)", e.Required, e.Selected)
}

func (e *SelectionIncompleteError) Is(target error) bool {
	return target == ErrSelectionIncomplete
}
