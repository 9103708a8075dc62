package pipeline

import (
	"errors"
	"fmt"
)

// ErrRebuildInProgress is returned when a rebuild is requested for a project
// that is already being rebuilt
var ErrRebuildInProgress = errors.New("a rebuild is already running for this project")

// StageError is the failure of a single pipeline stage. Its message is the
// underlying cause.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage that produced err, or the empty state
func StageOf(err error) State {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}

	return ""
}

// invalidTransition panics; reaching it is a programming error
func invalidTransition(from, to State) {
	panic(fmt.Sprintf("pipeline: invalid transition %s -> %s", from, to))
}
