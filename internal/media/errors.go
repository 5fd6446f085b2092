package media

import (
	"errors"
	"strings"
)

// ErrRenderTimeout is returned when the 3D model never became visible.
var ErrRenderTimeout = errors.New("3D model did not finish loading in time")

// ProcessingError is a failure of an external thumbnail tool. Output holds
// whatever the tool wrote to stderr, unmodified.
type ProcessingError struct {
	Op     string
	Err    error
	Output string
}

func (e *ProcessingError) Error() string {
	msg := e.Op + ": " + e.Err.Error()
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *ProcessingError) Unwrap() error { return e.Err }
