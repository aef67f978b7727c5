package scoring

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is matched by every EmptyResultError
var ErrEmptyResult = errors.New("empty result")

// Stage names the pipeline step that removed every row
type Stage string

const (
	StageInput          Stage = "input"
	StagePositionWindow Stage = "position_window"
	StageTraffic        Stage = "traffic"
)

// EmptyResultError reports which filter emptied the result set and the
// threshold it applied.
type EmptyResultError struct {
	Stage   Stage
	Message string
}

func (e *EmptyResultError) Error() string {
	return e.Message
}

func (e *EmptyResultError) Is(target error) bool {
	return target == ErrEmptyResult
}

func emptyResult(stage Stage, format string, args ...any) error {
	return &EmptyResultError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}
