package pipeline

import "fmt"

// StageError identifies the stage a run failed in. It unwraps to the
// stage's own error, so errors.Is sees the underlying kind.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
