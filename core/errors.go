package orchestration

import "fmt"

// ResolutionError wraps an intent-resolution collaborator failure. The
// conversation history the caller sent travels back untouched, so
// resubmitting the same payload is safe.
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("intent resolution failed: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
