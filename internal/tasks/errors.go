package tasks

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks a request refused by validation
	ErrInvalidRequest = errors.New("invalid task request")
)

// Error wraps a failed service operation with the task it concerned
type Error struct {
	Op     string // Operation being performed (e.g. "create", "set status")
	TaskID string // Task ID if known
	Err    error  // Underlying error
}

func (e *Error) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("%s task: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s task %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}
