package semantic

import (
	"errors"
	"fmt"
)

var (
	// ErrForeignNode is wrapped by the InvariantError raised when the
	// builder is handed a node that belongs to a different module.
	ErrForeignNode = errors.New("node belongs to a different module")

	// ErrSnapshotVersion is returned when decoding a snapshot written with
	// an incompatible schema.
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
)

// InvariantError reports broken internal bookkeeping during an index build:
// an unbalanced scope stack, a dangling binding context, a nested named
// expression, or a node from another module. It is raised with panic.
type InvariantError struct {
	Msg string
	Err error
}

func (e *InvariantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("semantic index invariant violated: %s: %v", e.Msg, e.Err)
	}
	return "semantic index invariant violated: " + e.Msg
}

func (e *InvariantError) Unwrap() error { return e.Err }

func invariantf(format string, args ...any) *InvariantError {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}
