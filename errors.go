package cashewset

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory is returned from Insert when a node family cannot be
// allocated. The failed operation has no partial-success value, but a
// failure midway through a cascading split can leave the tree partially
// restructured; the set must then be discarded.
var ErrOutOfMemory = errors.New("cashewset: out of memory")

// BugError is the payload of panics raised by the defensive invariant checks.
// It indicates internal corruption (impossible count, depth, or child
// structure), is never triggered by caller input alone, and is never
// recoverable.
type BugError struct {
	Reason string
}

func (e *BugError) Error() string {
	return "cashewset: internal defect: " + e.Reason
}

func bugf(format string, args ...any) {
	panic(&BugError{Reason: fmt.Sprintf(format, args...)})
}
