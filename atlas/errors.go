package atlas

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSpace indicates that no free region can hold the requested size.
	// The atlas may be full or too fragmented; nothing was modified.
	ErrNoSpace = errors.New("atlas: no free region large enough")

	// ErrInvalidSize indicates a zero atlas dimension passed to New.
	ErrInvalidSize = errors.New("atlas: width and height must be non-zero")

	// ErrNotEmpty is returned by Close while allocations are outstanding.
	ErrNotEmpty = errors.New("atlas: allocations still outstanding")
)

// ProtocolError is the panic value raised when a caller breaks the allocator
// contract: freeing an unknown region, double free, a zero-sized request, or a
// structural edit on a node in the wrong state. The tree and its indices would
// desynchronize past this point, so these are never returned as errors.
type ProtocolError struct {
	Op     string
	Region Region
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("atlas: %s %v: %s", e.Op, e.Region, e.Reason)
}

// InvariantError describes a broken structural invariant found by
// CheckConsistency.
type InvariantError struct {
	Invariant string
	Region    Region
	Message   string
}

func (e *InvariantError) Error() string {
	if e.Region.IsEmpty() {
		return fmt.Sprintf("atlas: invariant %q violated: %s", e.Invariant, e.Message)
	}
	return fmt.Sprintf("atlas: invariant %q violated at %v: %s", e.Invariant, e.Region, e.Message)
}

func protocolViolation(op string, r Region, format string, args ...any) {
	panic(&ProtocolError{Op: op, Region: r, Reason: fmt.Sprintf(format, args...)})
}
