package lazy

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinels for the error taxonomy. Typed errors below wrap these so callers
// can branch with errors.Is while still getting member/operation context.
var (
	// ErrServiceNotReady is returned when an unsafe member is accessed
	// before construction has completed.
	ErrServiceNotReady = errors.New("lazy: service is not ready")

	// ErrOperationNotSupported is returned for structural operations outside
	// {get, set-of-unsafe-member, has}, and for writes to safe members.
	ErrOperationNotSupported = errors.New("lazy: operation not supported")

	// ErrUnexpectedDeterminant is returned when differential selection finds
	// neither a matching closure nor a fallback.
	ErrUnexpectedDeterminant = errors.New("lazy: unexpected determinant")

	// ErrInvalidConstructionResult is returned when a construction closure
	// does not produce a Result built by one of the creator strategies.
	ErrInvalidConstructionResult = errors.New("lazy: invalid construction result")

	// ErrDestroyedBeforeReady rejects the readiness future when a surrogate
	// is destroyed while construction is outstanding.
	ErrDestroyedBeforeReady = errors.New("lazy: surrogate destroyed before construction completed")

	// ErrDestroyed is returned by member operations on a destroyed surrogate.
	ErrDestroyed = errors.New("lazy: surrogate has been destroyed")

	// ErrNotSettled is returned by Deferred.Value before settlement.
	ErrNotSettled = errors.New("lazy: deferred value has not settled")
)

// NotReadyError is the ServiceNotReady failure for a specific member.
// In debug builds the message names the member and hints at the fix;
// otherwise it carries no detail beyond the sentinel text.
type NotReadyError struct {
	Member   string
	Detailed bool
}

func (e NotReadyError) Error() string {
	if !e.Detailed {
		return ErrServiceNotReady.Error()
	}
	return "lazy: service is not ready: member " + strconv.Quote(e.Member) +
		" was accessed before construction completed; declare it safe on the builder or call Load first"
}

func (e NotReadyError) Unwrap() error { return ErrServiceNotReady }

// UnsupportedOperationError carries which operation was attempted on which
// member.
type UnsupportedOperationError struct {
	Op     string
	Member string
}

func (e UnsupportedOperationError) Error() string {
	if e.Member == "" {
		return "lazy: operation " + strconv.Quote(e.Op) + " is not supported on surrogates"
	}
	return "lazy: operation " + strconv.Quote(e.Op) + " is not supported on member " + strconv.Quote(e.Member)
}

func (e UnsupportedOperationError) Unwrap() error { return ErrOperationNotSupported }

// UnexpectedDeterminantError carries the determinant value no implementation
// was registered for.
type UnexpectedDeterminantError struct {
	Determinant any
}

func (e UnexpectedDeterminantError) Error() string {
	return fmt.Sprintf("lazy: no implementation registered for determinant %v and no default set", e.Determinant)
}

func (e UnexpectedDeterminantError) Unwrap() error { return ErrUnexpectedDeterminant }

// InvalidResultError is the construction-closure configuration error.
// Debug builds explain how to fix the closure; production builds do not.
type InvalidResultError struct {
	Detailed bool
}

func (e InvalidResultError) Error() string {
	if !e.Detailed {
		return ErrInvalidConstructionResult.Error()
	}
	return "lazy: invalid construction result: the construction closure must return a Result" +
		" produced by FromInstance, FromModule or FromScope"
}

func (e InvalidResultError) Unwrap() error { return ErrInvalidConstructionResult }
