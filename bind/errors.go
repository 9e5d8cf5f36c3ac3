package bind

import (
	"errors"
	"fmt"

	"github.com/chazu/tether/sys"
)

// ErrThrown reports that a host exception is pending. Native functions
// return it (possibly wrapped) to let the exception propagate to the
// host unchanged.
var ErrThrown = errors.New("bind: host exception pending")

// HostError is a failed host entry point.
type HostError struct {
	Op     string
	Status sys.Status
}

func (e *HostError) Error() string {
	return fmt.Sprintf("bind: %s: %s", e.Op, e.Status)
}

// Is lets errors.Is(err, ErrThrown) match a pending-exception status.
func (e *HostError) Is(target error) bool {
	return target == ErrThrown && e.Status == sys.StatusPendingException
}

// DowncastError is returned when a value is not of the requested kind,
// including a boxed value whose type tag or Go type does not match.
type DowncastError struct {
	Expected string
	Actual   string
}

func (e *DowncastError) Error() string {
	return fmt.Sprintf("expected %s", e.Expected)
}

func (e *DowncastError) typeError() {}

// ArgumentError is returned when a native function is called with fewer
// arguments than it requires.
type ArgumentError struct {
	Index int
	Len   int
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("not enough arguments: wanted argument %d, got %d", e.Index, e.Len)
}

func (e *ArgumentError) typeError() {}

// typeErrorer marks errors that are thrown to the host as a TypeError
// rather than a plain Error.
type typeErrorer interface {
	typeError()
}

// ScopeError is the panic value for a violated scope discipline: a
// handle used after its scope closed, scopes closed out of order, an
// escape from the wrong scope, or a context used while an inner scope is
// open. These are programming defects, never returned as errors.
type ScopeError struct {
	Op     string
	Reason string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("bind: scope violation in %s: %s", e.Op, e.Reason)
}

func scopeViolation(op, format string, args ...any) {
	panic(&ScopeError{Op: op, Reason: fmt.Sprintf(format, args...)})
}

// check converts a host status into an error.
func check(op string, st sys.Status) error {
	if st == sys.StatusOK {
		return nil
	}
	return &HostError{Op: op, Status: st}
}

// fatal reports an unrecoverable condition to the host. Hosts do not
// return from FatalError; if one does, bind panics itself.
func fatal(env sys.Env, location, message string) {
	log.Criticalf("%s: %s", location, message)
	env.FatalError(location, message)
	panic(&sys.FatalError{Location: location, Message: message})
}
