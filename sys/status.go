package sys

import "fmt"

// Status is the result code of a host entry point.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidArg
	StatusObjectExpected
	StatusStringExpected
	StatusNumberExpected
	StatusBooleanExpected
	StatusFunctionExpected
	StatusArrayExpected
	StatusGenericFailure
	StatusPendingException
	StatusEscapeCalledTwice
	StatusHandleScopeMismatch
	StatusHandleScopeExhausted
	StatusInvalidLocal
)

var statusNames = [...]string{
	StatusOK:                   "ok",
	StatusInvalidArg:           "invalid_arg",
	StatusObjectExpected:       "object_expected",
	StatusStringExpected:       "string_expected",
	StatusNumberExpected:       "number_expected",
	StatusBooleanExpected:      "boolean_expected",
	StatusFunctionExpected:     "function_expected",
	StatusArrayExpected:        "array_expected",
	StatusGenericFailure:       "generic_failure",
	StatusPendingException:     "pending_exception",
	StatusEscapeCalledTwice:    "escape_called_twice",
	StatusHandleScopeMismatch:  "handle_scope_mismatch",
	StatusHandleScopeExhausted: "handle_scope_exhausted",
	StatusInvalidLocal:         "invalid_local",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// OK reports whether s is StatusOK.
func (s Status) OK() bool { return s == StatusOK }

// FatalError is the panic value for unrecoverable host conditions, such as
// handle-scope exhaustion or a corrupted scope stack. Env.FatalError
// raises it. Native callbacks never turn it into a host exception.
type FatalError struct {
	Location string
	Message  string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("FATAL ERROR: %s %s", e.Location, e.Message)
}
