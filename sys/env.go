package sys

// Env is the set of host entry points available to native code.
//
// All methods must be called on the thread the host is currently
// executing on. Methods that produce a value write it into a fresh slot
// of the innermost open handle scope; the host never keeps a reference to
// caller memory past the call.
type Env interface {
	// Handle scopes

	OpenHandleScope() (HandleScope, Status)
	CloseHandleScope(scope HandleScope) Status
	OpenEscapableHandleScope() (EscapableHandleScope, Status)
	CloseEscapableHandleScope(scope EscapableHandleScope) Status
	// EscapeHandle promotes v into the scope enclosing scope. It may be
	// called at most once per escapable scope.
	EscapeHandle(scope EscapableHandleScope, v Local) (Local, Status)

	// Primitives

	Undefined() (Local, Status)
	Null() (Local, Status)
	Boolean(b bool) (Local, Status)
	BooleanValue(v Local) (bool, Status)
	Number(f float64) (Local, Status)
	NumberValue(v Local) (float64, Status)
	String(s string) (Local, Status)
	StringValue(v Local) (string, Status)

	// Objects and arrays

	Object() (Local, Status)
	Array(length int) (Local, Status)
	ArrayLength(arr Local) (int, Status)
	GetNamedProperty(obj Local, name string) (Local, Status)
	SetNamedProperty(obj Local, name string, v Local) Status
	GetElement(arr Local, index int) (Local, Status)
	SetElement(arr Local, index int, v Local) Status
	PropertyNames(obj Local) ([]string, Status)

	// Functions

	Function(name string, cb Callback) (Local, Status)
	Call(recv, fn Local, args []Local) (Local, Status)

	// Identity

	TypeOf(v Local) (ValueType, Status)
	IsArray(v Local) (bool, Status)
	IsError(v Local) (bool, Status)
	StrictEquals(a, b Local) (bool, Status)

	// Errors and exceptions

	Error(message string) (Local, Status)
	TypeError(message string) (Local, Status)
	Throw(v Local) Status
	IsExceptionPending() (bool, Status)
	GetAndClearLastException() (Local, Status)

	// Boxed native data

	External(data any, finalize Finalizer) (Local, Status)
	ExternalValue(v Local) (any, Status)
	// TypeTagObject stamps tag on obj. A value can be tagged once; the
	// upper half of tag must be non-zero.
	TypeTagObject(obj Local, tag TypeTag) Status
	CheckObjectTypeTag(obj Local, tag TypeTag) (bool, Status)

	// Per-env native state

	SetInstanceData(data any) Status
	InstanceData() (any, Status)

	// FatalError reports an unrecoverable condition. It does not return.
	FatalError(location, message string)
}
