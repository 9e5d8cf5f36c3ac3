package vm

import (
	"math"
)

// Value represents a host value using NaN-boxing.
//
// All values are 64-bit IEEE 754 doubles. Non-number values are encoded
// in the quiet NaN space with tag bits:
//   - Number: native IEEE 754 double (if not one of our tagged NaNs)
//   - Object: quiet NaN + tagObject + 32-bit heap object id
//   - Special: quiet NaN + tagSpecial + undefined/null/true/false
//
// Strings, arrays, functions, errors and externals are all heap objects.
type Value uint64

// NaN-boxing constants
const (
	// Quiet NaN prefix: exponent all 1s, quiet bit set, sign bit 0
	nanBits uint64 = 0x7FF8000000000000

	// Tag mask: 3 bits within the NaN mantissa space
	tagMask uint64 = 0x0007000000000000

	// Payload mask: 48 bits
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	tagObject  uint64 = 0x0001000000000000
	tagSpecial uint64 = 0x0003000000000000
)

// Special value payloads
const (
	specialUndefined uint64 = 0
	specialNull      uint64 = 1
	specialTrue      uint64 = 2
	specialFalse     uint64 = 3
)

// Pre-defined special values
const (
	Undefined Value = Value(nanBits | tagSpecial | specialUndefined)
	Null      Value = Value(nanBits | tagSpecial | specialNull)
	True      Value = Value(nanBits | tagSpecial | specialTrue)
	False     Value = Value(nanBits | tagSpecial | specialFalse)
)

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsNumber returns true if v represents a float64 value. Infinities and
// untagged NaNs are numbers.
func (v Value) IsNumber() bool {
	bits := uint64(v)

	if (bits & 0x7FF0000000000000) != 0x7FF0000000000000 {
		return true
	}

	// Infinity has mantissa == 0
	if bits&0x000FFFFFFFFFFFFF == 0 {
		return true
	}

	// Signaling NaN
	if (bits & nanBits) != nanBits {
		return true
	}

	// Quiet NaN with no tag bits is a real NaN
	return bits&tagMask == 0
}

// IsObject returns true if v refers to a heap object.
func (v Value) IsObject() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagObject)
}

// IsSpecial returns true if v is undefined, null, true or false.
func (v Value) IsSpecial() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagSpecial)
}

// IsBool returns true if v is true or false.
func (v Value) IsBool() bool {
	return v == True || v == False
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

// Float64 returns v as a float64.
// Panics if v is not a number.
func (v Value) Float64() float64 {
	if !v.IsNumber() {
		panic("Value.Float64: not a number")
	}
	return math.Float64frombits(uint64(v))
}

// FromFloat64 creates a Value from a float64. Every NaN is canonicalised
// so that a computed NaN can never alias a tagged value.
func FromFloat64(f float64) Value {
	if math.IsNaN(f) {
		return Value(nanBits)
	}
	return Value(math.Float64bits(f))
}

// ObjectID returns the heap id encoded in v.
// Panics if v is not an object.
func (v Value) ObjectID() uint32 {
	if !v.IsObject() {
		panic("Value.ObjectID: not an object")
	}
	return uint32(uint64(v) & payloadMask)
}

// FromObjectID creates a Value referring to heap object id.
func FromObjectID(id uint32) Value {
	return Value(nanBits | tagObject | uint64(id))
}

// Bool returns v as a bool.
// Panics if v is not true or false.
func (v Value) Bool() bool {
	switch v {
	case True:
		return true
	case False:
		return false
	default:
		panic("Value.Bool: not a boolean")
	}
}

// FromBool creates a Value from a bool.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}
