package vm

import (
	"fmt"

	"github.com/chazu/tether/sys"
)

// DefaultMaxScopeDepth bounds handle scope nesting when Options leaves it
// unset.
const DefaultMaxScopeDepth = 4096

// slot holds one rooted value. serial identifies the scope that owns it.
type slot struct {
	value  Value
	serial uint32
}

// handleScope is one frame of the slot stack.
type handleScope struct {
	serial     uint32
	base       int // first slot owned by this scope
	escapable  bool
	escapeSlot int // reserved slot in the parent, or -1
	escaped    bool
}

// scopeStack roots every Local handed out to native code.
//
// A Local encodes the owning scope's serial in its upper 32 bits and the
// slot index in its lower 32 bits. Serials are never reused, so a Local
// whose scope has closed no longer matches its slot.
type scopeStack struct {
	slots      []slot
	scopes     []handleScope
	nextSerial uint32
	maxDepth   int
}

func newScopeStack(maxDepth int) *scopeStack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxScopeDepth
	}
	return &scopeStack{nextSerial: 1, maxDepth: maxDepth}
}

func (s *scopeStack) depth() int {
	return len(s.scopes)
}

func (s *scopeStack) top() *handleScope {
	if len(s.scopes) == 0 {
		return nil
	}
	return &s.scopes[len(s.scopes)-1]
}

func (s *scopeStack) push(escapable bool) (*handleScope, sys.Status) {
	if len(s.scopes) >= s.maxDepth {
		return nil, sys.StatusHandleScopeExhausted
	}
	escapeSlot := -1
	if escapable {
		parent := s.top()
		if parent == nil {
			return nil, sys.StatusInvalidArg
		}
		escapeSlot = len(s.slots)
		s.slots = append(s.slots, slot{value: Undefined, serial: parent.serial})
	}
	s.scopes = append(s.scopes, handleScope{
		serial:     s.nextSerial,
		base:       len(s.slots),
		escapable:  escapable,
		escapeSlot: escapeSlot,
	})
	s.nextSerial++
	return s.top(), sys.StatusOK
}

func (s *scopeStack) pop(serial uint32) sys.Status {
	top := s.top()
	if top == nil || top.serial != serial {
		return sys.StatusHandleScopeMismatch
	}
	for i := top.base; i < len(s.slots); i++ {
		s.slots[i] = slot{}
	}
	s.slots = s.slots[:top.base]
	s.scopes = s.scopes[:len(s.scopes)-1]
	return sys.StatusOK
}

// find returns the open scope with the given serial.
func (s *scopeStack) find(serial uint32) *handleScope {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].serial == serial {
			return &s.scopes[i]
		}
	}
	return nil
}

// root places v in a fresh slot of the innermost scope.
func (s *scopeStack) root(v Value) (sys.Local, bool) {
	top := s.top()
	if top == nil {
		return 0, false
	}
	idx := len(s.slots)
	s.slots = append(s.slots, slot{value: v, serial: top.serial})
	return encodeLocal(top.serial, idx), true
}

// resolve returns the value a Local refers to, if it is still rooted.
func (s *scopeStack) resolve(l sys.Local) (Value, bool) {
	serial, idx := decodeLocal(l)
	if serial == 0 || idx >= len(s.slots) {
		return Undefined, false
	}
	sl := s.slots[idx]
	if sl.serial != serial {
		return Undefined, false
	}
	return sl.value, true
}

// escape writes v into the reserved parent slot of an escapable scope.
func (s *scopeStack) escape(serial uint32, v Value) (sys.Local, sys.Status) {
	hs := s.find(serial)
	if hs == nil || !hs.escapable {
		return 0, sys.StatusHandleScopeMismatch
	}
	if hs.escaped {
		return 0, sys.StatusEscapeCalledTwice
	}
	hs.escaped = true
	parent := s.slots[hs.escapeSlot].serial
	s.slots[hs.escapeSlot].value = v
	return encodeLocal(parent, hs.escapeSlot), sys.StatusOK
}

// forEachRoot calls fn for every rooted value.
func (s *scopeStack) forEachRoot(fn func(Value)) {
	for _, sl := range s.slots {
		if sl.serial != 0 {
			fn(sl.value)
		}
	}
}

func encodeLocal(serial uint32, idx int) sys.Local {
	return sys.Local(uint64(serial)<<32 | uint64(uint32(idx)))
}

func decodeLocal(l sys.Local) (serial uint32, idx int) {
	return uint32(uint64(l) >> 32), int(uint32(uint64(l)))
}

func (hs *handleScope) String() string {
	return fmt.Sprintf("scope(serial=%d base=%d escapable=%t)", hs.serial, hs.base, hs.escapable)
}
