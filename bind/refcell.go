package bind

import (
	"errors"
	"sync"
)

var (
	// ErrAlreadyBorrowed is returned by BorrowMut while any borrow is out.
	ErrAlreadyBorrowed = errors.New("bind: already borrowed")
	// ErrAlreadyMutablyBorrowed is returned by Borrow while a mutable
	// borrow is out.
	ErrAlreadyMutablyBorrowed = errors.New("bind: already mutably borrowed")
)

// RefCell is a boxable value with dynamically checked borrows. Any number
// of shared borrows may be out at once, or a single mutable one. Borrows
// may be held across calls back into the host; a native function that
// re-enters with the same cell gets an error instead of a torn value.
type RefCell[U any] struct {
	mu      sync.Mutex
	value   U
	readers int
	writing bool
}

// NewRefCell returns a cell holding v.
func NewRefCell[U any](v U) *RefCell[U] {
	return &RefCell[U]{value: v}
}

// Borrow takes a shared borrow and returns the current value. The
// returned release func ends the borrow; calling it more than once is a
// no-op.
func (c *RefCell[U]) Borrow() (U, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writing {
		var zero U
		return zero, func() {}, ErrAlreadyMutablyBorrowed
	}
	c.readers++
	var once sync.Once
	return c.value, func() {
		once.Do(func() {
			c.mu.Lock()
			c.readers--
			c.mu.Unlock()
		})
	}, nil
}

// BorrowMut takes the mutable borrow. The pointer is valid until release
// is called.
func (c *RefCell[U]) BorrowMut() (*U, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writing || c.readers > 0 {
		return nil, func() {}, ErrAlreadyBorrowed
	}
	c.writing = true
	var once sync.Once
	return &c.value, func() {
		once.Do(func() {
			c.mu.Lock()
			c.writing = false
			c.mu.Unlock()
		})
	}, nil
}

// Finalize implements Finalizer by forwarding to the held value.
func (c *RefCell[U]) Finalize() {
	if f, ok := any(c.value).(Finalizer); ok {
		f.Finalize()
	}
}
