package bind

import (
	"errors"
	"testing"

	"github.com/chazu/tether/vm"
)

func TestRefCell_SharedBorrows(t *testing.T) {
	c := NewRefCell("hello")

	a, releaseA, err := c.Borrow()
	if err != nil {
		t.Fatalf("borrow: %s", err)
	}
	b, releaseB, err := c.Borrow()
	if err != nil {
		t.Fatalf("second borrow: %s", err)
	}
	if a != "hello" || b != "hello" {
		t.Errorf("expected hello twice, got %q and %q", a, b)
	}

	if _, _, err := c.BorrowMut(); !errors.Is(err, ErrAlreadyBorrowed) {
		t.Errorf("expected ErrAlreadyBorrowed, got %v", err)
	}
	releaseA()
	releaseA()
	if _, _, err := c.BorrowMut(); !errors.Is(err, ErrAlreadyBorrowed) {
		t.Errorf("expected the second reader to still block, got %v", err)
	}
	releaseB()

	p, release, err := c.BorrowMut()
	if err != nil {
		t.Fatalf("borrow mut: %s", err)
	}
	*p = "bye"
	release()

	got, release, _ := c.Borrow()
	defer release()
	if got != "bye" {
		t.Errorf("expected bye, got %q", got)
	}
}

func TestRefCell_MutableBorrowExcludes(t *testing.T) {
	c := NewRefCell(1)

	_, release, err := c.BorrowMut()
	if err != nil {
		t.Fatalf("borrow mut: %s", err)
	}
	if _, _, err := c.Borrow(); !errors.Is(err, ErrAlreadyMutablyBorrowed) {
		t.Errorf("expected ErrAlreadyMutablyBorrowed, got %v", err)
	}
	if _, _, err := c.BorrowMut(); !errors.Is(err, ErrAlreadyBorrowed) {
		t.Errorf("expected ErrAlreadyBorrowed, got %v", err)
	}
	release()
	release()

	if _, release, err := c.Borrow(); err != nil {
		t.Errorf("expected a borrow after release, got %v", err)
	} else {
		release()
	}
}

func TestRefCell_BoxedFinalize(t *testing.T) {
	v := newVM(t, vm.Options{})
	cx := NewRoot(v)
	defer cx.Close()

	var finalized bool
	ExecuteScoped(cx, func(ccx *ComputeContext) struct{} {
		if _, err := BoxValue(ccx, NewRefCell(&cell{value: "drop", finalized: &finalized})); err != nil {
			t.Fatalf("box: %s", err)
		}
		return struct{}{}
	})

	v.Collect()
	if !finalized {
		t.Errorf("expected the cell's value to be finalized with its box")
	}
}
