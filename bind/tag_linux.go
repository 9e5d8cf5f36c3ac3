//go:build linux

package bind

import (
	"errors"

	"golang.org/x/sys/unix"
)

// fillRandom reads from the kernel CSPRNG, blocking until it is seeded.
func fillRandom(b []byte) error {
	for len(b) > 0 {
		n, err := unix.Getrandom(b, 0)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
