package bind

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/chazu/tether/sys"
)

// tagUpper is the fixed upper half of every tag. Hosts treat an all-zero
// tag as "untagged", so it must not be zero.
const tagUpper uint64 = 1

var moduleTag = sync.OnceValue(func() sys.TypeTag {
	tag, err := newTag()
	if err != nil {
		panic(fmt.Sprintf("bind: cannot generate type tag: %s", err))
	}
	log.Debugf("type tag %s", tag)
	return tag
})

// ModuleTag returns the type tag stamped on every value boxed by this
// process. It is generated on first use and never changes.
func ModuleTag() sys.TypeTag { return moduleTag() }

func newTag() (sys.TypeTag, error) {
	var b [8]byte
	if err := fillRandom(b[:]); err != nil {
		return sys.TypeTag{}, err
	}
	return sys.TypeTag{Lower: binary.LittleEndian.Uint64(b[:]), Upper: tagUpper}, nil
}
