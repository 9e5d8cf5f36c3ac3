package vm

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical encoding so equal snapshots encode to equal
// bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is a point-in-time description of a VM's heap and scopes.
type Snapshot struct {
	VM      string           `cbor:"1,keyasint"`
	Objects []ObjectSnapshot `cbor:"2,keyasint"`
	Scopes  []ScopeSnapshot  `cbor:"3,keyasint"`
	Modules []string         `cbor:"4,keyasint,omitempty"`
	Pending bool             `cbor:"5,keyasint,omitempty"`
	GCCount uint64           `cbor:"6,keyasint"`
}

// ObjectSnapshot describes one heap object.
type ObjectSnapshot struct {
	ID       uint32   `cbor:"1,keyasint"`
	Kind     string   `cbor:"2,keyasint"`
	Keys     []string `cbor:"3,keyasint,omitempty"`
	Length   int      `cbor:"4,keyasint,omitempty"`
	Name     string   `cbor:"5,keyasint,omitempty"`
	TagLower uint64   `cbor:"6,keyasint,omitempty"`
	TagUpper uint64   `cbor:"7,keyasint,omitempty"`
}

// ScopeSnapshot describes one open handle scope.
type ScopeSnapshot struct {
	Serial    uint32 `cbor:"1,keyasint"`
	Slots     int    `cbor:"2,keyasint"`
	Escapable bool   `cbor:"3,keyasint,omitempty"`
	Escaped   bool   `cbor:"4,keyasint,omitempty"`
}

// Snapshot captures the VM's current state. Objects are ordered by id.
func (v *VM) Snapshot() *Snapshot {
	s := &Snapshot{
		VM:      v.id,
		Modules: v.Modules(),
		Pending: v.hasPending,
		GCCount: v.gcCount,
	}

	ids := make([]uint32, 0, len(v.heap.objects))
	for id := range v.heap.objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		o := v.heap.objects[id]
		os := ObjectSnapshot{
			ID:     o.id,
			Kind:   o.kind.String(),
			Keys:   append([]string(nil), o.keys...),
			Length: len(o.elems),
			Name:   o.name,
		}
		if o.tagged {
			os.TagLower, os.TagUpper = o.tag.Lower, o.tag.Upper
		}
		s.Objects = append(s.Objects, os)
	}

	for i, hs := range v.scopes.scopes {
		// A nested escapable scope's reserved slot sits below its base and
		// is counted here, in the parent.
		end := len(v.scopes.slots)
		if i+1 < len(v.scopes.scopes) {
			end = v.scopes.scopes[i+1].base
		}
		s.Scopes = append(s.Scopes, ScopeSnapshot{
			Serial:    hs.serial,
			Slots:     end - hs.base,
			Escapable: hs.escapable,
			Escaped:   hs.escaped,
		})
	}
	return s
}

// MarshalSnapshot serializes a Snapshot to CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("vm: unmarshal snapshot: %w", err)
	}
	return &s, nil
}
