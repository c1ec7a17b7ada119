// internal/controltable/descriptor.go
package controltable

import (
	"errors"
	"fmt"

	"github.com/tamzrod/servo-replicator/internal/units"
)

// Control table errors.
var (
	ErrConfiguration   = errors.New("control table configuration error")
	ErrUnknownRegister = errors.New("unknown register")
	ErrSchemaFrozen    = errors.New("control table schema is frozen")
	ErrAccessViolation = errors.New("register access violation")

	// ErrDomain is units.ErrDomain, re-exported for callers of the raw codec.
	ErrDomain = units.ErrDomain
)

// Access flags for registers.
type Access uint8

const (
	// AccessRead allows reading the register.
	AccessRead Access = 1 << iota

	// AccessWrite allows writing the register.
	AccessWrite

	// Common access combinations.

	AccessReadOnly  = AccessRead
	AccessWriteOnly = AccessWrite
	AccessReadWrite = AccessRead | AccessWrite
)

// CanRead returns true if reading is allowed.
func (a Access) CanRead() bool { return a&AccessRead != 0 }

// CanWrite returns true if writing is allowed.
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

// String returns the access flags as a string.
func (a Access) String() string {
	var s string
	if a.CanRead() {
		s += "R"
	}
	if a.CanWrite() {
		s += "W"
	}
	if s == "" {
		return "-"
	}
	return s
}

// Descriptor describes one register of the control table.
// Descriptors are handed out by value; the schema's copy never changes.
type Descriptor struct {
	// Name is the register identifier, e.g. "goal_position".
	Name string

	// Address is the byte offset in the control table.
	Address uint16

	// Width is the byte count: 1, 2 or 4.
	Width int

	// Signed selects two's complement decoding.
	Signed bool

	// Access defines the allowed operations.
	Access Access

	// Codec converts raw values to engineering units. Nil means raw.
	Codec units.Converter
}

// End returns the first address past the register.
func (d Descriptor) End() int {
	return int(d.Address) + d.Width
}

// Overlaps reports whether the byte ranges of d and o intersect.
func (d Descriptor) Overlaps(o Descriptor) bool {
	return int(d.Address) < o.End() && int(o.Address) < d.End()
}

// String returns a compact description, e.g. "goal_position@116/4 RW".
func (d Descriptor) String() string {
	sign := "u"
	if d.Signed {
		sign = "i"
	}
	s := fmt.Sprintf("%s@%d/%s%d %s", d.Name, d.Address, sign, d.Width*8, d.Access)
	if d.Codec != nil {
		s += " " + d.Codec.String()
	}
	return s
}

func validWidth(w int) bool {
	return w == 1 || w == 2 || w == 4
}
