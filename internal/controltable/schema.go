// internal/controltable/schema.go
package controltable

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// DefaultSize is the control table bound used when none is given.
const DefaultSize = 256

// Schema is the registry of a device family's control table.
// It is built once at startup and frozen by the first successful Lookup
// or an explicit Seal. A frozen schema is safe for concurrent readers.
type Schema struct {
	mu     sync.RWMutex
	sealed atomic.Bool

	name   string
	size   int
	regs   []Descriptor
	byName map[string]int
}

// NewSchema creates an empty schema for a table of size bytes.
func NewSchema(name string, size int) *Schema {
	if size <= 0 {
		size = DefaultSize
	}
	return &Schema{
		name:   name,
		size:   size,
		byName: make(map[string]int),
	}
}

// Name returns the schema name, e.g. "MX/2.0".
func (s *Schema) Name() string { return s.name }

// Size returns the control table bound in bytes.
func (s *Schema) Size() int { return s.size }

// Register adds a descriptor.
// Layout errors are ErrConfiguration; registering after the schema froze
// is ErrSchemaFrozen.
func (s *Schema) Register(d Descriptor) (Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed.Load() {
		return Descriptor{}, fmt.Errorf("%w: register %q", ErrSchemaFrozen, d.Name)
	}

	if err := s.validate(d); err != nil {
		return Descriptor{}, err
	}

	s.byName[d.Name] = len(s.regs)
	s.regs = append(s.regs, d)
	return d, nil
}

// MustRegister is Register for static layouts. It panics on error.
func (s *Schema) MustRegister(d Descriptor) Descriptor {
	d, err := s.Register(d)
	if err != nil {
		panic(err)
	}
	return d
}

// validate checks d against the bound and the registered entries.
// Caller holds s.mu.
func (s *Schema) validate(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: register at %d has no name", ErrConfiguration, d.Address)
	}
	if _, dup := s.byName[d.Name]; dup {
		return fmt.Errorf("%w: register %q already defined", ErrConfiguration, d.Name)
	}
	if !validWidth(d.Width) {
		return fmt.Errorf("%w: register %q width %d not in {1,2,4}", ErrConfiguration, d.Name, d.Width)
	}
	if d.End() > s.size {
		return fmt.Errorf(
			"%w: register %q range %d-%d exceeds table size %d",
			ErrConfiguration, d.Name, d.Address, d.End()-1, s.size,
		)
	}
	if d.Codec != nil && d.Codec.RawWidth() > d.Width {
		return fmt.Errorf(
			"%w: register %q is %d bytes but codec %s needs %d",
			ErrConfiguration, d.Name, d.Width, d.Codec, d.Codec.RawWidth(),
		)
	}

	for _, r := range s.regs {
		if r.Overlaps(d) {
			return fmt.Errorf(
				"%w: register %q range %d-%d overlaps %q range %d-%d",
				ErrConfiguration,
				d.Name, d.Address, d.End()-1,
				r.Name, r.Address, r.End()-1,
			)
		}
	}

	return nil
}

// Lookup returns the descriptor registered under name and freezes the schema.
func (s *Schema) Lookup(name string) (Descriptor, error) {
	s.mu.RLock()
	i, ok := s.byName[name]
	var d Descriptor
	if ok {
		d = s.regs[i]
	}
	s.mu.RUnlock()

	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q in %s", ErrUnknownRegister, name, s.name)
	}

	s.sealed.Store(true)
	return d, nil
}

// Seal freezes the schema. Later Register calls fail with ErrSchemaFrozen.
func (s *Schema) Seal() {
	s.sealed.Store(true)
}

// Sealed reports whether the schema is frozen.
func (s *Schema) Sealed() bool {
	return s.sealed.Load()
}

// Descriptors returns all registers ordered by address.
func (s *Schema) Descriptors() []Descriptor {
	s.mu.RLock()
	out := make([]Descriptor, len(s.regs))
	copy(out, s.regs)
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Len returns the number of registers.
func (s *Schema) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.regs)
}
