// internal/register/combined.go
package register

import (
	"context"
	"errors"
	"fmt"
	"sort"

	ct "github.com/tamzrod/servo-replicator/internal/controltable"
)

// Field slices one value out of a combined read buffer.
type Field struct {
	Name   string
	Offset int
	Width  int
	Signed bool
}

// CombinedSpec is one read spanning several registers.
// Geometry only: fields carry no unit conversion.
type CombinedSpec struct {
	Address uint16
	Length  uint16
	Fields  []Field
}

// Values holds one device's raw field values in field order.
type Values []int64

// Validate checks that every field lies inside the span.
func (s CombinedSpec) Validate() error {
	if s.Length == 0 {
		return errors.New("register: combined read length must be > 0")
	}
	if len(s.Fields) == 0 {
		return errors.New("register: combined read needs at least one field")
	}
	for _, f := range s.Fields {
		if f.Width != 1 && f.Width != 2 && f.Width != 4 {
			return fmt.Errorf("register: field %q width %d not in {1,2,4}", f.Name, f.Width)
		}
		if f.Offset < 0 || f.Offset+f.Width > int(s.Length) {
			return fmt.Errorf(
				"register: field %q bytes %d-%d outside combined span of %d bytes",
				f.Name, f.Offset, f.Offset+f.Width-1, s.Length,
			)
		}
	}
	return nil
}

// SpanOf builds a combined spec covering the given registers.
// Fields keep argument order; the span runs from the lowest address to the
// highest end, gaps included.
func SpanOf(descs ...ct.Descriptor) (CombinedSpec, error) {
	if len(descs) == 0 {
		return CombinedSpec{}, errors.New("register: span needs at least one register")
	}

	byAddr := make([]ct.Descriptor, len(descs))
	copy(byAddr, descs)
	sort.Slice(byAddr, func(i, j int) bool { return byAddr[i].Address < byAddr[j].Address })

	for i := 1; i < len(byAddr); i++ {
		if byAddr[i].Overlaps(byAddr[i-1]) {
			return CombinedSpec{}, fmt.Errorf("register: %q overlaps %q in span", byAddr[i].Name, byAddr[i-1].Name)
		}
	}

	start := int(byAddr[0].Address)
	end := 0
	for _, d := range byAddr {
		if !d.Access.CanRead() {
			return CombinedSpec{}, fmt.Errorf("%w: %s is not readable", ct.ErrAccessViolation, d.Name)
		}
		if d.End() > end {
			end = d.End()
		}
	}

	spec := CombinedSpec{
		Address: uint16(start),
		Length:  uint16(end - start),
	}
	for _, d := range descs {
		spec.Fields = append(spec.Fields, Field{
			Name:   d.Name,
			Offset: int(d.Address) - start,
			Width:  d.Width,
			Signed: d.Signed,
		})
	}
	return spec, nil
}

// ReadCombined issues one transport read covering spec for all devices and
// slices each buffer into raw field values.
// The result has one entry per device, in devs order. Any failure discards
// the whole call.
func ReadCombined(ctx context.Context, t Transport, spec CombinedSpec, devs []DeviceID) ([]Values, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	bufs, err := t.Read(ctx, devs, spec.Address, spec.Length)
	if err != nil {
		return nil, transportErr("combined read", spec.Address, err)
	}

	out := make([]Values, 0, len(devs))
	for _, dev := range devs {
		buf, ok := bufs[dev]
		if !ok || len(buf) < int(spec.Length) {
			return nil, transportErr("combined read", spec.Address,
				fmt.Errorf("%w: device %d returned %d of %d bytes", errShortResponse, dev, len(buf), spec.Length))
		}

		vals, err := spec.Decode(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, vals)
	}
	return out, nil
}

// Decode slices one buffer into raw field values.
func (s CombinedSpec) Decode(buf []byte) (Values, error) {
	vals := make(Values, len(s.Fields))
	for i, f := range s.Fields {
		if f.Offset+f.Width > len(buf) {
			return nil, fmt.Errorf("register: field %q past end of %d-byte buffer", f.Name, len(buf))
		}
		v, err := ct.DecodeRaw(buf[f.Offset:f.Offset+f.Width], f.Width, f.Signed)
		if err != nil {
			return nil, fmt.Errorf("register: field %q: %w", f.Name, err)
		}
		vals[i] = v
	}
	return vals, nil
}
