// internal/register/accessor.go
package register

import (
	"context"
	"errors"
	"fmt"
	"math"

	ct "github.com/tamzrod/servo-replicator/internal/controltable"
)

// errShortResponse marks a transport that broke the read contract.
var errShortResponse = errors.New("short or missing response")

// Accessor binds a control table schema to a transport.
// It performs exactly one transport call per operation and never retries.
type Accessor struct {
	schema    *ct.Schema
	transport Transport
}

// NewAccessor creates an accessor. The schema should be sealed.
func NewAccessor(schema *ct.Schema, t Transport) *Accessor {
	return &Accessor{schema: schema, transport: t}
}

// Schema returns the accessor's schema.
func (a *Accessor) Schema() *ct.Schema { return a.schema }

// Read reads one register of one device and returns its engineering value.
// Registers without a codec return the raw integer.
func (a *Accessor) Read(ctx context.Context, d ct.Descriptor, dev DeviceID) (float64, error) {
	raw, err := a.ReadRaw(ctx, d, dev)
	if err != nil {
		return 0, err
	}
	return decodeValue(d, raw)
}

// ReadNamed looks name up in the schema and reads it.
func (a *Accessor) ReadNamed(ctx context.Context, name string, dev DeviceID) (float64, error) {
	d, err := a.schema.Lookup(name)
	if err != nil {
		return 0, err
	}
	return a.Read(ctx, d, dev)
}

// ReadRaw reads one register of one device without unit conversion.
func (a *Accessor) ReadRaw(ctx context.Context, d ct.Descriptor, dev DeviceID) (int64, error) {
	raws, err := a.readRaw(ctx, d, []DeviceID{dev})
	if err != nil {
		return 0, err
	}
	return raws[dev], nil
}

// ReadMany reads one register of several devices in a single transport call.
func (a *Accessor) ReadMany(ctx context.Context, d ct.Descriptor, devs []DeviceID) (map[DeviceID]float64, error) {
	raws, err := a.readRaw(ctx, d, devs)
	if err != nil {
		return nil, err
	}

	out := make(map[DeviceID]float64, len(raws))
	for dev, raw := range raws {
		v, err := decodeValue(d, raw)
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", dev, err)
		}
		out[dev] = v
	}
	return out, nil
}

func (a *Accessor) readRaw(ctx context.Context, d ct.Descriptor, devs []DeviceID) (map[DeviceID]int64, error) {
	if !d.Access.CanRead() {
		return nil, fmt.Errorf("%w: %s is not readable", ct.ErrAccessViolation, d.Name)
	}

	bufs, err := a.transport.Read(ctx, devs, d.Address, uint16(d.Width))
	if err != nil {
		return nil, transportErr("read", d.Address, err)
	}

	out := make(map[DeviceID]int64, len(devs))
	for _, dev := range devs {
		buf, ok := bufs[dev]
		if !ok || len(buf) < d.Width {
			return nil, transportErr("read", d.Address,
				fmt.Errorf("%w: device %d returned %d of %d bytes", errShortResponse, dev, len(buf), d.Width))
		}
		raw, err := d.Decode(buf)
		if err != nil {
			return nil, err
		}
		out[dev] = raw
	}
	return out, nil
}

// Write encodes value and writes it to one register of one device.
// Registers without a codec take value as the raw integer.
func (a *Accessor) Write(ctx context.Context, d ct.Descriptor, dev DeviceID, value float64) error {
	buf, err := encodeValue(d, value)
	if err != nil {
		return err
	}

	if err := a.transport.Write(ctx, dev, d.Address, buf); err != nil {
		return transportErr("write", d.Address, err)
	}
	return nil
}

// WriteNamed looks name up in the schema and writes it.
func (a *Accessor) WriteNamed(ctx context.Context, name string, dev DeviceID, value float64) error {
	d, err := a.schema.Lookup(name)
	if err != nil {
		return err
	}
	return a.Write(ctx, d, dev, value)
}

// WriteRaw writes a raw integer to one register of one device.
func (a *Accessor) WriteRaw(ctx context.Context, d ct.Descriptor, dev DeviceID, raw int64) error {
	if !d.Access.CanWrite() {
		return fmt.Errorf("%w: %s is read-only", ct.ErrAccessViolation, d.Name)
	}
	buf, err := d.Encode(raw)
	if err != nil {
		return fmt.Errorf("register: %s: %w", d.Name, err)
	}
	if err := a.transport.Write(ctx, dev, d.Address, buf); err != nil {
		return transportErr("write", d.Address, err)
	}
	return nil
}

// WriteMany writes one register on several devices.
// Transports implementing SyncWriter get a single call; otherwise devices are
// written one by one and the first failure stops the loop.
func (a *Accessor) WriteMany(ctx context.Context, d ct.Descriptor, values map[DeviceID]float64) error {
	bufs := make(map[DeviceID][]byte, len(values))
	for dev, v := range values {
		buf, err := encodeValue(d, v)
		if err != nil {
			return fmt.Errorf("device %d: %w", dev, err)
		}
		bufs[dev] = buf
	}

	if sw, ok := a.transport.(SyncWriter); ok {
		if err := sw.SyncWrite(ctx, d.Address, bufs); err != nil {
			return transportErr("sync write", d.Address, err)
		}
		return nil
	}

	for dev, buf := range bufs {
		if err := a.transport.Write(ctx, dev, d.Address, buf); err != nil {
			return transportErr("write", d.Address, err)
		}
	}
	return nil
}

// ---- value conversion ----

func decodeValue(d ct.Descriptor, raw int64) (float64, error) {
	if d.Codec == nil {
		return float64(raw), nil
	}
	v, err := d.Codec.Decode(raw)
	if err != nil {
		return 0, fmt.Errorf("register: %s: %w", d.Name, err)
	}
	return v, nil
}

func encodeValue(d ct.Descriptor, value float64) ([]byte, error) {
	if !d.Access.CanWrite() {
		return nil, fmt.Errorf("%w: %s is read-only", ct.ErrAccessViolation, d.Name)
	}

	var raw int64
	if d.Codec != nil {
		r, err := d.Codec.Encode(value)
		if err != nil {
			return nil, fmt.Errorf("register: %s: %w", d.Name, err)
		}
		raw = r
	} else {
		if value != math.Trunc(value) || math.Abs(value) > math.MaxUint32 {
			return nil, fmt.Errorf("register: %s: %w: raw value %v is not a register integer", d.Name, ct.ErrDomain, value)
		}
		raw = int64(value)
	}

	buf, err := d.Encode(raw)
	if err != nil {
		return nil, fmt.Errorf("register: %s: %w", d.Name, err)
	}
	return buf, nil
}
