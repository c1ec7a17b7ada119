// internal/controltable/raw.go
package controltable

import (
	"encoding/binary"
	"fmt"

	"github.com/tamzrod/servo-replicator/internal/units"
)

// DecodeRaw reads a little-endian integer of width bytes from buf.
// Signed fields are two's complement.
func DecodeRaw(buf []byte, width int, signed bool) (int64, error) {
	if !validWidth(width) {
		return 0, fmt.Errorf("%w: width %d not in {1,2,4}", ErrConfiguration, width)
	}
	if len(buf) < width {
		return 0, fmt.Errorf("controltable: short buffer: got=%d want=%d", len(buf), width)
	}

	switch width {
	case 1:
		if signed {
			return int64(int8(buf[0])), nil
		}
		return int64(buf[0]), nil
	case 2:
		v := binary.LittleEndian.Uint16(buf)
		if signed {
			return int64(int16(v)), nil
		}
		return int64(v), nil
	default:
		v := binary.LittleEndian.Uint32(buf)
		if signed {
			return int64(int32(v)), nil
		}
		return int64(v), nil
	}
}

// EncodeRaw serializes v as a little-endian integer of width bytes.
// A value that does not fit the width and signedness is ErrDomain.
func EncodeRaw(v int64, width int, signed bool) ([]byte, error) {
	if !validWidth(width) {
		return nil, fmt.Errorf("%w: width %d not in {1,2,4}", ErrConfiguration, width)
	}
	if !units.Fits(v, width, signed) {
		return nil, fmt.Errorf("%w: %d does not fit %d-byte register (signed=%v)", ErrDomain, v, width, signed)
	}

	out := make([]byte, width)
	switch width {
	case 1:
		out[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(out, uint16(v))
	default:
		binary.LittleEndian.PutUint32(out, uint32(v))
	}
	return out, nil
}

// Decode reads the register's raw value from buf.
func (d Descriptor) Decode(buf []byte) (int64, error) {
	return DecodeRaw(buf, d.Width, d.Signed)
}

// Encode serializes a raw value for the register.
func (d Descriptor) Encode(v int64) ([]byte, error) {
	return EncodeRaw(v, d.Width, d.Signed)
}
