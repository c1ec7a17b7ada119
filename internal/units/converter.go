// internal/units/converter.go
package units

import (
	"fmt"
	"math"
)

// Converter maps raw register integers to engineering values and back.
// Implementations are stateless. Round trips are approximate: raw domains
// are quantized and encoding truncates.
type Converter interface {
	// RawWidth is the raw domain width in bytes.
	RawWidth() int
	// Signed reports whether the raw domain is two's complement.
	Signed() bool
	Decode(raw int64) (float64, error)
	Encode(v float64) (int64, error)
	String() string
}

// Package-level converter singletons.
var (
	AnglePosition    Converter = anglePosition{}
	AbsoluteVelocity Converter = absoluteVelocity{}
	OrientedVelocity Converter = orientedVelocity{}
	AbsoluteTorque   Converter = absoluteTorque{}
	OrientedTorque   Converter = orientedTorque{}
)

// Fits reports whether raw is representable in width bytes.
func Fits(raw int64, width int, signed bool) bool {
	if width <= 0 {
		return false
	}
	if width >= 8 {
		return true
	}
	bits := uint(width * 8)
	if signed {
		min := -(int64(1) << (bits - 1))
		max := int64(1)<<(bits-1) - 1
		return raw >= min && raw <= max
	}
	return raw >= 0 && raw <= int64(1)<<bits-1
}

func checkRaw(c Converter, raw int64) error {
	if !Fits(raw, c.RawWidth(), c.Signed()) {
		return fmtDomain("raw %d does not fit %s (%d-bit)", raw, c, c.RawWidth()*8)
	}
	return nil
}

func fmtDomain(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrDomain}, args...)...)
}

// ---- angle position (int16 raw) ----

type anglePosition struct{}

func (anglePosition) RawWidth() int  { return 2 }
func (anglePosition) Signed() bool   { return true }
func (anglePosition) String() string { return "angle_position" }

func (c anglePosition) Decode(raw int64) (float64, error) {
	if err := checkRaw(c, raw); err != nil {
		return 0, err
	}
	return PositionToRadians(raw), nil
}

func (c anglePosition) Encode(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmtDomain("position %v rad", v)
	}
	raw := RadiansToPosition(v)
	if err := checkRaw(c, raw); err != nil {
		return 0, err
	}
	return raw, nil
}

// ---- absolute velocity (uint16 raw) ----

type absoluteVelocity struct{}

func (absoluteVelocity) RawWidth() int  { return 2 }
func (absoluteVelocity) Signed() bool   { return false }
func (absoluteVelocity) String() string { return "absolute_velocity" }

func (c absoluteVelocity) Decode(raw int64) (float64, error) {
	if err := checkRaw(c, raw); err != nil {
		return 0, err
	}
	return AbsVelocityToRadPerSec(uint16(raw)), nil
}

func (c absoluteVelocity) Encode(v float64) (int64, error) {
	if err := checkMagnitude(v, c); err != nil {
		return 0, err
	}
	return int64(RadPerSecToAbsVelocity(v)), nil
}

// checkMagnitude rejects speeds whose raw magnitude would not fit 16 bits.
func checkMagnitude(v float64, c Converter) error {
	if !(v >= 0) {
		return fmtDomain("%s %v rad/s is negative", c, v)
	}
	if velocityMagnitude(v) >= 1<<16 {
		return fmtDomain("%s %v rad/s exceeds the raw domain", c, v)
	}
	return nil
}

// ---- oriented velocity (uint16 raw, sign bit 11) ----

type orientedVelocity struct{}

func (orientedVelocity) RawWidth() int  { return 2 }
func (orientedVelocity) Signed() bool   { return false }
func (orientedVelocity) String() string { return "oriented_velocity" }

func (c orientedVelocity) Decode(raw int64) (float64, error) {
	if err := checkRaw(c, raw); err != nil {
		return 0, err
	}
	return OrientedVelocityToRadPerSec(uint16(raw)), nil
}

func (c orientedVelocity) Encode(v float64) (int64, error) {
	if math.IsNaN(v) {
		return 0, fmtDomain("%s NaN", c)
	}
	if velocityMagnitude(math.Abs(v)) >= magnitudeModulo {
		return 0, fmtDomain("%s %v rad/s exceeds the 10-bit magnitude", c, v)
	}
	return int64(RadPerSecToOrientedVelocity(v)), nil
}

// velocityMagnitude is the raw magnitude before narrowing to uint16.
func velocityMagnitude(v float64) float64 {
	return math.Trunc(v / radPerSecPerRPM / rpmPerStep)
}

// ---- absolute torque (uint16 raw) ----

type absoluteTorque struct{}

func (absoluteTorque) RawWidth() int  { return 2 }
func (absoluteTorque) Signed() bool   { return false }
func (absoluteTorque) String() string { return "absolute_torque" }

func (c absoluteTorque) Decode(raw int64) (float64, error) {
	if err := checkRaw(c, raw); err != nil {
		return 0, err
	}
	return LoadToTorque(uint16(raw)), nil
}

func (absoluteTorque) Encode(v float64) (int64, error) {
	raw, err := TorqueToLoad(v)
	return int64(raw), err
}

// ---- oriented torque (uint16 raw, sign bit 10) ----

type orientedTorque struct{}

func (orientedTorque) RawWidth() int  { return 2 }
func (orientedTorque) Signed() bool   { return false }
func (orientedTorque) String() string { return "oriented_torque" }

func (c orientedTorque) Decode(raw int64) (float64, error) {
	if err := checkRaw(c, raw); err != nil {
		return 0, err
	}
	return OrientedLoadToTorque(uint16(raw)), nil
}

func (orientedTorque) Encode(v float64) (int64, error) {
	raw, err := TorqueToOrientedLoad(v)
	return int64(raw), err
}
