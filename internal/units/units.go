// internal/units/units.go
package units

import (
	"errors"
	"math"
)

// ErrDomain reports an engineering or raw value outside a converter's domain.
var ErrDomain = errors.New("value outside converter domain")

// ---- wire constants (MX family) ----

const (
	// StepsPerRevolution is the angular resolution of a position register.
	StepsPerRevolution = 4096

	// rpmPerStep is the velocity register unit.
	rpmPerStep = 0.114

	// radPerSecPerRPM converts rev/min to rad/s.
	radPerSecPerRPM = 0.10472

	// loadFullScale is the raw load value for 100 percent torque.
	loadFullScale = 1023

	// magnitudeModulo extracts the 10-bit magnitude of oriented fields.
	magnitudeModulo = 1024

	// velocitySignBit is bit 11; bit 10 stays reserved.
	velocitySignBit uint16 = 1 << 11

	// loadSignBit is bit 10, directly above the magnitude.
	loadSignBit uint16 = 1 << 10
)

// ---- angular position ----

// PositionToRadians converts a raw position to radians, centered on 2048.
// Works in joint and multi-turn mode.
func PositionToRadians(raw int64) float64 {
	return float64(2*math.Pi*float64(raw)/StepsPerRevolution) - math.Pi
}

// RadiansToPosition converts radians to a raw position, truncating toward zero.
// No clamping: the caller owns the operating-mode range.
func RadiansToPosition(rad float64) int64 {
	return int64(StepsPerRevolution * (math.Pi + rad) / (2 * math.Pi))
}

// ---- velocity ----

// AbsVelocityToRadPerSec converts an unsigned velocity magnitude to rad/s.
func AbsVelocityToRadPerSec(raw uint16) float64 {
	rpm := float64(raw) * rpmPerStep
	return rpm * radPerSecPerRPM
}

// RadPerSecToAbsVelocity converts rad/s to an unsigned velocity magnitude.
func RadPerSecToAbsVelocity(v float64) uint16 {
	rpm := v / radPerSecPerRPM
	return uint16(rpm / rpmPerStep)
}

// OrientedVelocityToRadPerSec decodes a sign-magnitude velocity word.
// Bit 11 set means positive; only the low 10 bits carry the magnitude.
func OrientedVelocityToRadPerSec(raw uint16) float64 {
	v := AbsVelocityToRadPerSec(raw % magnitudeModulo)
	if raw&velocitySignBit != 0 {
		return v
	}
	return -v
}

// RadPerSecToOrientedVelocity encodes a sign-magnitude velocity word.
func RadPerSecToOrientedVelocity(v float64) uint16 {
	raw := RadPerSecToAbsVelocity(math.Abs(v))
	if v < 0 {
		return raw
	}
	return raw + velocitySignBit
}

// ---- torque / load ----

// LoadToTorque converts an unsigned load in [0,1023] to a torque percentage.
func LoadToTorque(raw uint16) float64 {
	return float64(raw) / loadFullScale * 100
}

// TorqueToLoad converts a torque percentage in [0,100] to an unsigned load.
func TorqueToLoad(pct float64) (uint16, error) {
	if !(pct >= 0 && pct <= 100) {
		return 0, fmtDomain("torque %v%% outside [0,100]", pct)
	}
	return uint16(pct * loadFullScale / 100), nil
}

// OrientedLoadToTorque decodes a sign-magnitude load word.
// Bit 10 set means positive.
func OrientedLoadToTorque(raw uint16) float64 {
	t := LoadToTorque(raw % magnitudeModulo)
	if raw&loadSignBit != 0 {
		return t
	}
	return -t
}

// TorqueToOrientedLoad encodes a sign-magnitude load word.
func TorqueToOrientedLoad(pct float64) (uint16, error) {
	raw, err := TorqueToLoad(math.Abs(pct))
	if err != nil {
		return 0, err
	}
	if pct < 0 {
		return raw, nil
	}
	return raw + loadSignBit, nil
}
