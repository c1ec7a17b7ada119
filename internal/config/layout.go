// internal/config/layout.go
package config

// Mirror layout rules (LOCKED):
//   - 1 and 2 byte registers take one holding register
//   - 4 byte registers take two, high word first
//   - scaled registers are int32 and take two, high word first

// FieldRegisters returns how many holding registers one field occupies.
func FieldRegisters(width int, scaled bool) uint16 {
	if scaled || width > 2 {
		return 2
	}
	return 1
}

// DeviceFootprint returns the holding registers one device of g occupies.
// widths maps register name to byte width.
func DeviceFootprint(g GroupConfig, widths map[string]int) uint16 {
	var n uint16
	for _, name := range g.Registers {
		_, scaled := g.Scale[name]
		n += FieldRegisters(widths[name], scaled)
	}
	return n
}

// EffectiveStride resolves a zero stride to the device footprint.
func EffectiveStride(t TargetConfig, footprint uint16) uint16 {
	if t.Stride == 0 {
		return footprint
	}
	return t.Stride
}
