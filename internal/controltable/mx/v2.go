// internal/controltable/mx/v2.go

// Package mx holds the control table of Robotis MX actuators (MX-28, MX-64,
// MX-106) speaking protocol 2.0.
package mx

import (
	ct "github.com/tamzrod/servo-replicator/internal/controltable"
	"github.com/tamzrod/servo-replicator/internal/units"
)

// SchemaName identifies the layout in logs and errors.
const SchemaName = "MX/2.0"

// TableSize is the addressable size of the control table.
const TableSize = 256

const (
	r  = ct.AccessReadOnly
	rw = ct.AccessReadWrite
)

// NewV2 builds and seals the MX protocol 2.0 schema.
// The layout is static: a registration error here is a programming error.
func NewV2() *ct.Schema {
	s := ct.NewSchema(SchemaName, TableSize)

	for _, d := range v2Layout {
		s.MustRegister(d)
	}

	s.Seal()
	return s
}

var v2Layout = []ct.Descriptor{
	// ---- EEPROM area ----

	{Name: "model_number", Address: 0, Width: 2, Access: r},
	{Name: "model_information", Address: 2, Width: 4, Access: r},
	{Name: "firmware_version", Address: 6, Width: 1, Access: r},
	{Name: "id", Address: 7, Width: 1, Access: rw},
	{Name: "baudrate", Address: 8, Width: 1, Access: rw},
	{Name: "return_delay_time", Address: 9, Width: 1, Access: rw},
	{Name: "drive_mode", Address: 10, Width: 1, Access: rw},
	{Name: "operating_mode", Address: 11, Width: 1, Access: rw},
	{Name: "secondary_id", Address: 12, Width: 1, Access: rw},
	{Name: "protocol_type", Address: 13, Width: 1, Access: rw},
	// home position offset
	{Name: "homing_offset", Address: 20, Width: 4, Signed: true, Access: rw},
	// unit is about 0.229 rpm
	{Name: "moving_threshold", Address: 24, Width: 4, Access: rw},
	// unit is about 1 degree C
	{Name: "temperature_limit", Address: 31, Width: 1, Access: rw},
	// unit is about 0.1 V
	{Name: "max_voltage_limit", Address: 32, Width: 2, Access: rw},
	{Name: "min_voltage_limit", Address: 34, Width: 2, Access: rw},
	// unit is about 0.113 %
	{Name: "pwm_limit", Address: 36, Width: 2, Access: rw},
	// unit is about 3.36 mA
	{Name: "current_limit", Address: 38, Width: 2, Access: rw},
	// unit is 214.577 rev/min2
	{Name: "acceleration_limit", Address: 40, Width: 4, Access: rw},
	// unit is about 0.229 rpm
	{Name: "velocity_limit", Address: 44, Width: 4, Access: rw},
	// unit is 0.088 degree
	{Name: "max_position_limit", Address: 48, Width: 4, Access: rw},
	{Name: "min_position_limit", Address: 52, Width: 4, Access: rw},
	{Name: "shutdown", Address: 63, Width: 1, Access: rw},

	// ---- RAM area ----

	{Name: "torque_enable", Address: 64, Width: 1, Access: rw},
	{Name: "led", Address: 65, Width: 1, Access: rw},
	{Name: "status_return_level", Address: 68, Width: 1, Access: rw},
	{Name: "registered_instruction", Address: 69, Width: 1, Access: r},
	{Name: "hardware_error_status", Address: 70, Width: 1, Access: r},
	{Name: "velocity_i_gain", Address: 76, Width: 2, Access: rw},
	{Name: "velocity_p_gain", Address: 78, Width: 2, Access: rw},
	{Name: "position_d_gain", Address: 80, Width: 2, Access: rw},
	{Name: "position_i_gain", Address: 82, Width: 2, Access: rw},
	{Name: "position_p_gain", Address: 84, Width: 2, Access: rw},
	{Name: "feedforward_2nd_gain", Address: 88, Width: 2, Access: rw},
	{Name: "feedforward_1st_gain", Address: 90, Width: 2, Access: rw},
	{Name: "bus_watchdog", Address: 98, Width: 1, Access: rw},
	{Name: "goal_pwm", Address: 100, Width: 2, Signed: true, Access: rw},
	{Name: "goal_current", Address: 102, Width: 2, Signed: true, Access: rw},
	// unit is 0.229 rpm, range -velocity_limit..velocity_limit
	{Name: "goal_velocity", Address: 104, Width: 4, Signed: true, Access: rw},
	// velocity-based profile: 214.577 rev/min2; time-based profile: 1 ms
	{Name: "profile_acceleration", Address: 108, Width: 4, Access: rw},
	// velocity-based profile: 0.229 rev/min; time-based profile: 1 ms
	{Name: "profile_velocity", Address: 112, Width: 4, Access: rw},
	// Position control mode: min_position_limit..max_position_limit (0..4095).
	// Extended position mode: -1048575..1048575 (-256..256 rev).
	// The converter only covers the 16-bit joint range.
	{Name: "goal_position", Address: 116, Width: 4, Signed: true, Access: rw, Codec: units.AnglePosition},
	// unit is 1 ms
	{Name: "realtime_tick", Address: 120, Width: 2, Access: r},
	{Name: "moving", Address: 122, Width: 1, Access: r},
	{Name: "moving_status", Address: 123, Width: 1, Access: r},
	// unit is about 0.113 %
	{Name: "present_pwm", Address: 124, Width: 2, Access: r},
	// unit is about 3.36 mA
	{Name: "present_current", Address: 126, Width: 2, Signed: true, Access: r},
	// unit is 0.229 rpm
	{Name: "present_velocity", Address: 128, Width: 4, Access: r},
	{Name: "present_position", Address: 132, Width: 4, Signed: true, Access: r},
	{Name: "velocity_trajectory", Address: 136, Width: 4, Access: r},
	{Name: "position_trajectory", Address: 140, Width: 4, Access: r},
	// unit is about 0.1 V
	{Name: "present_input_voltage", Address: 144, Width: 2, Access: r},
	{Name: "present_temperature", Address: 146, Width: 1, Access: r},
}
