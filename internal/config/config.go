// internal/config/config.go
package config

type Config struct {
	Replicator ReplicatorConfig `yaml:"replicator"`
}

type ReplicatorConfig struct {
	Bus          BusConfig          `yaml:"bus"`
	Groups       []GroupConfig      `yaml:"groups"`
	StatusMemory StatusMemoryConfig `yaml:"status_memory"`

	// Record is an optional capture file; empty disables recording.
	Record string `yaml:"record"`
}

// ---- BUS ----

type BusConfig struct {
	Port      string `yaml:"port"`
	BaudRate  int    `yaml:"baud_rate"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- GROUP ----

// GroupConfig is a set of servos read together with one combined read.
type GroupConfig struct {
	ID        string             `yaml:"id"`
	Devices   []uint8            `yaml:"devices"`
	Registers []string           `yaml:"registers"`
	Scale     map[string]float64 `yaml:"scale"` // register name -> factor
	Poll      PollConfig         `yaml:"poll"`
	Targets   []TargetConfig     `yaml:"targets"`

	// Group status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	GroupName  string  `yaml:"group_name"`
}

// ---- TARGET ----

// TargetConfig is one Modbus TCP holding-register mirror.
// Device i of the group starts at Offset + i*Stride.
type TargetConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	Offset    uint16 `yaml:"offset"`
	Stride    uint16 `yaml:"stride"` // 0 => packed (device footprint)
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- STATUS MEMORY ----

type StatusMemoryConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}
