// internal/writer/types.go
package writer

import "github.com/tamzrod/servo-replicator/internal/poller"

// FieldPlan is one register's place in a device's mirror block.
type FieldPlan struct {
	Name      string
	Width     int     // control table bytes
	Scale     float64 // 0 => raw value
	Registers uint16  // holding registers taken
}

// TargetEndpoint is one Modbus TCP mirror of a group.
// Device i starts at Offset + i*Stride.
type TargetEndpoint struct {
	Endpoint string
	UnitID   uint8
	Offset   uint16
	Stride   uint16
}

// StatusPlan places a group's status block in status memory.
type StatusPlan struct {
	Endpoint  string
	UnitID    uint8
	BaseSlot  uint16
	GroupName string
}

// Plan is the fully-built write plan for one group.
type Plan struct {
	GroupID   string
	Fields    []FieldPlan
	Footprint uint16 // holding registers per device
	Targets   []TargetEndpoint
	Status    *StatusPlan // nil => status disabled
}

// Writer writes poll snapshots into targets.
type Writer interface {
	Write(res poller.PollResult) error
}
