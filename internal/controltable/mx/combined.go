// internal/controltable/mx/combined.go
package mx

import "github.com/tamzrod/servo-replicator/internal/register"

// PresentPositionSpeedLoad reads position (int16), speed (uint16) and load
// (uint16) of several servos in one sync read starting at address 36.
//
// Callers decode the speed with units.OrientedVelocity and the load with
// units.OrientedTorque.
var PresentPositionSpeedLoad = register.CombinedSpec{
	Address: 36,
	Length:  2 + 2 + 2,
	Fields: []register.Field{
		{Name: "present_position", Offset: 0, Width: 2, Signed: true},
		{Name: "present_speed", Offset: 2, Width: 2},
		{Name: "present_load", Offset: 4, Width: 2},
	},
}
