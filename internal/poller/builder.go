// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/servo-replicator/internal/config"
	ct "github.com/tamzrod/servo-replicator/internal/controltable"
	"github.com/tamzrod/servo-replicator/internal/register"
)

// Build constructs a Poller for one group on a shared bus.
// The bus serializes transactions; groups never reconnect it.
func Build(g cfg.GroupConfig, schema *ct.Schema, bus register.Transport) (*Poller, error) {
	fields := make([]ct.Descriptor, 0, len(g.Registers))
	for _, name := range g.Registers {
		d, err := schema.Lookup(name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, d)
	}

	devices := make([]register.DeviceID, 0, len(g.Devices))
	for _, id := range g.Devices {
		devices = append(devices, register.DeviceID(id))
	}

	return New(
		Config{
			GroupID:  g.ID,
			Interval: time.Duration(g.Poll.IntervalMs) * time.Millisecond,
			Devices:  devices,
			Fields:   fields,
		},
		bus,
	)
}
