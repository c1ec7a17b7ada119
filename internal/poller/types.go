// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/servo-replicator/internal/register"
)

// Sample is one servo's share of a poll cycle.
type Sample struct {
	Device register.DeviceID

	// Raw holds the register values as read, in field order.
	Raw register.Values

	// Values holds engineering values in field order. Fields without a
	// converter carry the raw value.
	Values []float64
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	GroupID string
	At      time.Time

	// Fields names the register behind each column of Raw and Values.
	Fields []string

	// Samples has one entry per device, in configured order.
	Samples []Sample

	Err error // non-nil means the poll cycle failed
}
