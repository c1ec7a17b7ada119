// internal/capture/record.go
package capture

import (
	"time"

	"github.com/tamzrod/servo-replicator/internal/poller"
)

// Record is one poll cycle as stored on disk.
// Integer keys keep the file compact.
type Record struct {
	RunID  string      `cbor:"1,keyasint"`
	Group  string      `cbor:"2,keyasint"`
	At     time.Time   `cbor:"3,keyasint"`
	Fields []string    `cbor:"4,keyasint,omitempty"`
	Rows   []DeviceRow `cbor:"5,keyasint,omitempty"`
	Error  string      `cbor:"6,keyasint,omitempty"`
}

// DeviceRow is one servo's values in Fields order.
type DeviceRow struct {
	Device uint8     `cbor:"1,keyasint"`
	Raw    []int64   `cbor:"2,keyasint"`
	Values []float64 `cbor:"3,keyasint"`
}

// FromPoll converts a poll result into a record.
func FromPoll(runID string, res poller.PollResult) Record {
	rec := Record{
		RunID:  runID,
		Group:  res.GroupID,
		At:     res.At,
		Fields: res.Fields,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
		return rec
	}
	for _, s := range res.Samples {
		rec.Rows = append(rec.Rows, DeviceRow{
			Device: uint8(s.Device),
			Raw:    []int64(s.Raw),
			Values: s.Values,
		})
	}
	return rec
}
