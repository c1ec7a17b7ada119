// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	ct "github.com/tamzrod/servo-replicator/internal/controltable"
	"github.com/tamzrod/servo-replicator/internal/register"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	GroupID  string
	Interval time.Duration
	Devices  []register.DeviceID
	Fields   []ct.Descriptor
}

// Poller is a dumb, clock-driven reader.
// Each cycle is one combined read over every device of the group.
type Poller struct {
	cfg   Config
	spec  register.CombinedSpec
	names []string
	bus   register.Transport
}

// New creates a poller with immutable config.
func New(cfg Config, bus register.Transport) (*Poller, error) {
	if cfg.GroupID == "" {
		return nil, errors.New("poller: group id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Devices) == 0 {
		return nil, errors.New("poller: at least one device required")
	}
	if bus == nil {
		return nil, errors.New("poller: transport required")
	}

	spec, err := register.SpanOf(cfg.Fields...)
	if err != nil {
		return nil, fmt.Errorf("poller: group %s: %w", cfg.GroupID, err)
	}

	names := make([]string, len(cfg.Fields))
	for i, d := range cfg.Fields {
		names[i] = d.Name
	}

	return &Poller{cfg: cfg, spec: spec, names: names, bus: bus}, nil
}

// GroupID returns the group this poller reads.
func (p *Poller) GroupID() string { return p.cfg.GroupID }

// Span returns the combined read issued every cycle.
func (p *Poller) Span() register.CombinedSpec { return p.spec }

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle and no samples are returned.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	res := PollResult{
		GroupID: p.cfg.GroupID,
		At:      time.Now(),
		Fields:  p.names,
	}

	rows, err := register.ReadCombined(ctx, p.bus, p.spec, p.cfg.Devices)
	if err != nil {
		res.Err = err
		return res
	}

	samples := make([]Sample, 0, len(rows))
	for i, raw := range rows {
		s := Sample{
			Device: p.cfg.Devices[i],
			Raw:    raw,
			Values: make([]float64, len(raw)),
		}
		for j, d := range p.cfg.Fields {
			if d.Codec == nil {
				s.Values[j] = float64(raw[j])
				continue
			}
			v, err := d.Codec.Decode(raw[j])
			if err != nil {
				res.Err = fmt.Errorf("poller: device %d %s: %w", s.Device, d.Name, err)
				return res
			}
			s.Values[j] = v
		}
		samples = append(samples, s)
	}

	// Commit only if every device decoded
	res.Samples = samples
	return res
}
