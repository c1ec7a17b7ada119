// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"math"

	ct "github.com/tamzrod/servo-replicator/internal/controltable"
	"github.com/tamzrod/servo-replicator/internal/register"
	"github.com/tamzrod/servo-replicator/internal/status"
)

// maxDeviceID is the highest addressable servo id (0xFE is broadcast).
const maxDeviceID = 0xFC

// Validate checks configuration correctness against the control table.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config, schema *ct.Schema) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	if schema == nil {
		return errors.New("config: nil schema")
	}

	r := cfg.Replicator

	// ------------------------------------------------------------
	// BUS
	// ------------------------------------------------------------

	if r.Bus.Port == "" {
		return errors.New("bus: port is required")
	}
	if r.Bus.BaudRate <= 0 {
		return fmt.Errorf("bus: invalid baud_rate %d", r.Bus.BaudRate)
	}
	if r.Bus.TimeoutMs < 0 {
		return fmt.Errorf("bus: invalid timeout_ms %d", r.Bus.TimeoutMs)
	}

	if len(r.Groups) == 0 {
		return errors.New("replicator: at least one group is required")
	}

	// ------------------------------------------------------------
	// GROUPS
	// ------------------------------------------------------------

	groupIDs := make(map[string]struct{})
	busOwner := make(map[uint8]string) // a servo belongs to one group

	for _, g := range r.Groups {
		if g.ID == "" {
			return errors.New("group: id is required")
		}
		if _, dup := groupIDs[g.ID]; dup {
			return fmt.Errorf("group %q: duplicate id", g.ID)
		}
		groupIDs[g.ID] = struct{}{}

		if g.Poll.IntervalMs <= 0 {
			return fmt.Errorf("group %q: poll.interval_ms must be > 0", g.ID)
		}

		if len(g.Devices) == 0 {
			return fmt.Errorf("group %q: at least one device is required", g.ID)
		}
		for _, d := range g.Devices {
			if d > maxDeviceID {
				return fmt.Errorf("group %q: device id %d out of range 0..%d", g.ID, d, maxDeviceID)
			}
			if prev, taken := busOwner[d]; taken {
				return fmt.Errorf("group %q: device %d already polled by group %q", g.ID, d, prev)
			}
			busOwner[d] = g.ID
		}

		if _, err := groupFields(g, schema); err != nil {
			return fmt.Errorf("group %q: %w", g.ID, err)
		}

		for name, factor := range g.Scale {
			if !contains(g.Registers, name) {
				return fmt.Errorf("group %q: scale for %q which is not read", g.ID, name)
			}
			if factor == 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
				return fmt.Errorf("group %q: invalid scale %v for %q", g.ID, factor, name)
			}
		}

		// group_name sanity (ASCII only)
		for i := 0; i < len(g.GroupName); i++ {
			if g.GroupName[i] > 0x7F {
				return fmt.Errorf("group %q: group_name must contain ASCII characters only", g.ID)
			}
		}

		for _, t := range g.Targets {
			if t.Endpoint == "" {
				return fmt.Errorf("group %q: target endpoint is required", g.ID)
			}
			if t.TimeoutMs < 0 {
				return fmt.Errorf("group %q: target %s: invalid timeout_ms %d", g.ID, t.Endpoint, t.TimeoutMs)
			}
		}
	}

	// ------------------------------------------------------------
	// GROUP STATUS BLOCK VALIDATION (OPT-IN)
	// ------------------------------------------------------------

	statusOwner := make(map[uint16]string)

	for _, g := range r.Groups {
		if g.StatusSlot == nil {
			continue
		}
		if r.StatusMemory.Endpoint == "" {
			return fmt.Errorf("group %q: status_slot is set but status_memory.endpoint is empty", g.ID)
		}

		slot := *g.StatusSlot
		if uint32(slot)*status.SlotsPerDevice+status.SlotsPerDevice > 0x10000 {
			return fmt.Errorf("group %q: status_slot %d out of range", g.ID, slot)
		}
		if prev, exists := statusOwner[slot]; exists {
			return fmt.Errorf(
				"status_slot collision: endpoint=%s unit_id=%d slot=%d used by groups %q and %q",
				r.StatusMemory.Endpoint,
				r.StatusMemory.UnitID,
				slot,
				prev,
				g.ID,
			)
		}
		statusOwner[slot] = g.ID
	}

	// ------------------------------------------------------------
	// DESTINATION MEMORY GEOMETRY VALIDATION
	// ------------------------------------------------------------

	type span struct {
		start uint32
		end   uint32 // inclusive
		owner string
	}

	// key = endpoint | unit_id
	spans := make(map[string][]span)

	claim := func(endpoint string, unitID uint8, start, end uint32, owner string) error {
		key := fmt.Sprintf("%s|%d", endpoint, unitID)

		for _, s := range spans[key] {
			// overlap check (inclusive)
			if !(end < s.start || start > s.end) {
				return fmt.Errorf(
					"memory overlap: endpoint=%s unit_id=%d range=%d-%d (%s) overlaps with range=%d-%d (%s)",
					endpoint, unitID, start, end, owner, s.start, s.end, s.owner,
				)
			}
		}
		spans[key] = append(spans[key], span{start: start, end: end, owner: owner})
		return nil
	}

	for _, g := range r.Groups {
		if g.StatusSlot == nil {
			continue
		}
		start := uint32(*g.StatusSlot) * status.SlotsPerDevice
		if err := claim(r.StatusMemory.Endpoint, r.StatusMemory.UnitID,
			start, start+status.SlotsPerDevice-1, "status of group "+g.ID); err != nil {
			return err
		}
	}

	for _, g := range r.Groups {
		widths, _ := groupFields(g, schema)
		footprint := DeviceFootprint(g, widths)

		for _, t := range g.Targets {
			stride := EffectiveStride(t, footprint)
			if stride < footprint {
				return fmt.Errorf("group %q: target %s: stride %d smaller than device footprint %d",
					g.ID, t.Endpoint, stride, footprint)
			}

			start := uint32(t.Offset)
			end := start + uint32(stride)*uint32(len(g.Devices)-1) + uint32(footprint) - 1
			if end > 0xFFFF {
				return fmt.Errorf("group %q: target %s: range %d-%d exceeds register space",
					g.ID, t.Endpoint, start, end)
			}

			if err := claim(t.Endpoint, t.UnitID, start, end, "group "+g.ID); err != nil {
				return err
			}
		}
	}

	return nil
}

// groupFields resolves g's registers and checks that they form one
// combined read. It returns the byte width of every register.
func groupFields(g GroupConfig, schema *ct.Schema) (map[string]int, error) {
	if len(g.Registers) == 0 {
		return nil, errors.New("at least one register is required")
	}

	widths := make(map[string]int, len(g.Registers))
	descs := make([]ct.Descriptor, 0, len(g.Registers))

	for _, name := range g.Registers {
		if _, dup := widths[name]; dup {
			return nil, fmt.Errorf("register %q listed twice", name)
		}
		d, err := schema.Lookup(name)
		if err != nil {
			return nil, err
		}
		widths[name] = d.Width
		descs = append(descs, d)
	}

	if _, err := register.SpanOf(descs...); err != nil {
		return nil, err
	}
	return widths, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
