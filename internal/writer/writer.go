// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tamzrod/servo-replicator/internal/poller"
)

// EndpointClient is the exact contract the writers use.
// IMPORTANT: There must be NO other version of this interface anywhere.
type EndpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// maxWriteRegisters is the Modbus limit for one Write Multiple Registers.
const maxWriteRegisters = 123

var errScaleRange = errors.New("writer: scaled value outside int32")

type modbusWriter struct {
	plan    Plan
	clients map[string]EndpointClient
}

func New(plan Plan, clients map[string]EndpointClient) Writer {
	return &modbusWriter{
		plan:    plan,
		clients: clients,
	}
}

// Write mirrors one successful poll into every target.
// Failed polls deliver nothing; status is the status writer's job.
func (w *modbusWriter) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}

	blocks, err := w.encode(res)
	if err != nil {
		return err
	}

	var errs []string

	for _, tgt := range w.plan.Targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Sprintf(
				"writer: missing client for endpoint %s",
				tgt.Endpoint,
			))
			continue
		}

		stride := tgt.Stride
		if stride == 0 {
			stride = w.plan.Footprint
		}

		// Packed devices go out as one image; spaced devices one by one so
		// the gaps are left alone.
		if stride == w.plan.Footprint {
			image := make([]uint16, 0, len(blocks)*int(w.plan.Footprint))
			for _, b := range blocks {
				image = append(image, b...)
			}
			if err := writeChunked(cli, tgt.UnitID, tgt.Offset, image); err != nil {
				errs = append(errs, fmt.Sprintf(
					"writer: ep=%s unit=%d addr=%d err=%v",
					tgt.Endpoint, tgt.UnitID, tgt.Offset, err,
				))
			}
			continue
		}

		for i, b := range blocks {
			addr := tgt.Offset + uint16(i)*stride
			if err := writeChunked(cli, tgt.UnitID, addr, b); err != nil {
				errs = append(errs, fmt.Sprintf(
					"writer: ep=%s unit=%d addr=%d err=%v",
					tgt.Endpoint, tgt.UnitID, addr, err,
				))
			}
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}

	return nil
}

// encode lays out every sample as Footprint registers, in plan field order.
func (w *modbusWriter) encode(res poller.PollResult) ([][]uint16, error) {
	col := make(map[string]int, len(res.Fields))
	for i, name := range res.Fields {
		col[name] = i
	}

	blocks := make([][]uint16, 0, len(res.Samples))
	for _, s := range res.Samples {
		regs := make([]uint16, 0, w.plan.Footprint)
		for _, f := range w.plan.Fields {
			i, ok := col[f.Name]
			if !ok || i >= len(s.Raw) || i >= len(s.Values) {
				return nil, fmt.Errorf("writer: group %s: field %s missing from poll", w.plan.GroupID, f.Name)
			}
			enc, err := EncodeField(f, s.Raw[i], s.Values[i])
			if err != nil {
				return nil, fmt.Errorf("writer: group %s device %d %s: %w", w.plan.GroupID, s.Device, f.Name, err)
			}
			regs = append(regs, enc...)
		}
		blocks = append(blocks, regs)
	}
	return blocks, nil
}

// EncodeField converts one field to holding registers (high word first).
//   - scaled: int32(trunc(value*scale)) in two registers
//   - 4 byte: raw in two registers
//   - 1/2 byte: raw in one register
func EncodeField(f FieldPlan, raw int64, value float64) ([]uint16, error) {
	if f.Scale != 0 {
		v := math.Trunc(value * f.Scale)
		if math.IsNaN(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %v * %v", errScaleRange, value, f.Scale)
		}
		u := uint32(int32(v))
		return []uint16{uint16(u >> 16), uint16(u)}, nil
	}

	if f.Width > 2 {
		u := uint32(raw)
		return []uint16{uint16(u >> 16), uint16(u)}, nil
	}
	return []uint16{uint16(raw)}, nil
}

func writeChunked(cli EndpointClient, unitID uint8, addr uint16, regs []uint16) error {
	for len(regs) > 0 {
		n := len(regs)
		if n > maxWriteRegisters {
			n = maxWriteRegisters
		}
		if err := cli.WriteRegisters(unitID, addr, regs[:n]); err != nil {
			return err
		}
		addr += uint16(n)
		regs = regs[n:]
	}
	return nil
}
