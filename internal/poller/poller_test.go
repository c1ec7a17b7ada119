// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/tamzrod/servo-replicator/internal/config"
	ct "github.com/tamzrod/servo-replicator/internal/controltable"
	"github.com/tamzrod/servo-replicator/internal/controltable/mx"
	"github.com/tamzrod/servo-replicator/internal/register"
	"github.com/tamzrod/servo-replicator/internal/units"
)

type fakeBus struct {
	bufs  map[register.DeviceID][]byte
	err   error
	calls int

	lastAddr   uint16
	lastLength uint16
}

func (f *fakeBus) Read(ctx context.Context, devices []register.DeviceID, addr, length uint16) (map[register.DeviceID][]byte, error) {
	f.calls++
	f.lastAddr, f.lastLength = addr, length
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[register.DeviceID][]byte)
	for _, d := range devices {
		if b, ok := f.bufs[d]; ok {
			out[d] = b
		}
	}
	return out, nil
}

func (f *fakeBus) Write(ctx context.Context, device register.DeviceID, addr uint16, data []byte) error {
	return errors.New("read only bus")
}

// current(126,2) velocity(128,4) position(132,4) => 10 bytes from 126
func mxGroup() cfg.GroupConfig {
	return cfg.GroupConfig{
		ID:        "arm",
		Devices:   []uint8{1, 2},
		Registers: []string{"present_position", "present_current"},
		Poll:      cfg.PollConfig{IntervalMs: 10},
	}
}

func TestPollOnce_Success(t *testing.T) {
	bus := &fakeBus{bufs: map[register.DeviceID][]byte{
		1: {0xFF, 0xFF, 0, 0, 0, 0, 0x00, 0x08, 0x00, 0x00}, // current -1, position 2048
		2: {0x10, 0x00, 0, 0, 0, 0, 0x00, 0x04, 0x00, 0x00}, // current 16, position 1024
	}}

	p, err := Build(mxGroup(), mx.NewV2(), bus)
	require.NoError(t, err)

	res := p.PollOnce(context.Background())
	require.NoError(t, res.Err)

	assert.Equal(t, uint16(126), bus.lastAddr)
	assert.Equal(t, uint16(10), bus.lastLength)
	assert.Equal(t, 1, bus.calls)

	assert.Equal(t, "arm", res.GroupID)
	assert.Equal(t, []string{"present_position", "present_current"}, res.Fields)
	require.Len(t, res.Samples, 2)

	assert.Equal(t, register.DeviceID(1), res.Samples[0].Device)
	assert.Equal(t, register.Values{2048, -1}, res.Samples[0].Raw)
	assert.Equal(t, []float64{2048, -1}, res.Samples[0].Values)

	assert.Equal(t, register.DeviceID(2), res.Samples[1].Device)
	assert.Equal(t, register.Values{1024, 16}, res.Samples[1].Raw)
}

func TestPollOnce_AppliesConverter(t *testing.T) {
	schema := ct.NewSchema("test", 0)
	schema.MustRegister(ct.Descriptor{Name: "angle", Address: 10, Width: 2, Signed: true, Access: ct.AccessReadOnly, Codec: units.AnglePosition})
	schema.Seal()

	bus := &fakeBus{bufs: map[register.DeviceID][]byte{7: {0x00, 0x0C}}} // 3072

	p, err := Build(cfg.GroupConfig{
		ID: "g", Devices: []uint8{7}, Registers: []string{"angle"},
		Poll: cfg.PollConfig{IntervalMs: 10},
	}, schema, bus)
	require.NoError(t, err)

	res := p.PollOnce(context.Background())
	require.NoError(t, res.Err)
	assert.InDelta(t, math.Pi/2, res.Samples[0].Values[0], 1e-12)
	assert.Equal(t, register.Values{3072}, res.Samples[0].Raw)
}

func TestPollOnce_ConverterDomainFailsCycle(t *testing.T) {
	schema := ct.NewSchema("test", 0)
	schema.MustRegister(ct.Descriptor{Name: "angle", Address: 10, Width: 4, Signed: true, Access: ct.AccessReadOnly, Codec: units.AnglePosition})
	schema.Seal()

	bus := &fakeBus{bufs: map[register.DeviceID][]byte{
		1: {0x00, 0x08, 0x00, 0x00},
		2: {0xA0, 0x86, 0x01, 0x00}, // 100000: outside the converter's 16-bit domain
	}}

	p, err := Build(cfg.GroupConfig{
		ID: "g", Devices: []uint8{1, 2}, Registers: []string{"angle"},
		Poll: cfg.PollConfig{IntervalMs: 10},
	}, schema, bus)
	require.NoError(t, err)

	res := p.PollOnce(context.Background())
	assert.ErrorIs(t, res.Err, units.ErrDomain)
	assert.Nil(t, res.Samples)
}

func TestPollOnce_Failure(t *testing.T) {
	cause := errors.New("no status packet")
	bus := &fakeBus{err: cause}

	p, err := Build(mxGroup(), mx.NewV2(), bus)
	require.NoError(t, err)

	res := p.PollOnce(context.Background())
	assert.ErrorIs(t, res.Err, cause)

	var te *register.TransportError
	assert.ErrorAs(t, res.Err, &te)
	assert.Nil(t, res.Samples)
}

func TestPollOnce_MissingDeviceFailsCycle(t *testing.T) {
	bus := &fakeBus{bufs: map[register.DeviceID][]byte{
		1: {0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}}

	p, err := Build(mxGroup(), mx.NewV2(), bus)
	require.NoError(t, err)

	res := p.PollOnce(context.Background())
	assert.Error(t, res.Err)
	assert.Nil(t, res.Samples)
}

func TestBuild_Errors(t *testing.T) {
	bus := &fakeBus{}

	g := mxGroup()
	g.Registers = []string{"nope"}
	_, err := Build(g, mx.NewV2(), bus)
	assert.ErrorIs(t, err, ct.ErrUnknownRegister)

	g = mxGroup()
	g.Registers = []string{"present_position", "goal_position", "led"}
	_, err = Build(g, mx.NewV2(), bus)
	require.NoError(t, err, "gaps are allowed")

	_, err = New(Config{GroupID: "g", Interval: time.Second}, bus)
	assert.Error(t, err)

	_, err = New(Config{GroupID: "g", Devices: []register.DeviceID{1}}, bus)
	assert.Error(t, err)
}

func TestRun_EmitsUntilCancelled(t *testing.T) {
	bus := &fakeBus{bufs: map[register.DeviceID][]byte{
		1: make([]byte, 10),
		2: make([]byte, 10),
	}}

	p, err := Build(mxGroup(), mx.NewV2(), bus)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan PollResult)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, out)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case res := <-out:
			assert.NoError(t, res.Err)
		case <-time.After(2 * time.Second):
			t.Fatal("no poll result")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
