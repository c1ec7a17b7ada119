// cmd/servoctl/shell_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	ct "github.com/tamzrod/servo-replicator/internal/controltable"
	"github.com/tamzrod/servo-replicator/internal/controltable/mx"
	"github.com/tamzrod/servo-replicator/internal/register"
	"github.com/tamzrod/servo-replicator/internal/units"
)

type stubBus struct{ mock.Mock }

func (s *stubBus) Read(ctx context.Context, devices []register.DeviceID, addr, length uint16) (map[register.DeviceID][]byte, error) {
	ret := s.Called(devices, addr, length)
	var m map[register.DeviceID][]byte
	if ret.Get(0) != nil {
		m = ret.Get(0).(map[register.DeviceID][]byte)
	}
	return m, ret.Error(1)
}

func (s *stubBus) Write(ctx context.Context, device register.DeviceID, addr uint16, data []byte) error {
	return s.Called(device, addr, data).Error(0)
}

func (s *stubBus) Ping(ctx context.Context, id uint8) (uint16, uint8, error) {
	ret := s.Called(id)
	return ret.Get(0).(uint16), ret.Get(1).(uint8), ret.Error(2)
}

func newTestShell() (*Shell, *stubBus, *bytes.Buffer) {
	bus := &stubBus{}
	out := &bytes.Buffer{}
	return NewShell(mx.NewV2(), bus, bus, out), bus, out
}

func TestShellList(t *testing.T) {
	sh, _, out := newTestShell()
	assert.False(t, sh.Exec(context.Background(), "list"))
	assert.Contains(t, out.String(), "goal_position@116")
	assert.Contains(t, out.String(), "present_temperature@146")
}

func TestShellRead(t *testing.T) {
	sh, bus, out := newTestShell()
	bus.On("Read", []register.DeviceID{1, 2}, uint16(146), uint16(1)).
		Return(map[register.DeviceID][]byte{1: {41}, 2: {38}}, nil).Once()

	sh.Exec(context.Background(), "read present_temperature 1 2")
	assert.Contains(t, out.String(), "[1] present_temperature = 41")
	assert.Contains(t, out.String(), "[2] present_temperature = 38")
	bus.AssertExpectations(t)
}

func TestShellRaw(t *testing.T) {
	sh, bus, out := newTestShell()
	bus.On("Read", []register.DeviceID{3}, uint16(0), uint16(2)).
		Return(map[register.DeviceID][]byte{3: {0x37, 0x01}}, nil).Once()

	sh.Exec(context.Background(), "raw model_number 3")
	assert.Contains(t, out.String(), "[3] model_number = 311 (0x137)")
}

func TestShellWrite(t *testing.T) {
	sh, bus, out := newTestShell()
	bus.On("Write", register.DeviceID(1), uint16(64), []byte{1}).Return(nil).Once()

	sh.Exec(context.Background(), "write torque_enable 1 1")
	assert.Contains(t, out.String(), "[1] torque_enable <- 1")
	bus.AssertExpectations(t)
}

func TestShellWriteReadOnly(t *testing.T) {
	sh, bus, out := newTestShell()

	sh.Exec(context.Background(), "write model_number 1 12")
	assert.Contains(t, out.String(), "error:")
	bus.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
}

func TestShellScan(t *testing.T) {
	sh, bus, out := newTestShell()
	// present_current(126,2) + present_position(132,4) => 10 bytes from 126
	bus.On("Read", []register.DeviceID{1}, uint16(126), uint16(10)).
		Return(map[register.DeviceID][]byte{1: {0xFF, 0xFF, 0, 0, 0, 0, 0x00, 0x08, 0x00, 0x00}}, nil).Once()

	sh.Exec(context.Background(), "scan present_position present_current 1")
	assert.Contains(t, out.String(), "present_position")
	assert.Contains(t, out.String(), "2048")
	assert.Contains(t, out.String(), "-1")
	bus.AssertExpectations(t)
}

func TestShellScanShowsDecodeError(t *testing.T) {
	schema := ct.NewSchema("test", 0)
	schema.MustRegister(ct.Descriptor{Name: "angle", Address: 10, Width: 4, Signed: true, Access: ct.AccessReadOnly, Codec: units.AnglePosition})
	schema.Seal()

	bus := &stubBus{}
	out := &bytes.Buffer{}
	sh := NewShell(schema, bus, bus, out)

	// 100000 is outside the converter's 16-bit domain
	bus.On("Read", []register.DeviceID{1}, uint16(10), uint16(4)).
		Return(map[register.DeviceID][]byte{1: {0xA0, 0x86, 0x01, 0x00}}, nil).Once()

	sh.Exec(context.Background(), "scan angle 1")
	assert.Contains(t, out.String(), "100000 (value outside converter domain")
	bus.AssertExpectations(t)
}

func TestShellPing(t *testing.T) {
	sh, bus, out := newTestShell()
	bus.On("Ping", uint8(1)).Return(uint16(311), uint8(41), nil).Once()
	bus.On("Ping", uint8(2)).Return(uint16(0), uint8(0), errors.New("no status packet")).Once()

	sh.Exec(context.Background(), "ping 1")
	sh.Exec(context.Background(), "ping 2")
	assert.Contains(t, out.String(), "[1] model=311 firmware=41")
	assert.Contains(t, out.String(), "error: no status packet")
}

func TestShellUsageErrors(t *testing.T) {
	sh, _, out := newTestShell()
	ctx := context.Background()

	for _, line := range []string{"read", "read goal_position", "raw x", "write a 1", "scan 1", "ping", "ping x", "read nope 1"} {
		out.Reset()
		assert.False(t, sh.Exec(ctx, line))
		assert.Contains(t, out.String(), "error:", line)
	}
}

func TestShellQuitAndUnknown(t *testing.T) {
	sh, _, out := newTestShell()
	ctx := context.Background()

	assert.False(t, sh.Exec(ctx, ""))
	assert.False(t, sh.Exec(ctx, "frobnicate"))
	assert.Contains(t, out.String(), "Unknown command: frobnicate")
	assert.True(t, sh.Exec(ctx, "quit"))
}
