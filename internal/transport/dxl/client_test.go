// internal/transport/dxl/client_test.go
package dxl

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/servo-replicator/internal/register"
)

// ---------------------------------------------------------------------------
// fakePort
// ---------------------------------------------------------------------------

type fakePort struct {
	written bytes.Buffer
	replies *bytes.Reader
	closed  bool
}

func newFakePort(replies ...[]byte) *fakePort {
	return &fakePort{replies: bytes.NewReader(bytes.Join(replies, nil))}
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.replies.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }
func (p *fakePort) Close() error                { p.closed = true; return nil }

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestPing(t *testing.T) {
	port := newFakePort(statusFrame(1, 0x00, 0x37, 0x01, 0x29))
	c := NewClient(port, nil)

	model, fw, err := c.Ping(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint16(311), model)
	assert.Equal(t, uint8(41), fw)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x03, 0x00, 0x01, 0x19, 0x4E}, port.written.Bytes())
}

func TestReadSingleDevice(t *testing.T) {
	port := newFakePort(statusFrame(1, 0x00, 0xA6, 0x00, 0x00, 0x00))
	c := NewClient(port, nil)

	got, err := c.Read(context.Background(), []register.DeviceID{1}, 132, 4)
	require.NoError(t, err)
	assert.Equal(t, map[register.DeviceID][]byte{1: {0xA6, 0x00, 0x00, 0x00}}, got)
	assert.Equal(t,
		[]byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x07, 0x00, 0x02, 0x84, 0x00, 0x04, 0x00, 0x1D, 0x15},
		port.written.Bytes())
}

func TestReadSeveralDevicesUsesSyncRead(t *testing.T) {
	port := newFakePort(
		statusFrame(3, 0x00, 0x2C, 0x01, 0x10, 0x00, 0x05, 0x00),
		statusFrame(7, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00),
	)
	c := NewClient(port, nil)

	got, err := c.Read(context.Background(), []register.DeviceID{3, 7}, 36, 6)
	require.NoError(t, err)
	assert.Equal(t, map[register.DeviceID][]byte{
		3: {0x2C, 0x01, 0x10, 0x00, 0x05, 0x00},
		7: {0x00, 0x08, 0x00, 0x00, 0x00, 0x00},
	}, got)

	assert.Equal(t, encodePacket(BroadcastID, instSyncRead, []byte{36, 0, 6, 0, 3, 7}), port.written.Bytes())
}

func TestReadRejectsOutOfOrderReply(t *testing.T) {
	port := newFakePort(
		statusFrame(7, 0x00, 0x01),
		statusFrame(3, 0x00, 0x01),
	)
	c := NewClient(port, nil)

	_, err := c.Read(context.Background(), []register.DeviceID{3, 7}, 64, 1)
	assert.ErrorIs(t, err, errBadStatus)
}

func TestReadShortReply(t *testing.T) {
	port := newFakePort(statusFrame(1, 0x00, 0x01))
	c := NewClient(port, nil)

	_, err := c.Read(context.Background(), []register.DeviceID{1}, 132, 4)
	assert.ErrorIs(t, err, errBadStatus)
}

func TestSyncReadFailureConsumesRemainingReplies(t *testing.T) {
	port := newFakePort(
		statusFrame(3, 0x01),
		statusFrame(7, 0x00, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA),
		statusFrame(7, 0x00, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11),
	)
	c := NewClient(port, nil)
	ctx := context.Background()

	_, err := c.Read(ctx, []register.DeviceID{3, 7}, 36, 6)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, uint8(3), se.ID)

	got, err := c.Read(ctx, []register.DeviceID{7}, 36, 6)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 0x11, 0x11, 0x11, 0x11, 0x11}, got[7])
}

func TestSyncReadShortReplyConsumesRemainingReplies(t *testing.T) {
	port := newFakePort(
		statusFrame(3, 0x00, 0x01),
		statusFrame(7, 0x00, 0xAA, 0xAA),
		statusFrame(3, 0x00, 0x22, 0x22),
	)
	c := NewClient(port, nil)
	ctx := context.Background()

	_, err := c.Read(ctx, []register.DeviceID{3, 7}, 128, 2)
	assert.ErrorIs(t, err, errBadStatus)

	got, err := c.Read(ctx, []register.DeviceID{3}, 128, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x22, 0x22}, got[3])
}

func TestReadNoReply(t *testing.T) {
	c := NewClient(newFakePort(), nil)

	_, err := c.Read(context.Background(), []register.DeviceID{1}, 132, 4)
	assert.Error(t, err)
}

func TestReadArgumentErrors(t *testing.T) {
	c := NewClient(newFakePort(), nil)
	ctx := context.Background()

	_, err := c.Read(ctx, []register.DeviceID{1, 1}, 0, 2)
	assert.Error(t, err)

	_, err = c.Read(ctx, []register.DeviceID{0xFD}, 0, 2)
	assert.Error(t, err)

	_, err = c.Read(ctx, []register.DeviceID{1}, 0, 0)
	assert.Error(t, err)

	got, err := c.Read(ctx, nil, 0, 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStatusError(t *testing.T) {
	port := newFakePort(statusFrame(2, 0x87))
	c := NewClient(port, nil)

	err := c.Write(context.Background(), 2, 64, []byte{1})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, uint16(7), se.Code())
	assert.True(t, se.Alert())
	assert.Equal(t, uint8(2), se.ID)
}

func TestAlertOnlyIsNotAnError(t *testing.T) {
	port := newFakePort(statusFrame(2, 0x80, 0x01))
	c := NewClient(port, nil)

	got, err := c.Read(context.Background(), []register.DeviceID{2}, 64, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, got[2])
}

func TestWrite(t *testing.T) {
	port := newFakePort(statusFrame(1, 0x00))
	c := NewClient(port, nil)

	require.NoError(t, c.Write(context.Background(), 1, 116, []byte{0x00, 0x02, 0x00, 0x00}))
	assert.Equal(t,
		[]byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x09, 0x00, 0x03, 0x74, 0x00, 0x00, 0x02, 0x00, 0x00, 0xCA, 0x89},
		port.written.Bytes())
}

func TestWriteBroadcastSkipsStatus(t *testing.T) {
	port := newFakePort()
	c := NewClient(port, nil)

	require.NoError(t, c.Write(context.Background(), register.DeviceID(BroadcastID), 64, []byte{0}))
	assert.NotEmpty(t, port.written.Bytes())
}

func TestSyncWrite(t *testing.T) {
	port := newFakePort()
	c := NewClient(port, nil)

	err := c.SyncWrite(context.Background(), 116, map[register.DeviceID][]byte{
		2: {0x00, 0x08, 0x00, 0x00},
		1: {0x00, 0x04, 0x00, 0x00},
	})
	require.NoError(t, err)

	want := encodePacket(BroadcastID, instSyncWrite, []byte{
		116, 0, 4, 0,
		1, 0x00, 0x04, 0x00, 0x00,
		2, 0x00, 0x08, 0x00, 0x00,
	})
	assert.Equal(t, want, port.written.Bytes())
}

func TestSyncWriteLengthMismatch(t *testing.T) {
	port := newFakePort()
	c := NewClient(port, nil)

	err := c.SyncWrite(context.Background(), 116, map[register.DeviceID][]byte{
		1: {0x00, 0x04},
		2: {0x00, 0x08, 0x00, 0x00},
	})
	assert.Error(t, err)
	assert.Zero(t, port.written.Len())
}

func TestCancelledContextSendsNothing(t *testing.T) {
	port := newFakePort(statusFrame(1, 0x00, 0x01))
	c := NewClient(port, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Read(ctx, []register.DeviceID{1}, 64, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, port.written.Len())
}

func TestClose(t *testing.T) {
	port := newFakePort()
	c := NewClient(port, nil)
	require.NoError(t, c.Close())
	assert.True(t, port.closed)
}
