// internal/transport/dxl/packet_test.go
package dxl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePacketVectors(t *testing.T) {
	cases := []struct {
		name   string
		id     uint8
		inst   byte
		params []byte
		want   []byte
	}{
		{
			name: "ping",
			id:   1, inst: instPing,
			want: []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x03, 0x00, 0x01, 0x19, 0x4E},
		},
		{
			name: "read present_position",
			id:   1, inst: instRead,
			params: []byte{0x84, 0x00, 0x04, 0x00},
			want:   []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x07, 0x00, 0x02, 0x84, 0x00, 0x04, 0x00, 0x1D, 0x15},
		},
		{
			name: "write goal_position",
			id:   1, inst: instWrite,
			params: []byte{0x74, 0x00, 0x00, 0x02, 0x00, 0x00},
			want:   []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x09, 0x00, 0x03, 0x74, 0x00, 0x00, 0x02, 0x00, 0x00, 0xCA, 0x89},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, encodePacket(tc.id, tc.inst, tc.params))
		})
	}
}

func TestStuffRoundTrip(t *testing.T) {
	cases := [][]byte{
		{0x01, 0x02, 0x03},
		{0x03, 0xFF, 0xFF, 0xFD, 0x10},
		{0xFF, 0xFF, 0xFD},
		{0xFF, 0xFF, 0xFD, 0xFD},
		{0xFF, 0xFF, 0xFF, 0xFD, 0xFF, 0xFF, 0xFD},
	}
	for _, body := range cases {
		stuffed := stuff(body)
		assert.Equal(t, body, unstuff(stuffed), "% X", body)
	}

	assert.Equal(t, []byte{0x03, 0xFF, 0xFF, 0xFD, 0xFD, 0x10}, stuff([]byte{0x03, 0xFF, 0xFF, 0xFD, 0x10}))
}

func TestEncodePacketLengthCountsStuffing(t *testing.T) {
	pkt := encodePacket(2, instWrite, []byte{0x10, 0x00, 0xFF, 0xFF, 0xFD})
	// inst + 5 params + 1 stuffed byte + crc
	assert.Equal(t, byte(9), pkt[5])
	assert.Equal(t, byte(0), pkt[6])
	assert.Len(t, pkt, headerSize+9)
}

func statusFrame(id uint8, errByte byte, params ...byte) []byte {
	return encodePacket(id, instStatus, append([]byte{errByte}, params...))
}

func TestReadStatus(t *testing.T) {
	frame := statusFrame(1, 0x00, 0xA6, 0x00, 0x00, 0x00)

	st, raw, err := readStatus(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, uint8(1), st.ID)
	assert.Equal(t, byte(0), st.Error)
	assert.Equal(t, []byte{0xA6, 0x00, 0x00, 0x00}, st.Params)
	assert.Equal(t, frame, raw)
}

func TestReadStatusSkipsJunk(t *testing.T) {
	frame := append([]byte{0x00, 0xFF, 0x13, 0xFF, 0xFF}, statusFrame(3, 0x00, 0x01)...)

	st, _, err := readStatus(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, uint8(3), st.ID)
	assert.Equal(t, []byte{0x01}, st.Params)
}

func TestReadStatusUnstuffsParams(t *testing.T) {
	frame := statusFrame(4, 0x00, 0xFF, 0xFF, 0xFD, 0x07)

	st, _, err := readStatus(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFD, 0x07}, st.Params)
}

func TestReadStatusBadCRC(t *testing.T) {
	frame := statusFrame(1, 0x00, 0x01, 0x02)
	frame[len(frame)-1] ^= 0xFF

	_, _, err := readStatus(bytes.NewReader(frame))
	assert.ErrorIs(t, err, errBadCRC)
}

func TestReadStatusRejectsInstructionPacket(t *testing.T) {
	frame := encodePacket(1, instPing, []byte{0x00})

	_, _, err := readStatus(bytes.NewReader(frame))
	assert.ErrorIs(t, err, errBadStatus)
}

func TestReadStatusNoHeader(t *testing.T) {
	_, _, err := readStatus(bytes.NewReader(bytes.Repeat([]byte{0x55}, maxSyncBytes+8)))
	assert.ErrorIs(t, err, errBadHeader)
}
