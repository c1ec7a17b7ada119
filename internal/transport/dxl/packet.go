// internal/transport/dxl/packet.go
package dxl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ---- protocol 2.0 constants (LOCKED) ----

const (
	instPing      byte = 0x01
	instRead      byte = 0x02
	instWrite     byte = 0x03
	instSyncRead  byte = 0x82
	instSyncWrite byte = 0x83
	instStatus    byte = 0x55

	// BroadcastID addresses every device; no status packet is returned.
	BroadcastID uint8 = 0xFE

	// MaxID is the highest individual device id.
	MaxID uint8 = 0xFC

	// headerSize is header(4) + id(1) + length(2).
	headerSize = 7

	// maxSyncBytes bounds the junk skipped while looking for a header.
	maxSyncBytes = 256
)

var header = []byte{0xFF, 0xFF, 0xFD, 0x00}

var (
	errBadHeader = errors.New("dxl: no packet header")
	errBadCRC    = errors.New("dxl: crc mismatch")
	errBadStatus = errors.New("dxl: malformed status packet")
)

// Packet layout:
//
//	FF FF FD 00 | ID | LEN_L LEN_H | INST | PARAMS... | CRC_L CRC_H
//
// LEN counts INST, PARAMS and CRC after byte stuffing.

// encodePacket builds one instruction packet.
func encodePacket(id uint8, inst byte, params []byte) []byte {
	body := stuff(append([]byte{inst}, params...))
	length := len(body) + 2

	pkt := make([]byte, 0, headerSize+length)
	pkt = append(pkt, header...)
	pkt = append(pkt, id, byte(length), byte(length>>8))
	pkt = append(pkt, body...)

	crc := crc16(pkt)
	return append(pkt, byte(crc), byte(crc>>8))
}

// stuff inserts 0xFD after every FF FF FD so the body never contains a header.
func stuff(body []byte) []byte {
	out := make([]byte, 0, len(body)+len(body)/3)
	for _, b := range body {
		out = append(out, b)
		n := len(out)
		if n >= 3 && out[n-3] == 0xFF && out[n-2] == 0xFF && out[n-1] == 0xFD {
			out = append(out, 0xFD)
		}
	}
	return out
}

// unstuff drops the 0xFD inserted by stuff.
func unstuff(body []byte) []byte {
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		out = append(out, body[i])
		n := len(out)
		if n >= 3 && out[n-3] == 0xFF && out[n-2] == 0xFF && out[n-1] == 0xFD &&
			i+1 < len(body) && body[i+1] == 0xFD {
			i++
		}
	}
	return out
}

// statusPacket is a decoded device reply.
type statusPacket struct {
	ID     uint8
	Error  byte
	Params []byte
}

// readStatus reads one status packet from r.
func readStatus(r io.Reader) (statusPacket, []byte, error) {
	raw := make([]byte, 0, 32)

	// ---- sync on header ----
	var b [1]byte
	for skipped := 0; ; skipped++ {
		if skipped > maxSyncBytes {
			return statusPacket{}, raw, errBadHeader
		}
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return statusPacket{}, raw, err
		}
		raw = append(raw, b[0])
		if len(raw) >= len(header) && bytes.Equal(raw[len(raw)-len(header):], header) {
			raw = append(raw[:0], header...)
			break
		}
	}

	// ---- id + length ----
	var idLen [3]byte
	if _, err := io.ReadFull(r, idLen[:]); err != nil {
		return statusPacket{}, raw, err
	}
	raw = append(raw, idLen[:]...)

	length := int(idLen[1]) | int(idLen[2])<<8
	if length < 4 { // inst + err + crc
		return statusPacket{}, raw, fmt.Errorf("%w: length %d", errBadStatus, length)
	}

	rest := make([]byte, length)
	if _, err := io.ReadFull(r, rest); err != nil {
		return statusPacket{}, raw, err
	}
	raw = append(raw, rest...)

	// ---- crc ----
	n := len(raw)
	want := uint16(raw[n-2]) | uint16(raw[n-1])<<8
	if got := crc16(raw[:n-2]); got != want {
		return statusPacket{}, raw, fmt.Errorf("%w: got=0x%04X want=0x%04X", errBadCRC, got, want)
	}

	body := unstuff(rest[:length-2])
	if len(body) < 2 || body[0] != instStatus {
		return statusPacket{}, raw, fmt.Errorf("%w: instruction 0x%02X", errBadStatus, body[0])
	}

	return statusPacket{
		ID:     idLen[0],
		Error:  body[1],
		Params: body[2:],
	}, raw, nil
}
