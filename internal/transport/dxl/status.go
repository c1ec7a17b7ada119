// internal/transport/dxl/status.go
package dxl

import "fmt"

// Status packet error numbers.
const (
	ErrNumResultFail   byte = 0x01
	ErrNumInstruction  byte = 0x02
	ErrNumCRC          byte = 0x03
	ErrNumDataRange    byte = 0x04
	ErrNumDataLength   byte = 0x05
	ErrNumDataLimit    byte = 0x06
	ErrNumAccess       byte = 0x07
	alertBit           byte = 0x80
	errNumMask         byte = 0x7F
)

// StatusError is a device-reported failure from a status packet.
type StatusError struct {
	ID   uint8
	Byte byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dxl: device %d: %s (0x%02X)", e.ID, errName(e.Byte&errNumMask), e.Byte)
}

// Code returns the error number, so status blocks can carry it verbatim.
func (e *StatusError) Code() uint16 { return uint16(e.Byte & errNumMask) }

// Alert reports the hardware alert bit.
func (e *StatusError) Alert() bool { return e.Byte&alertBit != 0 }

func errName(n byte) string {
	switch n {
	case ErrNumResultFail:
		return "result fail"
	case ErrNumInstruction:
		return "instruction error"
	case ErrNumCRC:
		return "crc error"
	case ErrNumDataRange:
		return "data range error"
	case ErrNumDataLength:
		return "data length error"
	case ErrNumDataLimit:
		return "data limit error"
	case ErrNumAccess:
		return "access error"
	case 0:
		return "hardware alert"
	default:
		return "unknown error"
	}
}
