// internal/register/transport.go
package register

import (
	"context"
	"fmt"
)

// DeviceID is an actuator address on the bus. It is passed through unchanged;
// range checks belong to the transport.
type DeviceID uint8

// Transport is the bus contract the accessor depends on.
// Framing, checksums, retries and timeouts live behind it.
type Transport interface {
	// Read returns length bytes at addr for every device.
	Read(ctx context.Context, devices []DeviceID, addr, length uint16) (map[DeviceID][]byte, error)

	// Write stores data at addr on one device.
	Write(ctx context.Context, device DeviceID, addr uint16, data []byte) error
}

// SyncWriter is implemented by transports that can write the same address
// on several devices in one frame.
type SyncWriter interface {
	SyncWrite(ctx context.Context, addr uint16, data map[DeviceID][]byte) error
}

// TransportError carries a transport failure to the caller.
// Unwrap returns the transport's error unchanged.
type TransportError struct {
	Op      string
	Address uint16
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("register: transport %s at %d: %v", e.Op, e.Address, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func transportErr(op string, addr uint16, err error) error {
	return &TransportError{Op: op, Address: addr, Err: err}
}
