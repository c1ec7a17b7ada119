// internal/transport/dxl/client.go
package dxl

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"github.com/tamzrod/servo-replicator/internal/register"
)

// Config describes the serial bus.
type Config struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Client is a protocol 2.0 bus master.
// One transaction is on the wire at a time.
type Client struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
	log  *slog.Logger
}

var _ register.Transport = (*Client)(nil)
var _ register.SyncWriter = (*Client)(nil)

// Open opens the serial port (8N1) and returns a client on it.
func Open(cfg Config) (*Client, error) {
	if cfg.Port == "" {
		return nil, errors.New("dxl: port is required")
	}
	if cfg.BaudRate <= 0 {
		return nil, fmt.Errorf("dxl: invalid baud rate %d", cfg.BaudRate)
	}

	port, err := serial.Open(&serial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("dxl: open %s: %w", cfg.Port, err)
	}

	return NewClient(port, cfg.Logger), nil
}

// NewClient wraps an already open port. A nil logger disables the frame trace.
func NewClient(port io.ReadWriteCloser, log *slog.Logger) *Client {
	return &Client{port: port, log: log}
}

// Close releases the port.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Close()
}

// Ping returns the model number and firmware version of one device.
func (c *Client) Ping(ctx context.Context, id uint8) (uint16, uint8, error) {
	if err := checkID(id); err != nil {
		return 0, 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send(ctx, id, instPing, nil); err != nil {
		return 0, 0, err
	}
	st, err := c.receive(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	if len(st.Params) < 3 {
		return 0, 0, fmt.Errorf("%w: ping reply has %d bytes", errBadStatus, len(st.Params))
	}
	return uint16(st.Params[0]) | uint16(st.Params[1])<<8, st.Params[2], nil
}

// Read returns length bytes at addr for every device.
// One device uses READ; several use a single SYNC_READ.
func (c *Client) Read(ctx context.Context, devices []register.DeviceID, addr, length uint16) (map[register.DeviceID][]byte, error) {
	if len(devices) == 0 {
		return map[register.DeviceID][]byte{}, nil
	}
	if length == 0 {
		return nil, errors.New("dxl: zero read length")
	}
	seen := make(map[register.DeviceID]struct{}, len(devices))
	for _, d := range devices {
		if err := checkID(uint8(d)); err != nil {
			return nil, err
		}
		if _, dup := seen[d]; dup {
			return nil, fmt.Errorf("dxl: duplicate device %d", d)
		}
		seen[d] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	params := le16(nil, addr)
	params = le16(params, length)

	if len(devices) == 1 {
		id := uint8(devices[0])
		if err := c.send(ctx, id, instRead, params); err != nil {
			return nil, err
		}
		st, err := c.receive(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(st.Params) != int(length) {
			return nil, fmt.Errorf("%w: device %d returned %d bytes, want %d", errBadStatus, id, len(st.Params), length)
		}
		return map[register.DeviceID][]byte{devices[0]: st.Params}, nil
	}

	for _, d := range devices {
		params = append(params, byte(d))
	}
	if err := c.send(ctx, BroadcastID, instSyncRead, params); err != nil {
		return nil, err
	}

	// Devices answer in the order listed. Every expected status packet is
	// consumed even after a failure so none is left on the port for the
	// next transaction.
	out := make(map[register.DeviceID][]byte, len(devices))
	var firstErr error
	for _, d := range devices {
		st, err := c.receive(ctx, uint8(d))
		if err == nil && len(st.Params) != int(length) {
			err = fmt.Errorf("%w: device %d returned %d bytes, want %d", errBadStatus, d, len(st.Params), length)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		out[d] = st.Params
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Write stores data at addr and waits for the status packet.
// Writes to BroadcastID return without a reply.
func (c *Client) Write(ctx context.Context, device register.DeviceID, addr uint16, data []byte) error {
	id := uint8(device)
	if id != BroadcastID {
		if err := checkID(id); err != nil {
			return err
		}
	}
	if len(data) == 0 {
		return errors.New("dxl: empty write")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	params := append(le16(nil, addr), data...)
	if err := c.send(ctx, id, instWrite, params); err != nil {
		return err
	}
	if id == BroadcastID {
		return nil
	}
	_, err := c.receive(ctx, id)
	return err
}

// SyncWrite stores one buffer per device at the same address in a single
// broadcast frame. All buffers must have the same length.
func (c *Client) SyncWrite(ctx context.Context, addr uint16, data map[register.DeviceID][]byte) error {
	if len(data) == 0 {
		return nil
	}

	ids := make([]register.DeviceID, 0, len(data))
	for d := range data {
		if err := checkID(uint8(d)); err != nil {
			return err
		}
		ids = append(ids, d)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	length := len(data[ids[0]])
	if length == 0 {
		return errors.New("dxl: empty sync write")
	}

	params := le16(nil, addr)
	params = le16(params, uint16(length))
	for _, d := range ids {
		buf := data[d]
		if len(buf) != length {
			return fmt.Errorf("dxl: sync write length mismatch: device %d has %d bytes, want %d", d, len(buf), length)
		}
		params = append(params, byte(d))
		params = append(params, buf...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.send(ctx, BroadcastID, instSyncWrite, params)
}

// ---- wire ----

func (c *Client) send(ctx context.Context, id uint8, inst byte, params []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pkt := encodePacket(id, inst, params)
	c.trace(ctx, "tx", pkt)

	if _, err := c.port.Write(pkt); err != nil {
		return fmt.Errorf("dxl: write: %w", err)
	}
	return nil
}

func (c *Client) receive(ctx context.Context, want uint8) (statusPacket, error) {
	if err := ctx.Err(); err != nil {
		return statusPacket{}, err
	}

	st, raw, err := readStatus(c.port)
	c.trace(ctx, "rx", raw)
	if err != nil {
		return statusPacket{}, fmt.Errorf("dxl: device %d: %w", want, err)
	}

	if st.ID != want {
		return statusPacket{}, fmt.Errorf("%w: reply from device %d, want %d", errBadStatus, st.ID, want)
	}
	if st.Error&errNumMask != 0 {
		return statusPacket{}, &StatusError{ID: st.ID, Byte: st.Error}
	}
	if st.Error&alertBit != 0 && c.log != nil {
		c.log.WarnContext(ctx, "dxl hardware alert", slog.Int("id", int(st.ID)))
	}
	return st, nil
}

func (c *Client) trace(ctx context.Context, dir string, frame []byte) {
	if c.log == nil || len(frame) == 0 {
		return
	}
	c.log.LogAttrs(ctx, slog.LevelDebug, "dxl frame",
		slog.String("dir", dir),
		slog.Int("size", len(frame)),
		slog.String("data", hex.EncodeToString(frame)),
	)
}

func checkID(id uint8) error {
	if id > MaxID {
		return fmt.Errorf("dxl: invalid device id %d", id)
	}
	return nil
}

func le16(dst []byte, v uint16) []byte {
	return append(dst, byte(v), byte(v>>8))
}
