// internal/capture/recorder.go
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/tamzrod/servo-replicator/internal/poller"
)

// Recorder appends poll results to a CBOR stream.
// Safe for concurrent use by several group pipelines.
type Recorder struct {
	mu     sync.Mutex
	enc    *cbor.Encoder
	closer io.Closer
	runID  string
}

// Create opens (or appends to) a capture file with a fresh run id.
func Create(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", path, err)
	}
	r := NewRecorder(f, uuid.New().String())
	r.closer = f
	return r, nil
}

// NewRecorder writes records to w under runID.
func NewRecorder(w io.Writer, runID string) *Recorder {
	return &Recorder{enc: encMode.NewEncoder(w), runID: runID}
}

// RunID identifies this daemon run in every record.
func (r *Recorder) RunID() string { return r.runID }

// Record appends one poll result.
func (r *Recorder) Record(res poller.PollResult) error {
	rec := FromPoll(r.runID, res)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enc == nil {
		return errors.New("capture: recorder closed")
	}
	if err := r.enc.Encode(rec); err != nil {
		return fmt.Errorf("capture: encode: %w", err)
	}
	return nil
}

// Close releases the file opened by Create.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.enc = nil
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
