// internal/capture/reader.go
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadAll decodes every record in a capture stream.
func ReadAll(r io.Reader) ([]Record, error) {
	dec := decMode.NewDecoder(r)

	var out []Record
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("capture: record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
}

// ReadFile decodes a capture file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadAll(f)
}
