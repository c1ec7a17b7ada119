// cmd/servoctl/dump.go
package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tamzrod/servo-replicator/internal/capture"
)

// dumpFile prints every record of a capture file.
func dumpFile(w io.Writer, path string) error {
	recs, err := capture.ReadFile(path)
	// records decoded before a truncated tail are still printed
	if perr := printRecords(w, recs); perr != nil {
		return perr
	}
	return err
}

func printRecords(w io.Writer, recs []capture.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, rec := range recs {
		fmt.Fprintf(tw, "%s run=%s group=%s\n", rec.At.Format(time.RFC3339Nano), rec.RunID, rec.Group)
		if rec.Error != "" {
			fmt.Fprintf(tw, "  error: %s\n", rec.Error)
			continue
		}
		fmt.Fprintf(tw, "  id\t%s\n", strings.Join(rec.Fields, "\t"))
		for _, row := range rec.Rows {
			cells := make([]string, len(row.Values))
			for i, v := range row.Values {
				cells[i] = formatValue(v)
				if i < len(row.Raw) {
					cells[i] += " (" + strconv.FormatInt(row.Raw[i], 10) + ")"
				}
			}
			fmt.Fprintf(tw, "  %d\t%s\n", row.Device, strings.Join(cells, "\t"))
		}
	}
	return tw.Flush()
}
