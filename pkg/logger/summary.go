package logger

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// Summary holds the counters printed at the end of a run.
type Summary struct {
	Uploaded      int
	Skipped       int
	Excluded      int
	BytesUploaded int64
	Duration      time.Duration
	DryRun        bool
}

// PrintSummary prints a summary of the sync operation
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w)
	if s.DryRun {
		fmt.Fprintln(w, "=== Summary (dryrun) ===")
	} else {
		fmt.Fprintln(w, "=== Summary ===")
	}
	fmt.Fprintf(w, "Uploaded: %d files (%s)\n", s.Uploaded, humanize.Bytes(uint64(s.BytesUploaded)))
	fmt.Fprintf(w, "Unchanged: %d files\n", s.Skipped)
	if s.Excluded > 0 {
		fmt.Fprintf(w, "Excluded: %d files\n", s.Excluded)
	}
	fmt.Fprintf(w, "Duration: %s\n", s.Duration.Round(time.Millisecond))
}
