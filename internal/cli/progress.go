package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ScanProgressReporter implements scanner.Progress with a spinner-style
// progress bar. The file count is unknown up front, so the bar is indefinite.
type ScanProgressReporter struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

// NewScanProgressReporter creates a progress reporter. When quiet is set it
// reports nothing.
func NewScanProgressReporter(quiet bool) *ScanProgressReporter {
	r := &ScanProgressReporter{quiet: quiet}
	if quiet {
		return r
	}

	r.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Scanning files"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSpinnerType(14),
	)
	return r
}

func (r *ScanProgressReporter) FileScanned(path string) {
	if r.bar != nil {
		r.bar.Add(1)
	}
}

// Finish clears the bar so summary output starts on a clean line.
func (r *ScanProgressReporter) Finish() {
	if r.bar != nil {
		r.bar.Finish()
		fmt.Println()
	}
}
