package summary

import (
	"time"

	"github.com/mindharmony/mindharmony/internal/report"
)

// advisoryDoneMsg carries the advisor's outcome for this screen's report.
type advisoryDoneMsg struct {
	Outcome report.Outcome
}

// spinnerTickMsg animates the advisory panel while the request is pending.
type spinnerTickMsg time.Time

// exportDoneMsg reports where an export landed.
type exportDoneMsg struct {
	Path string
	Err  error
}
