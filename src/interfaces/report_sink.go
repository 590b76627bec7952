package interfaces

import "trend-screener/src/models"

// -----------------------------------------------------------------------------
// IReportSink renders a ranked result set; the core never formats output itself.
// -----------------------------------------------------------------------------

type IReportSink interface {

	// -----------------------------------------------------------------------------

	// WriteResults renders one run. Returns the artifact location
	// (file path for file-based sinks, empty for console).
	WriteResults(run *models.MRunResult) (string, error)
}
