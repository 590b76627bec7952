package interfaces

import "trend-screener/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveResults inserts a batch of analysis results for one run date.
	SaveResults(results []models.MAnalysisResult) error

	// -----------------------------------------------------------------------------

	// LoadResults returns the stored results for a run date, ranked order preserved.
	LoadResults(date string) ([]models.MAnalysisResult, error)

	// -----------------------------------------------------------------------------

	// ListRunDates returns the distinct run dates present, newest first.
	ListRunDates() ([]string, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes runs older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
