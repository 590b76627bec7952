package interfaces

import (
	"context"
	"time"

	"trend-screener/src/models"
)

// -----------------------------------------------------------------------------
// IMarketDataSource provides ticker reference data and price/volume
// aggregates for one ticker/date.
// -----------------------------------------------------------------------------

type IMarketDataSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// GetTickerSnapshot fetches reference metadata (shares outstanding,
	// market type, active flag) for a ticker.
	GetTickerSnapshot(ctx context.Context, symbol string) (models.MTickerSnapshot, error)

	// -----------------------------------------------------------------------------

	// GetMinuteBars fetches the day's minute-level aggregates,
	// sorted ascending by timestamp.
	GetMinuteBars(ctx context.Context, symbol string, date time.Time) ([]models.MMinuteBar, error)

	// -----------------------------------------------------------------------------

	// GetDailySummary fetches the daily open/close reference prices.
	GetDailySummary(ctx context.Context, symbol string, date time.Time) (models.MDailySummary, error)
}

// -----------------------------------------------------------------------------
// ITrendSource provides hourly search-interest series.
// -----------------------------------------------------------------------------

type ITrendSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchInterestSeries returns the hourly series for a keyword over
	// a rolling window covering at least targetDate and one prior
	// trading day. All samples in the returned slice share one fetch
	// window; values are only comparable within it.
	FetchInterestSeries(ctx context.Context, keyword string, targetDate time.Time) ([]models.MTrendSample, error)
}
