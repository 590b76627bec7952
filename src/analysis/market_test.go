package analysis

import (
	"errors"
	"testing"
	"time"

	"trend-screener/src/helpers"
	"trend-screener/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barAt(t *testing.T, loc *time.Location, day string, hour, minute int, volume float64) models.MMinuteBar {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", day, loc)
	require.NoError(t, err)
	ts := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
	return models.MMinuteBar{Timestamp: ts.UnixMilli(), Volume: volume}
}

func nyLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

// -----------------------------------------------------------------------------

func TestPremarketVolumeWindowBoundaries(t *testing.T) {
	loc := nyLoc(t)
	day := "2025-06-10"
	date, _ := time.ParseInLocation("2006-01-02", day, loc)

	bars := []models.MMinuteBar{
		barAt(t, loc, day, 3, 59, 1000), // before window
		barAt(t, loc, day, 4, 0, 100),   // first minute in window
		barAt(t, loc, day, 7, 30, 200),
		barAt(t, loc, day, 9, 29, 300), // last minute in window
		barAt(t, loc, day, 9, 30, 5000), // market open, excluded
		barAt(t, loc, day, 12, 0, 9000),
	}

	assert.Equal(t, 600.0, PremarketVolume(bars, date, loc))
}

func TestPremarketVolumeIgnoresOtherDays(t *testing.T) {
	loc := nyLoc(t)
	date, _ := time.ParseInLocation("2006-01-02", "2025-06-10", loc)

	bars := []models.MMinuteBar{
		barAt(t, loc, "2025-06-09", 5, 0, 400),
		barAt(t, loc, "2025-06-10", 5, 0, 150),
		barAt(t, loc, "2025-06-11", 5, 0, 800),
	}

	assert.Equal(t, 150.0, PremarketVolume(bars, date, loc))
}

func TestPremarketVolumeNoBars(t *testing.T) {
	loc := nyLoc(t)
	date, _ := time.ParseInLocation("2006-01-02", "2025-06-10", loc)

	// A quiet ticker with no premarket prints is a real zero, not an error.
	assert.Equal(t, 0.0, PremarketVolume(nil, date, loc))
}

// -----------------------------------------------------------------------------

func TestGapUp(t *testing.T) {
	prev := 10.0
	gap, err := GapUp(10.5, &prev)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, gap, 1e-9)

	gap, err = GapUp(10.0, &prev)
	require.NoError(t, err)
	assert.Equal(t, 0.0, gap)

	gap, err = GapUp(9.0, &prev)
	require.NoError(t, err)
	assert.InDelta(t, -10.0, gap, 1e-9)
}

func TestGapUpMissingPreviousClose(t *testing.T) {
	_, err := GapUp(10.5, nil)
	require.Error(t, err)
	var missing *helpers.MissingDataError
	assert.True(t, errors.As(err, &missing))
}

func TestGapUpZeroPreviousClose(t *testing.T) {
	zero := 0.0
	_, err := GapUp(10.5, &zero)
	require.Error(t, err)
	var price *helpers.InvalidPriceError
	assert.True(t, errors.As(err, &price))
}

// -----------------------------------------------------------------------------

func TestComputeMarketMetrics(t *testing.T) {
	loc := nyLoc(t)
	day := "2025-06-10"
	date, _ := time.ParseInLocation("2006-01-02", day, loc)
	prevClose := 10.0

	snapshot := models.MTickerSnapshot{
		Symbol:            "ACME",
		CompanyName:       "Acme Corp",
		SharesOutstanding: 50_000_000,
		Active:            true,
	}
	summary := models.MDailySummary{Open: 10.4, High: 11.44, Low: 10.0, Close: 10.92}
	bars := []models.MMinuteBar{barAt(t, loc, day, 6, 0, 75000)}

	metrics, err := ComputeMarketMetrics(snapshot, date, loc, bars, summary, &prevClose)
	require.NoError(t, err)

	assert.Equal(t, "ACME", metrics.Symbol)
	assert.Equal(t, 75000.0, metrics.PremarketVolume)
	assert.InDelta(t, 4.0, metrics.GapUp, 1e-9)
	assert.InDelta(t, 10.0, metrics.OpenToHigh, 1e-9)
	assert.InDelta(t, 5.0, metrics.OpenToClose, 1e-9)
	require.NotNil(t, metrics.MarketCap)
	assert.InDelta(t, 520_000_000, *metrics.MarketCap, 1e-3)
}

func TestComputeMarketMetricsNoSharesOutstanding(t *testing.T) {
	loc := nyLoc(t)
	date, _ := time.ParseInLocation("2006-01-02", "2025-06-10", loc)
	prevClose := 10.0

	snapshot := models.MTickerSnapshot{Symbol: "ACME", Active: true}
	summary := models.MDailySummary{Open: 10.4, High: 10.4, Close: 10.4}

	metrics, err := ComputeMarketMetrics(snapshot, date, loc, nil, summary, &prevClose)
	require.NoError(t, err)

	// Absent shares outstanding means absent market cap, never zero.
	assert.Nil(t, metrics.MarketCap)
}

func TestComputeMarketMetricsZeroOpen(t *testing.T) {
	loc := nyLoc(t)
	date, _ := time.ParseInLocation("2006-01-02", "2025-06-10", loc)
	prevClose := 10.0

	snapshot := models.MTickerSnapshot{Symbol: "ACME", Active: true}
	summary := models.MDailySummary{Open: 0, High: 1, Close: 1}

	_, err := ComputeMarketMetrics(snapshot, date, loc, nil, summary, &prevClose)
	require.Error(t, err)
	var price *helpers.InvalidPriceError
	assert.True(t, errors.As(err, &price))
}
