package analysis

import (
	"time"

	"trend-screener/src/analysis/core"
	"trend-screener/src/helpers"
	"trend-screener/src/models"
)

// -----------------------------------------------------------------------------
// Market Aggregate Processor
//
// Pure functions over an immutable snapshot of one ticker/date; no
// shared state, safe to call concurrently across tickers.
// -----------------------------------------------------------------------------

// Pre-market window in exchange-local time: [04:00, 09:29:59].
const (
	premarketStartHour = 4
	marketOpenHour     = 9
	marketOpenMinute   = 30
)

// -----------------------------------------------------------------------------

// PremarketVolume sums the volume of all minute bars falling inside
// the pre-market window on the given date, interpreted in the
// exchange's local time. Zero bars in the window is a valid zero
// volume, not an error.
func PremarketVolume(bars []models.MMinuteBar, date time.Time, loc *time.Location) float64 {
	day := date.In(loc)
	total := 0.0

	for _, bar := range bars {
		ts := bar.Time(loc)
		if ts.Year() != day.Year() || ts.Month() != day.Month() || ts.Day() != day.Day() {
			continue
		}
		hour, minute := ts.Hour(), ts.Minute()
		if hour < premarketStartHour {
			continue
		}
		if hour < marketOpenHour || (hour == marketOpenHour && minute < marketOpenMinute) {
			total += bar.Volume
		}
	}

	return total
}

// -----------------------------------------------------------------------------

// GapUp calculates the percentage gap between the previous trading
// day's close and the day's open. prevClose is nil when the prior
// close could not be resolved; that is a MissingDataError, never a
// substituted value.
func GapUp(openPrice float64, prevClose *float64) (float64, error) {
	if prevClose == nil {
		return 0, helpers.NewMissingDataError("previous trading day close unavailable")
	}
	gap, ok := core.PercentChange(openPrice, *prevClose)
	if !ok {
		return 0, helpers.NewInvalidPriceError("previous close is zero")
	}
	return gap, nil
}

// -----------------------------------------------------------------------------

// ComputeMarketMetrics derives all per-ticker market metrics for one
// trading day. bars are the day's minute aggregates, day the daily
// reference prices, prevClose the prior trading day's close (nil when
// unavailable). Market cap is omitted, not zeroed, when the snapshot
// carries no shares outstanding.
func ComputeMarketMetrics(
	snapshot models.MTickerSnapshot,
	date time.Time,
	loc *time.Location,
	bars []models.MMinuteBar,
	day models.MDailySummary,
	prevClose *float64,
) (models.MMarketMetrics, error) {

	gap, err := GapUp(day.Open, prevClose)
	if err != nil {
		return models.MMarketMetrics{}, err
	}

	openToHigh, ok := core.PercentChange(day.High, day.Open)
	if !ok {
		return models.MMarketMetrics{}, helpers.NewInvalidPriceError("%s: day open price is zero", snapshot.Symbol)
	}
	openToClose, _ := core.PercentChange(day.Close, day.Open)

	metrics := models.MMarketMetrics{
		Symbol:          snapshot.Symbol,
		CompanyName:     snapshot.CompanyName,
		PremarketVolume: PremarketVolume(bars, date, loc),
		GapUp:           gap,
		OpenPrice:       day.Open,
		HighPrice:       day.High,
		ClosePrice:      day.Close,
		OpenToHigh:      openToHigh,
		OpenToClose:     openToClose,
	}

	if snapshot.SharesOutstanding > 0 {
		cap := snapshot.SharesOutstanding * day.Open
		metrics.MarketCap = &cap
	}

	return metrics, nil
}
