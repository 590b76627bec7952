package models

import "time"

// MAnalysisResult is one ticker × one trading day, the terminal
// artifact handed to report sinks. Immutable once produced; pointer
// fields are nil when the corresponding side of the analysis did not
// run or was excluded upstream.
type MAnalysisResult struct {
	Symbol      string         `json:"symbol"`
	CompanyName string         `json:"company_name"`
	Date        string         `json:"date"` // YYYY-MM-DD
	Market      *MMarketMetrics `json:"market,omitempty"`
	Trends      *MTrendMetrics  `json:"trends,omitempty"`
	Selected    bool           `json:"selected"`
	CreatedAt   time.Time      `json:"created_at"`
}

// -----------------------------------------------------------------------------

// RankChange returns the ordering key: the trend change when present,
// otherwise the gap-up expressed as a numeric change.
func (r MAnalysisResult) RankChange() TrendChange {
	if r.Trends != nil {
		return r.Trends.TotalChange
	}
	if r.Market != nil {
		return TrendChange{Value: r.Market.GapUp}
	}
	return TrendChange{}
}

// -----------------------------------------------------------------------------

// MRunResult bundles everything produced for one analysis date.
type MRunResult struct {
	Date        string            `json:"date"`
	Results     []MAnalysisResult `json:"results"`
	MarketCount int               `json:"market_count"`
	TrendCount  int               `json:"trend_count"`
	Selected    int               `json:"selected"`
	Elapsed     float64           `json:"elapsed_seconds"`
}

// -----------------------------------------------------------------------------

// MBacktestSummary aggregates selected results over a date range.
type MBacktestSummary struct {
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	DaysAnalyzed    int     `json:"days_analyzed"`
	MatchingDays    int     `json:"matching_days"`
	AvgGapUp        float64 `json:"avg_gap_up"`
	AvgPremarketVol float64 `json:"avg_premarket_volume"`
	SuccessRate     float64 `json:"success_rate"` // share of selections closing above the open
	BestDate        string  `json:"best_date"`
	BestOpenToClose float64 `json:"best_open_to_close"`
}

// -----------------------------------------------------------------------------

// MRunNotice is pushed to connected report viewers when a run lands.
type MRunNotice struct {
	Type      string `json:"type"` // "RUN_COMPLETE"
	Date      string `json:"date"`
	Selected  int    `json:"selected"`
	Timestamp int64  `json:"timestamp"`
}
