package models

import "time"

// MMinuteBar is one ticker's OHLCV sample for a one-minute window.
// Timestamps within one series are strictly increasing and unique;
// they are produced by the market-data provider in epoch milliseconds
// and interpreted in the exchange's local time.
type MMinuteBar struct {
	Timestamp    int64   `json:"t"` // ms epoch, start of the minute
	Open         float64 `json:"o"`
	High         float64 `json:"h"`
	Low          float64 `json:"l"`
	Close        float64 `json:"c"`
	Volume       float64 `json:"v"`
	Transactions int64   `json:"n"`
	VWAP         float64 `json:"vw"`
}

// -----------------------------------------------------------------------------

// Time returns the bar's start timestamp in the given location.
func (b MMinuteBar) Time(loc *time.Location) time.Time {
	return time.UnixMilli(b.Timestamp).In(loc)
}

// -----------------------------------------------------------------------------

// MTickerSnapshot holds reference metadata for a ticker as of a date.
// ShareOutstanding == 0 means the provider did not report it; callers
// treat market cap as absent in that case rather than computing a zero.
type MTickerSnapshot struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"company_name"`
	Market            string  `json:"market"`
	PrimaryExchange   string  `json:"primary_exchange"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	Active            bool    `json:"active"`
}

// -----------------------------------------------------------------------------

// MDailySummary is the provider's daily open/close record for one
// ticker/date, used as the reference prices for the day.
type MDailySummary struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"from"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// -----------------------------------------------------------------------------

// MMarketMetrics is the Market Aggregate Processor output for one
// ticker/date. MarketCap is nil when shares outstanding were absent.
type MMarketMetrics struct {
	Symbol          string   `json:"symbol"`
	CompanyName     string   `json:"company_name"`
	PremarketVolume float64  `json:"premarket_volume"`
	GapUp           float64  `json:"gap_up"`
	MarketCap       *float64 `json:"market_cap,omitempty"`
	OpenPrice       float64  `json:"open_price"`
	HighPrice       float64  `json:"high_price"`
	ClosePrice      float64  `json:"close_price"`
	OpenToHigh      float64  `json:"open_to_high"`
	OpenToClose     float64  `json:"open_to_close"`
}
