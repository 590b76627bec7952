package orchestrator

import (
	"context"
	"os"
	"testing"
	"time"

	"trend-screener/src/analysis"
	"trend-screener/src/calendar"
	"trend-screener/src/helpers"
	"trend-screener/src/logger"
	"trend-screener/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Stub sources
// -----------------------------------------------------------------------------

type stubMarketSource struct {
	snapshots map[string]models.MTickerSnapshot
	daily     map[string]models.MDailySummary // symbol|date
	bars      map[string][]models.MMinuteBar
}

func (s *stubMarketSource) Name() string { return "stub-market" }

func (s *stubMarketSource) GetTickerSnapshot(_ context.Context, symbol string) (models.MTickerSnapshot, error) {
	snap, ok := s.snapshots[symbol]
	if !ok {
		return models.MTickerSnapshot{}, helpers.NewMissingDataError("no snapshot for %s", symbol)
	}
	return snap, nil
}

func (s *stubMarketSource) GetMinuteBars(_ context.Context, symbol string, _ time.Time) ([]models.MMinuteBar, error) {
	return s.bars[symbol], nil
}

func (s *stubMarketSource) GetDailySummary(_ context.Context, symbol string, date time.Time) (models.MDailySummary, error) {
	summary, ok := s.daily[symbol+"|"+date.Format("2006-01-02")]
	if !ok {
		return models.MDailySummary{}, helpers.NewMissingDataError("no daily summary for %s", symbol)
	}
	return summary, nil
}

type stubTrendSource struct {
	series map[string][]models.MTrendSample // keyword
}

func (s *stubTrendSource) Name() string { return "stub-trends" }

func (s *stubTrendSource) FetchInterestSeries(_ context.Context, keyword string, _ time.Time) ([]models.MTrendSample, error) {
	series, ok := s.series[keyword]
	if !ok {
		return nil, helpers.NewMissingDataError("no series for %s", keyword)
	}
	return series, nil
}

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

const analyzerHolidays = `Date,Market Status
2025-07-04,Closed
`

func testAnalyzer(t *testing.T, market *stubMarketSource, trends *stubTrendSource) *CombinedAnalyzer {
	t.Helper()

	cal, err := loadCalendar(analyzerHolidays)
	require.NoError(t, err)

	cfg := &models.MConfig{
		Name:     "test",
		LogLevel: "ERROR",
	}
	cfg.Network.ConcurrentRequests = 4
	cfg.Providers.Trends.BatchSize = 4
	cfg.Screener.MaxParallelDates = 2

	return NewCombinedAnalyzer(cfg, cal, market, trends, time.UTC,
		logger.NewLogger(cfg.LogLevel, cfg.Name))
}

func loadCalendar(csv string) (*calendar.TradingCalendar, error) {
	return loadCalendarIn(csv, time.UTC)
}

func loadCalendarIn(csv string, loc *time.Location) (*calendar.TradingCalendar, error) {
	f, err := os.CreateTemp("", "holidays-*.csv")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(csv); err != nil {
		f.Close()
		return nil, err
	}
	f.Close()
	return calendar.NewFromCSV(f.Name(), loc)
}

func utcDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	require.NoError(t, err)
	return d
}

func trendSeries(day string, values map[int]int) []models.MTrendSample {
	return trendSeriesIn(day, values, time.UTC)
}

func trendSeriesIn(day string, values map[int]int, loc *time.Location) []models.MTrendSample {
	var samples []models.MTrendSample
	d, _ := time.ParseInLocation("2006-01-02", day, loc)
	for hour, v := range values {
		samples = append(samples, models.MTrendSample{
			Timestamp:   time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc),
			Value:       v,
			FetchWindow: "stub",
		})
	}
	return samples
}

// -----------------------------------------------------------------------------

func TestAnalyzeDateCombined(t *testing.T) {
	// 2025-06-10 is a Tuesday; previous trading day is Monday 06-09.
	market := &stubMarketSource{
		snapshots: map[string]models.MTickerSnapshot{
			"ACME": {Symbol: "ACME", CompanyName: "Acme Corp", SharesOutstanding: 50_000_000, Active: true},
		},
		daily: map[string]models.MDailySummary{
			"ACME|2025-06-10": {Open: 10.4, High: 11, Close: 10.9},
			"ACME|2025-06-09": {Open: 9.8, High: 10.1, Close: 10.0},
		},
	}
	trends := &stubTrendSource{
		series: map[string][]models.MTrendSample{
			"ACME Stock": append(
				trendSeries("2025-06-09", map[int]int{4: 30, 5: 40, 6: 60}),
				trendSeries("2025-06-10", map[int]int{4: 70, 5: 80, 6: 100})...),
		},
	}

	a := testAnalyzer(t, market, trends)
	run, err := a.AnalyzeDate(context.Background(), []string{"ACME"}, utcDay(t, "2025-06-10"),
		RunOptions{Mode: analysis.ModeCombined, HourBuckets: []int{4, 5, 6}})
	require.NoError(t, err)

	require.Len(t, run.Results, 1)
	result := run.Results[0]
	assert.True(t, result.Selected)
	require.NotNil(t, result.Market)
	assert.InDelta(t, 4.0, result.Market.GapUp, 1e-9)
	require.NotNil(t, result.Trends)
	assert.InDelta(t, 92.307692, result.Trends.TotalChange.Value, 1e-4)
	assert.Equal(t, 1, run.Selected)
}

func TestAnalyzeDateTrendsTimezoneBehindCalendar(t *testing.T) {
	// The calendar runs in New York while trend samples live in a UTC-8
	// analysis zone. Midnight New York is still the previous evening
	// there, so the target must cross the hand-off as a calendar date.
	// Converting the instant instead would correlate 06-09 against
	// 06-08 and drop the ticker.
	nyc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	trendsLoc := time.FixedZone("TRENDS", -8*60*60)

	trends := &stubTrendSource{
		series: map[string][]models.MTrendSample{
			"ACME Stock": append(
				trendSeriesIn("2025-06-09", map[int]int{4: 30, 5: 40, 6: 60}, trendsLoc),
				trendSeriesIn("2025-06-10", map[int]int{4: 70, 5: 80, 6: 100}, trendsLoc)...),
		},
	}

	cal, err := loadCalendarIn(analyzerHolidays, nyc)
	require.NoError(t, err)

	cfg := &models.MConfig{Name: "test", LogLevel: "ERROR"}
	cfg.Network.ConcurrentRequests = 4
	cfg.Providers.Trends.BatchSize = 4
	a := NewCombinedAnalyzer(cfg, cal, &stubMarketSource{}, trends, trendsLoc,
		logger.NewLogger(cfg.LogLevel, cfg.Name))

	date, err := time.ParseInLocation("2006-01-02", "2025-06-10", nyc)
	require.NoError(t, err)

	run, err := a.AnalyzeDate(context.Background(), []string{"ACME"}, date,
		RunOptions{Mode: analysis.ModeTrendsOnly, HourBuckets: []int{4, 5, 6}})
	require.NoError(t, err)

	require.Equal(t, 1, run.TrendCount)
	require.Len(t, run.Results, 1)
	result := run.Results[0]
	require.NotNil(t, result.Trends)
	assert.Equal(t, "2025-06-10", result.Trends.Date)
	assert.InDelta(t, 92.307692, result.Trends.TotalChange.Value, 1e-4)
}

func TestAnalyzeDateNonTradingDay(t *testing.T) {
	a := testAnalyzer(t, &stubMarketSource{}, &stubTrendSource{})

	// Saturday
	run, err := a.AnalyzeDate(context.Background(), []string{"ACME"}, utcDay(t, "2025-06-14"),
		RunOptions{Mode: analysis.ModeCombined, HourBuckets: []int{4, 5, 6}})
	require.NoError(t, err)
	assert.Empty(t, run.Results)
}

func TestAnalyzeDateExcludesTickerWithoutData(t *testing.T) {
	// GOOD has everything; GHOST has trends but no market data and is
	// excluded from the market pass without failing the run.
	market := &stubMarketSource{
		snapshots: map[string]models.MTickerSnapshot{
			"GOOD": {Symbol: "GOOD", SharesOutstanding: 1_000_000, Active: true},
		},
		daily: map[string]models.MDailySummary{
			"GOOD|2025-06-10": {Open: 5, High: 6, Close: 5.5},
			"GOOD|2025-06-09": {Open: 4.5, High: 4.9, Close: 4.8},
		},
	}
	trends := &stubTrendSource{
		series: map[string][]models.MTrendSample{
			"GOOD Stock": append(
				trendSeries("2025-06-09", map[int]int{4: 10}),
				trendSeries("2025-06-10", map[int]int{4: 50})...),
			"GHOST Stock": append(
				trendSeries("2025-06-09", map[int]int{4: 10}),
				trendSeries("2025-06-10", map[int]int{4: 80})...),
		},
	}

	a := testAnalyzer(t, market, trends)
	run, err := a.AnalyzeDate(context.Background(), []string{"GOOD", "GHOST"}, utcDay(t, "2025-06-10"),
		RunOptions{Mode: analysis.ModeCombined, HourBuckets: []int{4, 5, 6}})
	require.NoError(t, err)

	assert.Equal(t, 2, run.TrendCount)
	assert.Equal(t, 1, run.MarketCount)

	symbols := make(map[string]bool)
	for _, r := range run.Results {
		symbols[r.Symbol] = r.Selected
	}
	assert.True(t, symbols["GOOD"])
	assert.False(t, symbols["GHOST"], "missing market side cannot be selected in combined mode")
}

func TestAnalyzeDateInactiveTickerSkipped(t *testing.T) {
	market := &stubMarketSource{
		snapshots: map[string]models.MTickerSnapshot{
			"DEAD": {Symbol: "DEAD", Active: false},
		},
	}
	a := testAnalyzer(t, market, &stubTrendSource{})

	run, err := a.AnalyzeDate(context.Background(), []string{"DEAD"}, utcDay(t, "2025-06-10"),
		RunOptions{Mode: analysis.ModeMarketOnly})
	require.NoError(t, err)
	assert.Zero(t, run.MarketCount)
}

// -----------------------------------------------------------------------------

func TestAnalyzeRangeSkipsNonTradingDays(t *testing.T) {
	a := testAnalyzer(t, &stubMarketSource{}, &stubTrendSource{})

	// 2025-07-03 Thursday, 07-04 holiday, 07-05/06 weekend, 07-07 Monday.
	runs, err := a.AnalyzeRange(context.Background(), []string{"ACME"},
		utcDay(t, "2025-07-03"), utcDay(t, "2025-07-07"),
		RunOptions{Mode: analysis.ModeTrendsOnly, HourBuckets: []int{4, 5, 6}})
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, "2025-07-03", runs[0].Date)
	assert.Equal(t, "2025-07-07", runs[1].Date)
}

func TestBacktestSummary(t *testing.T) {
	market := &stubMarketSource{
		snapshots: map[string]models.MTickerSnapshot{
			"ACME": {Symbol: "ACME", SharesOutstanding: 1_000_000, Active: true},
		},
		daily: map[string]models.MDailySummary{
			"ACME|2025-06-10": {Open: 10.0, High: 11, Close: 10.5},
			"ACME|2025-06-09": {Open: 9.0, High: 9.6, Close: 9.5},
		},
	}
	trends := &stubTrendSource{
		series: map[string][]models.MTrendSample{
			"ACME Stock": append(
				trendSeries("2025-06-09", map[int]int{4: 10}),
				trendSeries("2025-06-10", map[int]int{4: 40})...),
		},
	}

	a := testAnalyzer(t, market, trends)
	summary, runs, err := a.Backtest(context.Background(), []string{"ACME"},
		utcDay(t, "2025-06-10"), utcDay(t, "2025-06-10"),
		RunOptions{Mode: analysis.ModeCombined, HourBuckets: []int{4, 5, 6}})
	require.NoError(t, err)

	require.Len(t, runs, 1)
	assert.Equal(t, 1, summary.DaysAnalyzed)
	assert.Equal(t, 1, summary.MatchingDays)
	// ACME closed above its open, the one selection succeeded.
	assert.InDelta(t, 100.0, summary.SuccessRate, 1e-9)
	assert.Equal(t, "2025-06-10", summary.BestDate)
}
