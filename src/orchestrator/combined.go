package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"trend-screener/src/analysis"
	"trend-screener/src/calendar"
	"trend-screener/src/helpers"
	"trend-screener/src/interfaces"
	"trend-screener/src/logger"
	"trend-screener/src/models"
)

// -----------------------------------------------------------------------------
// CombinedAnalyzer orchestrates the two providers around the pure
// analysis core: trends screen first, market pass on the survivors,
// then the combined filter/rank. The core functions are side-effect
// free per (ticker, date), so fan-out here is a scheduling choice, not
// a correctness concern.
// -----------------------------------------------------------------------------

type CombinedAnalyzer struct {
	Config   *models.MConfig
	Calendar *calendar.TradingCalendar
	Market   interfaces.IMarketDataSource
	Trends   interfaces.ITrendSource
	Logger   *logger.Logger
	// provider analysis timezone for trend samples
	TrendsLoc *time.Location
}

// -----------------------------------------------------------------------------

// RunOptions carries the per-run mode and thresholds.
type RunOptions struct {
	Mode        analysis.Mode
	Criteria    analysis.ScreenCriteria
	HourBuckets []int
	BatchSize   int
}

// -----------------------------------------------------------------------------

func NewCombinedAnalyzer(
	cfg *models.MConfig,
	cal *calendar.TradingCalendar,
	market interfaces.IMarketDataSource,
	trends interfaces.ITrendSource,
	trendsLoc *time.Location,
	log *logger.Logger,
) *CombinedAnalyzer {
	return &CombinedAnalyzer{
		Config:    cfg,
		Calendar:  cal,
		Market:    market,
		Trends:    trends,
		TrendsLoc: trendsLoc,
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

// AnalyzeDate runs one full screen for a single trading day.
// Per-ticker exclusions are logged and skipped; calendar or
// configuration failures abort.
func (a *CombinedAnalyzer) AnalyzeDate(
	ctx context.Context,
	tickers []string,
	date time.Time,
	opts RunOptions,
) (*models.MRunResult, error) {

	started := time.Now()
	dateStr := date.Format("2006-01-02")

	run := &models.MRunResult{Date: dateStr, Results: []models.MAnalysisResult{}}

	if !a.Calendar.IsTradingDay(date) {
		a.Logger.Warning("%s is not a trading day, nothing to analyze", dateStr)
		return run, nil
	}

	prevDay, err := a.Calendar.PreviousTradingDay(date)
	if err != nil {
		return nil, err
	}

	trendMetrics := make(map[string]models.MTrendMetrics)
	marketTickers := tickers

	// Step 1: trends screen
	if opts.Mode != analysis.ModeMarketOnly {
		trendMetrics, err = a.trendsPass(ctx, tickers, date, prevDay, opts)
		if err != nil {
			return nil, err
		}
		run.TrendCount = len(trendMetrics)

		if opts.Mode == analysis.ModeCombined {
			// Only tickers that cleared the trends screen are worth a
			// market pass.
			marketTickers = make([]string, 0, len(trendMetrics))
			for sym := range trendMetrics {
				marketTickers = append(marketTickers, sym)
			}
			sort.Strings(marketTickers)

			if len(marketTickers) == 0 {
				a.Logger.Info("No tickers met the trends criteria on %s", dateStr)
				run.Elapsed = time.Since(started).Seconds()
				return run, nil
			}
		}
	}

	// Step 2: market pass
	marketMetrics := make(map[string]models.MMarketMetrics)
	if opts.Mode != analysis.ModeTrendsOnly {
		marketMetrics, err = a.marketPass(ctx, marketTickers, date, prevDay)
		if err != nil {
			return nil, err
		}
		run.MarketCount = len(marketMetrics)
	}

	// Step 3: join, filter, rank
	run.Results = analysis.FilterAndRank(date, marketMetrics, trendMetrics, opts.Criteria, opts.Mode)
	for _, r := range run.Results {
		if r.Selected {
			run.Selected++
		}
	}
	run.Elapsed = time.Since(started).Seconds()

	a.Logger.Info("%s: %d results, %d selected (%s mode)", dateStr, len(run.Results), run.Selected, opts.Mode)
	return run, nil
}

// -----------------------------------------------------------------------------

// trendsPass fetches and correlates search interest for all tickers,
// batched to respect provider rate limits. Only tickers whose change
// clears the trends threshold are returned.
func (a *CombinedAnalyzer) trendsPass(
	ctx context.Context,
	tickers []string,
	date time.Time,
	prevDay time.Time,
	opts RunOptions,
) (map[string]models.MTrendMetrics, error) {

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = a.Config.Providers.Trends.BatchSize
	}

	// Trend samples live in the provider's analysis timezone. Rebuild
	// the calendar dates there by components; converting the midnight
	// instant would land on the previous calendar day.
	target := dateInLocation(date, a.TrendsLoc)
	previous := dateInLocation(prevDay, a.TrendsLoc)

	results := make(map[string]models.MTrendMetrics)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchSize)

	for _, symbol := range tickers {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			keyword := sym + " Stock"
			series, err := a.Trends.FetchInterestSeries(ctx, keyword, target)
			if err != nil {
				a.Logger.Info("Trends fetch failed for %s: %v", sym, err)
				return
			}

			metrics, err := analysis.CorrelateTrends(keyword, series, target, previous, opts.HourBuckets)
			if err != nil {
				if helpers.IsExclusion(err) {
					a.Logger.Debug("Excluding %s from trends ranking: %v", sym, err)
				} else {
					a.Logger.Info("Trend correlation failed for %s: %v", sym, err)
				}
				return
			}

			if opts.Criteria.MinTrendsChange != nil &&
				!metrics.TotalChange.Satisfies(*opts.Criteria.MinTrendsChange) {
				return
			}

			mu.Lock()
			results[sym] = metrics
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.Logger.Info("Trends pass: %d/%d tickers with significant changes", len(results), len(tickers))
	return results, nil
}

// -----------------------------------------------------------------------------

// dateInLocation carries a calendar date into another timezone,
// keeping the year, month and day rather than the instant.
func dateInLocation(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// -----------------------------------------------------------------------------

// marketPass computes market metrics for each ticker concurrently,
// bounded by the network concurrency limit.
func (a *CombinedAnalyzer) marketPass(
	ctx context.Context,
	tickers []string,
	date time.Time,
	prevDay time.Time,
) (map[string]models.MMarketMetrics, error) {

	results := make(map[string]models.MMarketMetrics)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, a.Config.Network.ConcurrentRequests)

	for _, symbol := range tickers {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			metrics, err := a.analyzeTicker(ctx, sym, date, prevDay)
			if err != nil {
				if helpers.IsExclusion(err) {
					a.Logger.Debug("Excluding %s from market ranking: %v", sym, err)
				} else {
					a.Logger.Info("Market analysis failed for %s: %v", sym, err)
				}
				return
			}

			mu.Lock()
			results[sym] = metrics
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.Logger.Info("Market pass: %d/%d tickers with metrics", len(results), len(tickers))
	return results, nil
}

// -----------------------------------------------------------------------------

// analyzeTicker gathers one ticker's inputs and hands them to the
// pure processor.
func (a *CombinedAnalyzer) analyzeTicker(
	ctx context.Context,
	symbol string,
	date time.Time,
	prevDay time.Time,
) (models.MMarketMetrics, error) {

	snapshot, err := a.Market.GetTickerSnapshot(ctx, symbol)
	if err != nil {
		return models.MMarketMetrics{}, err
	}
	if !snapshot.Active {
		return models.MMarketMetrics{}, helpers.NewMissingDataError("%s is delisted or inactive", symbol)
	}

	var prevClose *float64
	prevSummary, err := a.Market.GetDailySummary(ctx, symbol, prevDay)
	if err == nil {
		prevClose = &prevSummary.Close
	} else if !helpers.IsExclusion(err) {
		return models.MMarketMetrics{}, err
	}
	// Missing previous close stays nil; the processor reports it as
	// MissingDataError instead of approximating.

	daySummary, err := a.Market.GetDailySummary(ctx, symbol, date)
	if err != nil {
		return models.MMarketMetrics{}, err
	}

	bars, err := a.Market.GetMinuteBars(ctx, symbol, date)
	if err != nil && !helpers.IsExclusion(err) {
		return models.MMarketMetrics{}, err
	}

	return analysis.ComputeMarketMetrics(snapshot, date, a.Calendar.Location(), bars, daySummary, prevClose)
}
