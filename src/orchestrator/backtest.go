package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"trend-screener/src/models"
)

// -----------------------------------------------------------------------------
// Multi-day runs. Each trading day is independent, so dates fan out
// under their own semaphore on top of the per-day concurrency.
// -----------------------------------------------------------------------------

// AnalyzeRange screens every trading day in [start, end] and returns
// the runs in date order. Non-trading days are skipped silently.
func (a *CombinedAnalyzer) AnalyzeRange(
	ctx context.Context,
	tickers []string,
	start, end time.Time,
	opts RunOptions,
) ([]*models.MRunResult, error) {

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if a.Calendar.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		a.Logger.Warning("No trading days between %s and %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
		return nil, nil
	}
	a.Logger.Info("Analyzing %d trading days from %s to %s",
		len(days), days[0].Format("2006-01-02"), days[len(days)-1].Format("2006-01-02"))

	maxParallel := a.Config.Screener.MaxParallelDates
	if maxParallel <= 0 {
		maxParallel = 1
	}

	runs := make([]*models.MRunResult, len(days))
	errs := make([]error, len(days))
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxParallel)

	for i, day := range days {
		wg.Add(1)
		go func(idx int, d time.Time) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			runs[idx], errs[idx] = a.AnalyzeDate(ctx, tickers, d, opts)
		}(i, day)
	}

	wg.Wait()

	out := make([]*models.MRunResult, 0, len(days))
	for i, run := range runs {
		if errs[i] != nil {
			return nil, errs[i]
		}
		out = append(out, run)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// Backtest replays the screen over a date range and summarizes how
// the selected candidates behaved during the regular session.
func (a *CombinedAnalyzer) Backtest(
	ctx context.Context,
	tickers []string,
	start, end time.Time,
	opts RunOptions,
) (*models.MBacktestSummary, []*models.MRunResult, error) {

	runs, err := a.AnalyzeRange(ctx, tickers, start, end, opts)
	if err != nil {
		return nil, nil, err
	}

	summary := &models.MBacktestSummary{
		StartDate:    start.Format("2006-01-02"),
		EndDate:      end.Format("2006-01-02"),
		DaysAnalyzed: len(runs),
	}

	var (
		totalSelected int
		sumGapUp      float64
		sumVolume     float64
		closedUp      int
	)
	for _, run := range runs {
		daySelected := 0
		for _, r := range run.Results {
			if !r.Selected || r.Market == nil {
				continue
			}
			daySelected++
			totalSelected++
			sumGapUp += r.Market.GapUp
			sumVolume += r.Market.PremarketVolume
			if r.Market.OpenToClose > 0 {
				closedUp++
			}
			if r.Market.OpenToClose > summary.BestOpenToClose {
				summary.BestOpenToClose = r.Market.OpenToClose
				summary.BestDate = run.Date
			}
		}
		if daySelected > 0 {
			summary.MatchingDays++
		}
	}

	if totalSelected > 0 {
		summary.AvgGapUp = sumGapUp / float64(totalSelected)
		summary.AvgPremarketVol = sumVolume / float64(totalSelected)
		summary.SuccessRate = float64(closedUp) / float64(totalSelected) * 100
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Date < runs[j].Date })
	return summary, runs, nil
}
