package report

import (
	"fmt"
	"os"
	"text/tabwriter"

	"trend-screener/src/logger"
	"trend-screener/src/models"
)

// -----------------------------------------------------------------------------
// ConsoleReport prints a ranked run to stdout.
// -----------------------------------------------------------------------------

type ConsoleReport struct {
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewConsoleReport(log *logger.Logger) *ConsoleReport {
	return &ConsoleReport{Logger: log}
}

// -----------------------------------------------------------------------------

func (r *ConsoleReport) WriteResults(run *models.MRunResult) (string, error) {
	fmt.Printf("\n=== Screen results for %s (%d results, %d selected, %.1fs) ===\n\n",
		run.Date, len(run.Results), run.Selected, run.Elapsed)

	if len(run.Results) == 0 {
		fmt.Println("No candidates.")
		return "", nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tSYMBOL\tGAP UP\tPREMARKET VOL\tMARKET CAP\tTREND CHANGE\tSELECTED")

	for i, result := range run.Results {
		gapUp, premarketVol, marketCap := "-", "-", "-"
		if m := result.Market; m != nil {
			gapUp = fmt.Sprintf("%.2f%%", m.GapUp)
			premarketVol = fmt.Sprintf("%.0f", m.PremarketVolume)
			if m.MarketCap != nil {
				marketCap = formatMarketCap(*m.MarketCap)
			}
		}

		trendChange := "-"
		if t := result.Trends; t != nil {
			if t.TotalChange.Unbounded {
				trendChange = "unbounded"
			} else {
				trendChange = fmt.Sprintf("%.1f%%", t.TotalChange.Value)
			}
		}

		selected := ""
		if result.Selected {
			selected = "*"
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, result.Symbol, gapUp, premarketVol, marketCap, trendChange, selected)
	}

	return "", w.Flush()
}

// -----------------------------------------------------------------------------

// WriteBacktest prints the aggregate summary for a replayed range.
func (r *ConsoleReport) WriteBacktest(summary *models.MBacktestSummary) {
	fmt.Printf("\n=== Backtest %s to %s ===\n", summary.StartDate, summary.EndDate)
	fmt.Printf("Trading days analyzed:  %d\n", summary.DaysAnalyzed)
	fmt.Printf("Days with candidates:   %d\n", summary.MatchingDays)
	fmt.Printf("Avg gap up:             %.2f%%\n", summary.AvgGapUp)
	fmt.Printf("Avg premarket volume:   %.0f\n", summary.AvgPremarketVol)
	fmt.Printf("Success rate:           %.1f%% closed above open\n", summary.SuccessRate)
	if summary.BestDate != "" {
		fmt.Printf("Best open-to-close:     %.2f%% on %s\n", summary.BestOpenToClose, summary.BestDate)
	}
}

// -----------------------------------------------------------------------------

func formatMarketCap(cap float64) string {
	switch {
	case cap >= 1e9:
		return fmt.Sprintf("%.2fB", cap/1e9)
	case cap >= 1e6:
		return fmt.Sprintf("%.2fM", cap/1e6)
	default:
		return fmt.Sprintf("%.0f", cap)
	}
}
