package analysis

import (
	"sort"
	"time"

	"trend-screener/src/models"
)

// -----------------------------------------------------------------------------
// Combined Filter/Ranker
// -----------------------------------------------------------------------------

// Mode selects which sides of the analysis participate in a run.
type Mode int

const (
	ModeCombined Mode = iota
	ModeMarketOnly
	ModeTrendsOnly
)

func (m Mode) String() string {
	switch m {
	case ModeMarketOnly:
		return "market-only"
	case ModeTrendsOnly:
		return "trends-only"
	default:
		return "combined"
	}
}

// -----------------------------------------------------------------------------

// ScreenCriteria is the configurable threshold set. A nil field means
// no constraint on that dimension; all comparisons are inclusive (>=).
type ScreenCriteria struct {
	MinPremarketVolume *float64
	MinPrice           *float64
	MinGapUp           *float64
	MinMarketCap       *float64
	MinTrendsChange    *float64
}

// -----------------------------------------------------------------------------

// Threshold is a convenience for building optional criteria.
func Threshold(v float64) *float64 { return &v }

// -----------------------------------------------------------------------------

func (c ScreenCriteria) marketSatisfied(m *models.MMarketMetrics) bool {
	if m == nil {
		return false
	}
	if c.MinPremarketVolume != nil && m.PremarketVolume < *c.MinPremarketVolume {
		return false
	}
	if c.MinPrice != nil && m.OpenPrice < *c.MinPrice {
		return false
	}
	if c.MinGapUp != nil && m.GapUp < *c.MinGapUp {
		return false
	}
	if c.MinMarketCap != nil {
		// An active market-cap criterion requires the metric present.
		if m.MarketCap == nil || *m.MarketCap < *c.MinMarketCap {
			return false
		}
	}
	return true
}

func (c ScreenCriteria) trendsSatisfied(t *models.MTrendMetrics) bool {
	if t == nil {
		return false
	}
	if c.MinTrendsChange != nil && !t.TotalChange.Satisfies(*c.MinTrendsChange) {
		return false
	}
	return true
}

// -----------------------------------------------------------------------------

// FilterAndRank joins the two processors' outputs per ticker, applies
// the threshold set according to the run mode, and orders the results
// deterministically.
//
// Selection: in combined mode a ticker needs both metric sets present
// and all active criteria satisfied; in market-only or trends-only
// mode only that side's criteria apply. Results that fail selection
// are still returned (Selected=false) so report sinks can show the
// full field, ordered after the selected ones.
//
// Ordering: by percentage change (trend if present, else gap-up)
// descending, the unbounded sentinel above any numeric change, ties
// broken by symbol ascending.
func FilterAndRank(
	date time.Time,
	market map[string]models.MMarketMetrics,
	trends map[string]models.MTrendMetrics,
	criteria ScreenCriteria,
	mode Mode,
) []models.MAnalysisResult {

	symbols := make(map[string]struct{}, len(market)+len(trends))
	for sym := range market {
		symbols[sym] = struct{}{}
	}
	for sym := range trends {
		symbols[sym] = struct{}{}
	}

	now := time.Now().UTC()
	dateStr := date.Format("2006-01-02")
	results := make([]models.MAnalysisResult, 0, len(symbols))

	for sym := range symbols {
		result := models.MAnalysisResult{
			Symbol:    sym,
			Date:      dateStr,
			CreatedAt: now,
		}

		if m, ok := market[sym]; ok {
			mCopy := m
			result.Market = &mCopy
			result.CompanyName = m.CompanyName
		}
		if t, ok := trends[sym]; ok {
			tCopy := t
			result.Trends = &tCopy
		}

		switch mode {
		case ModeMarketOnly:
			result.Selected = criteria.marketSatisfied(result.Market)
		case ModeTrendsOnly:
			result.Selected = criteria.trendsSatisfied(result.Trends)
		default:
			result.Selected = result.Market != nil && result.Trends != nil &&
				criteria.marketSatisfied(result.Market) &&
				criteria.trendsSatisfied(result.Trends)
		}

		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Selected != b.Selected {
			return a.Selected
		}
		ca, cb := a.RankChange(), b.RankChange()
		if ca.Unbounded != cb.Unbounded || ca.Value != cb.Value {
			return cb.Less(ca)
		}
		return a.Symbol < b.Symbol
	})

	return results
}
