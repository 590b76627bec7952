package analysis

import (
	"testing"
	"time"

	"trend-screener/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marketMetrics(symbol string, gapUp, premarketVol, marketCap float64) models.MMarketMetrics {
	m := models.MMarketMetrics{
		Symbol:          symbol,
		PremarketVolume: premarketVol,
		GapUp:           gapUp,
		OpenPrice:       10,
	}
	if marketCap > 0 {
		m.MarketCap = &marketCap
	}
	return m
}

func trendMetrics(symbol string, change float64, unbounded bool) models.MTrendMetrics {
	return models.MTrendMetrics{
		Keyword:     symbol + " Stock",
		TotalChange: models.TrendChange{Unbounded: unbounded, Value: change},
	}
}

var screenDate = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

// -----------------------------------------------------------------------------

func TestFilterAndRankInclusiveThresholds(t *testing.T) {
	criteria := ScreenCriteria{
		MinGapUp:     Threshold(2.0),
		MinMarketCap: Threshold(100_000_000),
	}

	market := map[string]models.MMarketMetrics{
		"LOW":   marketMetrics("LOW", 1.5, 80000, 200_000_000),  // gap below threshold
		"EDGE":  marketMetrics("EDGE", 2.0, 80000, 100_000_000), // both exactly at threshold
		"GOOD":  marketMetrics("GOOD", 4.0, 80000, 500_000_000),
		"NOCAP": marketMetrics("NOCAP", 4.0, 80000, 0), // cap absent
	}
	trends := map[string]models.MTrendMetrics{
		"LOW":   trendMetrics("LOW", 60, false),
		"EDGE":  trendMetrics("EDGE", 60, false),
		"GOOD":  trendMetrics("GOOD", 60, false),
		"NOCAP": trendMetrics("NOCAP", 60, false),
	}

	results := FilterAndRank(screenDate, market, trends, criteria, ModeCombined)
	require.Len(t, results, 4)

	selected := make(map[string]bool)
	for _, r := range results {
		selected[r.Symbol] = r.Selected
	}

	assert.False(t, selected["LOW"], "gap up below threshold")
	assert.True(t, selected["EDGE"], "thresholds are inclusive")
	assert.True(t, selected["GOOD"])
	assert.False(t, selected["NOCAP"], "active market-cap criterion requires the metric")
}

// -----------------------------------------------------------------------------

func TestFilterAndRankCombinedRequiresBothSides(t *testing.T) {
	market := map[string]models.MMarketMetrics{
		"BOTH":       marketMetrics("BOTH", 3, 80000, 200_000_000),
		"MARKETONLY": marketMetrics("MARKETONLY", 3, 80000, 200_000_000),
	}
	trends := map[string]models.MTrendMetrics{
		"BOTH":       trendMetrics("BOTH", 60, false),
		"TRENDSONLY": trendMetrics("TRENDSONLY", 60, false),
	}

	results := FilterAndRank(screenDate, market, trends, ScreenCriteria{}, ModeCombined)
	require.Len(t, results, 3)

	for _, r := range results {
		if r.Symbol == "BOTH" {
			assert.True(t, r.Selected)
		} else {
			assert.False(t, r.Selected, "%s is missing one side", r.Symbol)
		}
	}
}

func TestFilterAndRankMarketOnlyMode(t *testing.T) {
	market := map[string]models.MMarketMetrics{
		"ACME": marketMetrics("ACME", 3, 80000, 200_000_000),
	}

	results := FilterAndRank(screenDate, market, nil, ScreenCriteria{MinGapUp: Threshold(2)}, ModeMarketOnly)
	require.Len(t, results, 1)
	assert.True(t, results[0].Selected)
	assert.Nil(t, results[0].Trends)
}

func TestFilterAndRankTrendsOnlyMode(t *testing.T) {
	trends := map[string]models.MTrendMetrics{
		"HOT":  trendMetrics("HOT", 80, false),
		"COLD": trendMetrics("COLD", 10, false),
	}

	results := FilterAndRank(screenDate, nil, trends, ScreenCriteria{MinTrendsChange: Threshold(50)}, ModeTrendsOnly)
	require.Len(t, results, 2)

	assert.Equal(t, "HOT", results[0].Symbol)
	assert.True(t, results[0].Selected)
	assert.False(t, results[1].Selected)
}

// -----------------------------------------------------------------------------

func TestFilterAndRankOrdering(t *testing.T) {
	trends := map[string]models.MTrendMetrics{
		"INF":  trendMetrics("INF", 0, true), // unbounded sorts above any numeric
		"BIG":  trendMetrics("BIG", 500, false),
		"TIEB": trendMetrics("TIEB", 100, false),
		"TIEA": trendMetrics("TIEA", 100, false),
		"LOW":  trendMetrics("LOW", 5, false),
	}

	results := FilterAndRank(screenDate, nil, trends, ScreenCriteria{}, ModeTrendsOnly)
	require.Len(t, results, 5)

	order := make([]string, len(results))
	for i, r := range results {
		order[i] = r.Symbol
	}
	assert.Equal(t, []string{"INF", "BIG", "TIEA", "TIEB", "LOW"}, order)
}

func TestFilterAndRankSelectedFirst(t *testing.T) {
	criteria := ScreenCriteria{MinTrendsChange: Threshold(50)}
	trends := map[string]models.MTrendMetrics{
		"BIGFAIL": trendMetrics("BIGFAIL", 40, false), // highest numeric but unselected
		"SMALLOK": trendMetrics("SMALLOK", 30, false),
	}
	// SMALLOK fails too; flip one to pass via unbounded.
	trends["UNBOUND"] = trendMetrics("UNBOUND", 0, true)

	results := FilterAndRank(screenDate, nil, trends, criteria, ModeTrendsOnly)
	require.Len(t, results, 3)

	assert.Equal(t, "UNBOUND", results[0].Symbol)
	assert.True(t, results[0].Selected)
	assert.Equal(t, "BIGFAIL", results[1].Symbol)
	assert.Equal(t, "SMALLOK", results[2].Symbol)
}

// -----------------------------------------------------------------------------

func TestFilterAndRankDeterministic(t *testing.T) {
	trends := map[string]models.MTrendMetrics{
		"A": trendMetrics("A", 100, false),
		"B": trendMetrics("B", 100, false),
		"C": trendMetrics("C", 100, false),
	}

	first := FilterAndRank(screenDate, nil, trends, ScreenCriteria{}, ModeTrendsOnly)
	for i := 0; i < 10; i++ {
		again := FilterAndRank(screenDate, nil, trends, ScreenCriteria{}, ModeTrendsOnly)
		for j := range first {
			assert.Equal(t, first[j].Symbol, again[j].Symbol)
		}
	}
}
