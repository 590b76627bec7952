package analysis

import (
	"sort"
	"time"

	"trend-screener/src/analysis/core"
	"trend-screener/src/helpers"
	"trend-screener/src/models"
)

// -----------------------------------------------------------------------------
// Search-Trend Correlator
//
// Aligns an hourly search-interest series onto the trading-calendar
// timeline: isolates the target day and its previous trading day,
// compares totals over the hours present in both, and derives
// hour-over-hour deltas for the target day. All timestamps are
// interpreted in the provider's single analysis timezone; the caller
// guarantees the series comes from one fetch window.
// -----------------------------------------------------------------------------

// BucketValues extracts the hour -> value map for one calendar day,
// keeping only the requested hour buckets.
func BucketValues(series []models.MTrendSample, day time.Time, hourBuckets []int) map[int]int {
	wanted := make(map[int]struct{}, len(hourBuckets))
	for _, h := range hourBuckets {
		wanted[h] = struct{}{}
	}

	values := make(map[int]int)
	y, m, d := day.Date()
	for _, sample := range series {
		sy, sm, sd := sample.Timestamp.Date()
		if sy != y || sm != m || sd != d {
			continue
		}
		if _, ok := wanted[sample.Timestamp.Hour()]; ok {
			values[sample.Timestamp.Hour()] = sample.Value
		}
	}
	return values
}

// -----------------------------------------------------------------------------

// MatchingHours returns the sorted intersection of hours present in
// both days' buckets. Comparing totals over this intersection keeps
// the day-over-day comparison fair when either day has gaps.
func MatchingHours(current, previous map[int]int) []int {
	var hours []int
	for h := range current {
		if _, ok := previous[h]; ok {
			hours = append(hours, h)
		}
	}
	sort.Ints(hours)
	return hours
}

// -----------------------------------------------------------------------------

// HourDeltas computes the percentage change between each pair of
// consecutive hours in hourBuckets for the target day. A pair with a
// missing hour or a zero denominator yields a nil change: not
// applicable, never a computed zero.
func HourDeltas(current map[int]int, hourBuckets []int) []models.MHourDelta {
	buckets := append([]int(nil), hourBuckets...)
	sort.Ints(buckets)

	var deltas []models.MHourDelta
	for i := 0; i+1 < len(buckets); i++ {
		from, to := buckets[i], buckets[i+1]
		if to != from+1 {
			continue
		}

		delta := models.MHourDelta{FromHour: from, ToHour: to}
		fromVal, hasFrom := current[from]
		toVal, hasTo := current[to]
		if hasFrom && hasTo && fromVal != 0 {
			change := float64(toVal-fromVal) / float64(fromVal) * 100
			delta.Change = &change
		}
		deltas = append(deltas, delta)
	}
	return deltas
}

// -----------------------------------------------------------------------------

// CorrelateTrends compares the target trading day's search interest
// against the previous trading day's over the configured hour buckets.
//
// The cumulative change follows a strict policy: a zero previous total
// with positive current interest is the unbounded-increase sentinel; a
// zero-to-zero comparison is excluded entirely (InsufficientDataError);
// otherwise the change is a plain percentage. An empty hour
// intersection is likewise an InsufficientDataError: the ticker is
// dropped from ranking and the batch continues.
func CorrelateTrends(
	keyword string,
	series []models.MTrendSample,
	targetDate time.Time,
	prevDay time.Time,
	hourBuckets []int,
) (models.MTrendMetrics, error) {

	current := BucketValues(series, targetDate, hourBuckets)
	previous := BucketValues(series, prevDay, hourBuckets)

	matching := MatchingHours(current, previous)
	if len(matching) == 0 {
		return models.MTrendMetrics{}, helpers.NewInsufficientDataError(
			"%s: no matching hours between %s and %s",
			keyword, targetDate.Format("2006-01-02"), prevDay.Format("2006-01-02"))
	}

	previousTotal := core.SumIntValues(previous, matching)
	currentTotal := core.SumIntValues(current, matching)

	var change models.TrendChange
	switch {
	case previousTotal == 0 && currentTotal == 0:
		return models.MTrendMetrics{}, helpers.NewInsufficientDataError(
			"%s: no search interest on either day", keyword)
	case previousTotal == 0:
		change = models.TrendChange{Unbounded: true}
	default:
		change = models.TrendChange{
			Value: float64(currentTotal-previousTotal) / float64(previousTotal) * 100,
		}
	}

	return models.MTrendMetrics{
		Keyword:        keyword,
		Date:           targetDate.Format("2006-01-02"),
		TotalChange:    change,
		HourDeltas:     HourDeltas(current, hourBuckets),
		MatchingHours:  matching,
		CurrentValues:  current,
		PreviousValues: previous,
	}, nil
}
