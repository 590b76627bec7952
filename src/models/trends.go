package models

import (
	"encoding/json"
	"time"
)

// MTrendSample is one hour-bucketed search-interest value for a keyword.
//
// Values are on a provider-relative scale that resets per query: two
// samples are only comparable when they carry the same FetchWindow.
// Never merge samples from two fetch windows into one comparison, and
// key any cached series by FetchWindow.
type MTrendSample struct {
	Timestamp   time.Time `json:"timestamp"` // truncated to the hour, provider analysis timezone
	Value       int       `json:"value"`
	FetchWindow string    `json:"fetch_window"` // identity of the query window the value came from
}

// -----------------------------------------------------------------------------

// TrendChange is the cumulative day-over-day search-interest change.
// A zero previous total with positive current interest has no finite
// percentage; it is carried as the Unbounded case and treated as
// qualifying for any positive threshold. Value is meaningless when
// Unbounded is set.
type TrendChange struct {
	Unbounded bool
	Value     float64
}

// -----------------------------------------------------------------------------

// Satisfies reports whether the change meets a minimum-percentage
// threshold. The unbounded case qualifies for any threshold.
func (c TrendChange) Satisfies(min float64) bool {
	return c.Unbounded || c.Value >= min
}

// -----------------------------------------------------------------------------

// Less orders changes for ranking: unbounded sorts above any numeric.
func (c TrendChange) Less(other TrendChange) bool {
	if c.Unbounded || other.Unbounded {
		return !c.Unbounded && other.Unbounded
	}
	return c.Value < other.Value
}

// -----------------------------------------------------------------------------

func (c TrendChange) MarshalJSON() ([]byte, error) {
	if c.Unbounded {
		return json.Marshal("unbounded")
	}
	return json.Marshal(c.Value)
}

func (c *TrendChange) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = TrendChange{Unbounded: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = TrendChange{Value: v}
	return nil
}

// -----------------------------------------------------------------------------

// MHourDelta is the percentage change between two consecutive hour
// buckets on the target day. Change is nil when either hour is absent
// or the denominator is zero ("not applicable", never a computed zero).
type MHourDelta struct {
	FromHour int      `json:"from_hour"`
	ToHour   int      `json:"to_hour"`
	Change   *float64 `json:"change"`
}

// -----------------------------------------------------------------------------

// MTrendMetrics is the Search-Trend Correlator output for one
// keyword/date pair.
type MTrendMetrics struct {
	Keyword        string      `json:"keyword"`
	Date           string      `json:"date"`
	TotalChange    TrendChange `json:"total_change"`
	HourDeltas     []MHourDelta `json:"hour_deltas"`
	MatchingHours  []int       `json:"matching_hours"`
	CurrentValues  map[int]int `json:"current_values"`
	PreviousValues map[int]int `json:"previous_values"`
}
