package calendar

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"trend-screener/src/helpers"

	scmcal "github.com/scmhub/calendar"
)

// -----------------------------------------------------------------------------

// Market status values recognized in the holiday table.
const (
	StatusClosed     = "Closed"
	StatusEarlyClose = "Early Close"
)

// maxLookbackDays bounds PreviousTradingDay. A well-formed calendar
// never has a 30-day stretch without a trading day; hitting the bound
// means the holiday table is corrupt.
const maxLookbackDays = 30

// -----------------------------------------------------------------------------

// TradingCalendar answers "is date D a trading day" and "what is the
// previous trading day before D" from an immutable holiday table.
// Weekends are always closed regardless of table contents. All methods
// are pure; the table is loaded once at construction.
type TradingCalendar struct {
	closed     map[string]struct{} // YYYY-MM-DD -> closed all day
	earlyClose map[string]struct{} // YYYY-MM-DD -> open with early close
	loc        *time.Location
}

// -----------------------------------------------------------------------------

// NewFromCSV loads the holiday table from a CSV file with header
// columns Date, Market Status and an optional Description.
func NewFromCSV(path string, loc *time.Location) (*TradingCalendar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, helpers.NewCalendarConfigError("cannot open holiday table '%s': %v", path, err)
	}
	defer f.Close()

	return loadHolidayTable(f, loc)
}

// -----------------------------------------------------------------------------

// NewFromMarket builds the holiday table from the exchange calendar
// identified by a MIC code (ISO 10383), covering the current year plus
// two years either side. The library is only consulted here; lookups
// afterwards go through the same immutable table as the CSV path.
func NewFromMarket(mic string, loc *time.Location) (*TradingCalendar, error) {
	cal := scmcal.GetCalendar(strings.ToLower(mic))
	if cal == nil {
		return nil, helpers.NewCalendarConfigError("unknown market calendar '%s'", mic)
	}
	if loc == nil {
		loc = cal.Loc
	}

	tc := &TradingCalendar{
		closed:     make(map[string]struct{}),
		earlyClose: make(map[string]struct{}),
		loc:        loc,
	}

	now := time.Now().In(loc)
	day := time.Date(now.Year()-2, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(now.Year()+2, time.December, 31, 0, 0, 0, 0, loc)
	for !day.After(end) {
		wd := day.Weekday()
		if wd != time.Saturday && wd != time.Sunday && !cal.IsBusinessDay(day) {
			tc.closed[day.Format("2006-01-02")] = struct{}{}
		}
		day = day.AddDate(0, 0, 1)
	}

	return tc, nil
}

// -----------------------------------------------------------------------------

func loadHolidayTable(r io.Reader, loc *time.Location) (*TradingCalendar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, helpers.NewCalendarConfigError("holiday table is empty or unreadable: %v", err)
	}

	dateIdx, statusIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Date":
			dateIdx = i
		case "Market Status":
			statusIdx = i
		}
	}
	if dateIdx < 0 || statusIdx < 0 {
		return nil, helpers.NewCalendarConfigError("holiday table is missing required fields: Date, Market Status")
	}

	if loc == nil {
		loc = time.UTC
	}

	tc := &TradingCalendar{
		closed:     make(map[string]struct{}),
		earlyClose: make(map[string]struct{}),
		loc:        loc,
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, helpers.NewCalendarConfigError("holiday table line %d: %v", line, err)
		}
		if len(row) <= dateIdx || len(row) <= statusIdx {
			return nil, helpers.NewCalendarConfigError("holiday table line %d: too few columns", line)
		}

		dateStr := strings.TrimSpace(row[dateIdx])
		if _, err := time.ParseInLocation("2006-01-02", dateStr, loc); err != nil {
			return nil, helpers.NewCalendarConfigError("holiday table line %d: invalid date '%s'", line, dateStr)
		}

		switch strings.TrimSpace(row[statusIdx]) {
		case StatusClosed:
			tc.closed[dateStr] = struct{}{}
		case StatusEarlyClose:
			tc.earlyClose[dateStr] = struct{}{}
		default:
			return nil, helpers.NewCalendarConfigError("holiday table line %d: invalid market status '%s'", line, row[statusIdx])
		}
	}

	return tc, nil
}

// -----------------------------------------------------------------------------

// ValidateHolidaysCSV checks that the holiday table exists and has the
// expected format without constructing a calendar.
func ValidateHolidaysCSV(path string) error {
	_, err := NewFromCSV(path, time.UTC)
	return err
}

// -----------------------------------------------------------------------------

// Location returns the exchange-local timezone the calendar operates in.
func (tc *TradingCalendar) Location() *time.Location {
	return tc.loc
}

// -----------------------------------------------------------------------------

// IsTradingDay reports whether the market is open on the given date.
// Early-close days still count as trading days.
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	date = date.In(tc.loc)

	weekday := date.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}

	_, holiday := tc.closed[date.Format("2006-01-02")]
	return !holiday
}

// -----------------------------------------------------------------------------

// IsEarlyClose reports whether the market closes early on the given
// date. Callers using close-sensitive windows consult this separately.
func (tc *TradingCalendar) IsEarlyClose(date time.Time) bool {
	date = date.In(tc.loc)
	_, ok := tc.earlyClose[date.Format("2006-01-02")]
	return ok
}

// -----------------------------------------------------------------------------

// PreviousTradingDay returns the last trading day strictly before the
// given date. The walk is bounded: not finding a trading day within
// maxLookbackDays signals a corrupt holiday table.
func (tc *TradingCalendar) PreviousTradingDay(date time.Time) (time.Time, error) {
	day := date.In(tc.loc)
	for i := 0; i < maxLookbackDays; i++ {
		day = day.AddDate(0, 0, -1)
		if tc.IsTradingDay(day) {
			return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, tc.loc), nil
		}
	}
	return time.Time{}, helpers.NewCalendarConfigError(
		"no trading day found within %d days before %s", maxLookbackDays, date.Format("2006-01-02"))
}
