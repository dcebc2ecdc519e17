package chit

import (
	"strings"
	"time"

	"github.com/retailerp/chitledger/internal/domain/shared"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, shared.NewValidationErrorf("INVALID_START_DATE", "start date %q must be in YYYY-MM-DD format", s)
	}
	return d, nil
}

// DateOnly truncates t to its calendar date in UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n calendar months to start, keeping the day of month. When
// the target month is shorter the result is clamped to its last day, so
// Jan 31 + 1 month is Feb 28 (or 29), never early March.
func AddMonths(start time.Time, n int) time.Time {
	y, m, d := start.Date()
	total := int(m) - 1 + n
	ty := y + total/12
	tm := total % 12
	if tm < 0 {
		tm += 12
		ty--
	}
	month := time.Month(tm + 1)
	if last := daysIn(ty, month); d > last {
		d = last
	}
	return time.Date(ty, month, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
