package booking

import "time"

// Day truncates t to day granularity in UTC. All booking dates are
// carried at day granularity; time-of-day never participates in
// comparisons.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive-inclusive span of calendar days. Both Start
// and End are day-truncated UTC times; End is a rented day, not a free
// return day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a day-truncated range. Callers must have validated
// ordering already.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// Overlaps reports whether the two ranges share at least one calendar
// day. Inclusive on both ends: a booking ending on day N overlaps one
// starting on day N, so same-day turnover is disallowed.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Contains reports whether day d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the inclusive calendar-day count of the range: a same-day
// range counts as one rental day.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}
