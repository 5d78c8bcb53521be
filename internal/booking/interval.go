package booking

import (
	"fmt"
	"time"
)

// dateLayout is the wire form the web layer sends for rental dates.
const dateLayout = "2006-01-02"

// Interval is a half-open time range [Start, End) with Start < End.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect. Sharing an
// endpoint is not an overlap, so a return at T and a pickup at T coexist.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Contains reports whether t falls inside the interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// parseStamp accepts the date-only wire form or a full RFC3339 timestamp,
// reporting which one it saw.
func parseStamp(s string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, false, err
}

// ParseInterval validates raw start/end date strings into an Interval.
// It fails with ErrInvalidRange when either stamp is unparsable, when
// start >= end, or when start lies further in the past than grace allows.
// A date-only start is checked against the start of now's day, so booking
// "today" works all day regardless of the grace setting.
func ParseInterval(startDate, endDate string, now time.Time, grace time.Duration) (Interval, error) {
	start, startDateOnly, err := parseStamp(startDate)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: bad start date %q", ErrInvalidRange, startDate)
	}
	end, _, err := parseStamp(endDate)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: bad end date %q", ErrInvalidRange, endDate)
	}
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidRange, startDate, endDate)
	}

	reference := now
	if startDateOnly {
		reference = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if start.Before(reference.Add(-grace)) {
		return Interval{}, fmt.Errorf("%w: start %s is in the past", ErrInvalidRange, startDate)
	}
	return Interval{Start: start, End: end}, nil
}
