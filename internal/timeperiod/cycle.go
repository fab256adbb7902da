package timeperiod

import (
	"fmt"
	"time"
)

// Cycle is a periodic window of n whole calendar units anchored at a start
// element, e.g. Weekly(time.Monday, 0, 1) is "each week, Monday to Monday".
//
// Unlike FixedInterval, containment is total: every instant belongs to some
// occurrence. Rolling answers which occurrence that is and where its
// boundaries lie.
type Cycle struct {
	unit   Frame
	anchor At
	n      int
}

// NewCycle builds an n-unit cycle anchored at the given element of the unit.
func NewCycle(unit Frame, anchor At, n int) (*Cycle, error) {
	if err := validateAt(unit, anchor); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("cycle length %d: %w", n, ErrConstruction)
	}
	return &Cycle{unit: unit, anchor: anchor, n: n}, nil
}

// Hourly is an n-hour cycle starting on the hour.
func Hourly(n int) (*Cycle, error) { return NewCycle(Hour, At{}, n) }

// Daily is an n-day cycle starting at the given time of day.
func Daily(at time.Duration, n int) (*Cycle, error) {
	return NewCycle(Day, At{Clock: at}, n)
}

// Weekly is an n-week cycle starting on the given weekday at the given time.
func Weekly(wd time.Weekday, at time.Duration, n int) (*Cycle, error) {
	return NewCycle(Week, At{Days: mondayIndex(wd), Clock: at}, n)
}

// Monthly is an n-month cycle starting on the given day of month (1-based).
func Monthly(day, n int) (*Cycle, error) {
	if day < 1 {
		return nil, fmt.Errorf("day of month %d: %w", day, ErrConstruction)
	}
	return NewCycle(Month, At{Days: day - 1}, n)
}

// RollForward returns [t, end of the ongoing occurrence].
//
// The candidate end t+(n-1) units is checked against the anchor element: if it
// already sits at or past the anchor, the (n-1)-unit stride has reached or
// crossed a cycle boundary and one more unit is needed before normalizing down
// to the boundary. Getting this test wrong silently drops or double-counts a
// unit for n > 1.
func (c *Cycle) RollForward(t time.Time) (Span, error) {
	te := c.unit.shift(t, c.n-1)
	if c.unit.element(te) >= c.anchor.pos() {
		te = c.unit.shift(te, 1)
	}
	te = c.replace(te)
	return Span{Left: t, Right: te.Add(-Resolution)}, nil
}

// RollBack returns [start of the ongoing occurrence, t].
func (c *Cycle) RollBack(t time.Time) (Span, error) {
	ts := c.unit.shift(t, -(c.n - 1))
	if c.unit.element(ts) < c.anchor.pos() {
		ts = c.unit.shift(ts, -1)
	}
	ts = c.replace(ts)
	return Span{Left: ts, Right: t}, nil
}

// replace moves t onto its unit's anchor element, i.e. the cycle boundary of
// the natural calendar frame containing t.
func (c *Cycle) replace(t time.Time) time.Time {
	return c.unit.apply(c.unit.floor(t), c.anchor)
}

// element extracts the position of t within one unit frame: seconds into the
// minute, time of day, offset from Monday, day of month.
func (f Frame) element(t time.Time) time.Duration {
	clock := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	switch f {
	case Minute:
		return time.Duration(t.Second())*time.Second + time.Duration(t.Nanosecond())
	case Hour:
		return clock - time.Duration(t.Hour())*time.Hour
	case Day:
		return clock
	case Week:
		return time.Duration(mondayIndex(t.Weekday()))*24*time.Hour + clock
	case Month:
		return time.Duration(t.Day()-1)*24*time.Hour + clock
	default:
		return clock
	}
}
