package timeperiod

import (
	"fmt"
	"time"
)

// Frame identifies the calendar unit a FixedInterval recurs in.
type Frame int

const (
	Minute Frame = iota
	Hour
	Day
	Week
	Month
)

func (f Frame) String() string {
	switch f {
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	default:
		return fmt.Sprintf("frame(%d)", int(f))
	}
}

// At positions a boundary inside a frame. Days counts whole days from the
// frame start (weeks start on Monday, months on the 1st); Clock is the offset
// within that day. For Minute and Hour frames only Clock is meaningful.
type At struct {
	Days  int
	Clock time.Duration
}

// pos is the nominal position of the boundary within its frame, used only for
// ordering boundaries of the same frame.
func (a At) pos() time.Duration { return time.Duration(a.Days)*24*time.Hour + a.Clock }

// FixedInterval is a window recurring inside a calendar frame: "between 09:00
// and 17:00 each day", "from Friday each week", "the first day of each month".
//
// An omitted start means the frame's own start; an omitted end means the last
// representable instant of the frame. A configured end at or before the start
// wraps across the frame boundary ("between 22:00 and 02:00").
type FixedInterval struct {
	frame    Frame
	hasStart bool
	hasEnd   bool
	start    At
	end      At
}

// Whole returns the interval covering each entire frame, e.g. Whole(Day) is
// every calendar day from midnight to one Resolution before the next midnight.
func Whole(frame Frame) *FixedInterval {
	return &FixedInterval{frame: frame}
}

// Between returns the interval from start to end (inclusive) inside each frame.
func Between(frame Frame, start, end At) (*FixedInterval, error) {
	if err := validateAt(frame, start); err != nil {
		return nil, err
	}
	if err := validateAt(frame, end); err != nil {
		return nil, err
	}
	return &FixedInterval{frame: frame, hasStart: true, hasEnd: true, start: start, end: end}, nil
}

// After returns the interval from start to the end of each frame.
func After(frame Frame, start At) (*FixedInterval, error) {
	if err := validateAt(frame, start); err != nil {
		return nil, err
	}
	return &FixedInterval{frame: frame, hasStart: true, start: start}, nil
}

// Before returns the interval from the start of each frame to end (inclusive).
func Before(frame Frame, end At) (*FixedInterval, error) {
	if err := validateAt(frame, end); err != nil {
		return nil, err
	}
	return &FixedInterval{frame: frame, hasEnd: true, end: end}, nil
}

func validateAt(frame Frame, at At) error {
	if at.Clock < 0 || at.Days < 0 {
		return fmt.Errorf("%v boundary %+v: negative offset: %w", frame, at, ErrConstruction)
	}
	var ok bool
	switch frame {
	case Minute:
		ok = at.Days == 0 && at.Clock < time.Minute
	case Hour:
		ok = at.Days == 0 && at.Clock < time.Hour
	case Day:
		ok = at.Days == 0 && at.Clock < 24*time.Hour
	case Week:
		ok = at.Days <= 6 && at.Clock < 24*time.Hour
	case Month:
		ok = at.Days <= 30 && at.Clock < 24*time.Hour
	default:
		return fmt.Errorf("unknown frame %d: %w", int(frame), ErrConstruction)
	}
	if !ok {
		return fmt.Errorf("%v boundary %+v out of range: %w", frame, at, ErrConstruction)
	}
	return nil
}

// RollForward returns the occurrence containing t clipped to start at t, or
// the next occurrence if t is outside every one.
func (p *FixedInterval) RollForward(t time.Time) (Span, error) {
	fs := p.frame.floor(t)
	// A wrapped window can begin in the previous frame and still contain t.
	for k := -1; k <= 2; k++ {
		occ := p.occurrence(p.frame.shift(fs, k))
		if occ.Right.Before(t) {
			continue
		}
		if !occ.Left.After(t) {
			return Span{Left: t, Right: occ.Right}, nil
		}
		return occ, nil
	}
	return Span{}, fmt.Errorf("roll forward %v from %v: %w", p.frame, t, ErrUnresolved)
}

// RollBack returns the occurrence containing t clipped to end at t, or the
// previous occurrence if t is outside every one.
func (p *FixedInterval) RollBack(t time.Time) (Span, error) {
	fs := p.frame.floor(t)
	for k := 0; k >= -3; k-- {
		occ := p.occurrence(p.frame.shift(fs, k))
		if occ.Left.After(t) {
			continue
		}
		if !occ.Right.Before(t) {
			return Span{Left: occ.Left, Right: t}, nil
		}
		return occ, nil
	}
	return Span{}, fmt.Errorf("roll back %v from %v: %w", p.frame, t, ErrUnresolved)
}

// occurrence materializes the window for the frame starting at fs.
func (p *FixedInterval) occurrence(fs time.Time) Span {
	left := fs
	if p.hasStart {
		left = p.frame.apply(fs, p.start)
	}
	if !p.hasEnd {
		return Span{Left: left, Right: p.frame.shift(fs, 1).Add(-Resolution)}
	}
	endFrame := fs
	if p.wraps() {
		endFrame = p.frame.shift(fs, 1)
	}
	return Span{Left: left, Right: p.frame.apply(endFrame, p.end)}
}

func (p *FixedInterval) wraps() bool {
	return p.hasStart && p.hasEnd && p.end.pos() <= p.start.pos()
}

// floor returns the start of the frame containing t, in t's Location.
func (f Frame) floor(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch f {
	case Minute:
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
	case Hour:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc)
	case Day:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case Week:
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return day.AddDate(0, 0, -mondayIndex(day.Weekday()))
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return t
	}
}

// shift advances a frame start by k whole frames (k may be negative).
func (f Frame) shift(fs time.Time, k int) time.Time {
	switch f {
	case Minute:
		return fs.Add(time.Duration(k) * time.Minute)
	case Hour:
		return fs.Add(time.Duration(k) * time.Hour)
	case Day:
		return fs.AddDate(0, 0, k)
	case Week:
		return fs.AddDate(0, 0, 7*k)
	case Month:
		return fs.AddDate(0, k, 0)
	default:
		return fs
	}
}

// apply places a boundary inside the frame starting at fs.
func (f Frame) apply(fs time.Time, at At) time.Time {
	if at.Days != 0 {
		fs = fs.AddDate(0, 0, at.Days)
	}
	return fs.Add(at.Clock)
}

// mondayIndex maps a weekday to its offset from Monday (Monday=0 .. Sunday=6).
func mondayIndex(wd time.Weekday) int { return (int(wd) + 6) % 7 }
