package timeperiod

import "time"

// StaticBound is a single fixed window between two instants. A zero start or
// end means unbounded (Min / Max respectively).
//
// Rolling past the window does not fail: a forward roll after the end returns
// the degenerate Max sentinel span ("no future occurrence"), and a backward
// roll before the start returns the Min sentinel.
type StaticBound struct {
	start time.Time
	end   time.Time
}

// NewStatic builds the window [start, end]. Zero bounds default to Min/Max.
func NewStatic(start, end time.Time) *StaticBound {
	if start.IsZero() {
		start = Min
	}
	if end.IsZero() {
		end = Max
	}
	return &StaticBound{start: start, end: end}
}

func (p *StaticBound) RollForward(t time.Time) (Span, error) {
	if p.end.Before(t) {
		// The window has already elapsed.
		return Span{Left: Max, Right: Max}, nil
	}
	return Span{Left: t, Right: p.end}, nil
}

func (p *StaticBound) RollBack(t time.Time) (Span, error) {
	if p.start.After(t) {
		// The window is still entirely in the future.
		return Span{Left: Min, Right: Min}, nil
	}
	return Span{Left: p.start, Right: t}, nil
}

// IsMax reports whether the window covers all representable time.
func (p *StaticBound) IsMax() bool {
	return p.start.Equal(Min) && p.end.Equal(Max)
}
