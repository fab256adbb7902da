package timeperiod

import (
	"fmt"
	"time"
)

// Period is a recurring or anchored section of time.
//
// RollForward returns the occurrence containing t, clipped to start at t, or
// the next occurrence if t is outside every one. RollBack is the mirror
// towards the past. Both guarantee Left <= Right on success.
//
// Roll operations are pure functions of the instant and the period's fixed
// configuration; implementations hold no mutable state.
type Period interface {
	RollForward(t time.Time) (Span, error)
	RollBack(t time.Time) (Span, error)
}

// Next returns the occurrence strictly after the one containing t. If t is
// inside the span RollForward returns, the search restarts one Resolution past
// its right edge so the result never contains t.
func Next(p Period, t time.Time) (Span, error) {
	sp, err := p.RollForward(t)
	if err != nil {
		return Span{}, err
	}
	if sp.Contains(t) {
		return p.RollForward(sp.Right.Add(Resolution))
	}
	return sp, nil
}

// Prev returns the occurrence strictly before the one containing t.
func Prev(p Period, t time.Time) (Span, error) {
	sp, err := p.RollBack(t)
	if err != nil {
		return Span{}, err
	}
	if sp.Contains(t) {
		return p.RollBack(sp.Left.Add(-Resolution))
	}
	return sp, nil
}

// Contains reports whether t is inside the period's current occurrence.
//
// Delta periods float around a reference instant and have no containment
// without one: use Delta.ContainsAt instead, or get ErrMissingReference here.
func Contains(p Period, t time.Time) (bool, error) {
	switch p.(type) {
	case Delta, *Delta:
		return false, fmt.Errorf("contains at %v: %w", t, ErrMissingReference)
	}
	sp, err := p.RollForward(t)
	if err != nil {
		return false, err
	}
	return sp.Contains(t), nil
}

// Equal reports whether two periods are the same variant with the same
// configuration. Composites compare element-wise in order.
func Equal(a, b Period) bool {
	switch x := a.(type) {
	case *FixedInterval:
		y, ok := b.(*FixedInterval)
		return ok && *x == *y
	case Delta:
		y, ok := b.(Delta)
		return ok && x == y
	case *Cycle:
		y, ok := b.(*Cycle)
		return ok && *x == *y
	case *StaticBound:
		y, ok := b.(*StaticBound)
		return ok && x.start.Equal(y.start) && x.end.Equal(y.end)
	case *allPeriod:
		y, ok := b.(*allPeriod)
		return ok && equalSlices(x.periods, y.periods)
	case *anyPeriod:
		y, ok := b.(*anyPeriod)
		return ok && equalSlices(x.periods, y.periods)
	case *Offsetted:
		y, ok := b.(*Offsetted)
		return ok && x.n == y.n && Equal(x.period, y.period)
	default:
		return false
	}
}

func equalSlices(a, b []Period) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
