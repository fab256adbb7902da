package timeperiod

import (
	"fmt"
	"time"
)

// maxRefineSteps bounds the fixed-point search of composite rolls. The search
// has no natural termination when child occurrences never meet (e.g. the
// intersection of two disjoint daily windows), so exceeding the cap reports
// ErrUnresolved instead of recursing forever.
const maxRefineSteps = 1024

// NewAll combines periods under intersection semantics: an occurrence of the
// composite is a maximal span inside an occurrence of every child.
func NewAll(periods ...Period) (Period, error) {
	if err := checkChildren(periods); err != nil {
		return nil, err
	}
	return &allPeriod{periods: periods}, nil
}

// NewAny combines periods under union semantics: an occurrence of the
// composite is a maximal span covered by the children's occurrences, merged
// while adjacent occurrences keep overlapping it.
func NewAny(periods ...Period) (Period, error) {
	if err := checkChildren(periods); err != nil {
		return nil, err
	}
	return &anyPeriod{periods: periods}, nil
}

func checkChildren(periods []Period) error {
	if len(periods) == 0 {
		return fmt.Errorf("composite period needs at least one child: %w", ErrConstruction)
	}
	for i, p := range periods {
		if p == nil {
			return fmt.Errorf("composite period child %d is nil: %w", i, ErrConstruction)
		}
	}
	return nil
}

type allPeriod struct {
	periods []Period
}

func (a *allPeriod) RollForward(t time.Time) (Span, error) {
	seed := t
	for step := 0; step < maxRefineSteps; step++ {
		spans, err := rollAll(a.periods, seed, true)
		if err != nil {
			return Span{}, err
		}
		if allOverlap(spans) {
			return overlapping(spans), nil
		}
		// No instant satisfies every child yet: skip past the candidate that
		// ends soonest, it is the one blocking full overlap.
		seed = minRight(spans).Add(Resolution)
	}
	return Span{}, fmt.Errorf("intersection roll forward from %v: %w", t, ErrUnresolved)
}

func (a *allPeriod) RollBack(t time.Time) (Span, error) {
	seed := t
	for step := 0; step < maxRefineSteps; step++ {
		spans, err := rollAll(a.periods, seed, false)
		if err != nil {
			return Span{}, err
		}
		if allOverlap(spans) {
			return overlapping(spans), nil
		}
		seed = maxLeft(spans).Add(-Resolution)
	}
	return Span{}, fmt.Errorf("intersection roll back from %v: %w", t, ErrUnresolved)
}

type anyPeriod struct {
	periods []Period
}

func (a *anyPeriod) RollForward(t time.Time) (Span, error) {
	spans, err := rollAll(a.periods, t, true)
	if err != nil {
		return Span{}, err
	}
	cur := Span{Left: minLeft(spans), Right: maxRight(spans)}

	// Extend while a subsequent child occurrence still overlaps the
	// accumulated union, so back-to-back occurrences form one span instead of
	// leaving a false gap.
	for step := 0; step < maxRefineSteps; step++ {
		next, err := rollAll(a.periods, cur.Right.Add(Resolution), true)
		if err != nil {
			return Span{}, err
		}
		if !anyOverlaps(cur, next) {
			return cur, nil
		}
		cur.Right = maxRight(next)
	}
	return Span{}, fmt.Errorf("union roll forward from %v: %w", t, ErrUnresolved)
}

func (a *anyPeriod) RollBack(t time.Time) (Span, error) {
	spans, err := rollAll(a.periods, t, false)
	if err != nil {
		return Span{}, err
	}
	cur := Span{Left: minLeft(spans), Right: maxRight(spans)}

	for step := 0; step < maxRefineSteps; step++ {
		next, err := rollAll(a.periods, cur.Left.Add(-Resolution), false)
		if err != nil {
			return Span{}, err
		}
		if !anyOverlaps(cur, next) {
			return cur, nil
		}
		cur.Left = minLeft(next)
	}
	return Span{}, fmt.Errorf("union roll back from %v: %w", t, ErrUnresolved)
}

// Offsetted shifts every occurrence of a period by n whole occurrences:
// each shift re-rolls from one Resolution past the far edge of the previous
// result. Cycles have no distinct occurrence to skip into (containment is
// total), so offsetting one is unsupported.
type Offsetted struct {
	period Period
	n      int
}

// NewOffsetted wraps period so its rolls land n occurrences away.
func NewOffsetted(period Period, n int) (*Offsetted, error) {
	if period == nil {
		return nil, fmt.Errorf("offsetted period is nil: %w", ErrConstruction)
	}
	if _, ok := period.(*Cycle); ok {
		return nil, fmt.Errorf("offsetting a cycle: %w", ErrUnsupported)
	}
	if n < 1 {
		return nil, fmt.Errorf("offset count %d: %w", n, ErrConstruction)
	}
	return &Offsetted{period: period, n: n}, nil
}

func (o *Offsetted) RollForward(t time.Time) (Span, error) {
	sp, err := o.period.RollForward(t)
	if err != nil {
		return Span{}, err
	}
	for i := 0; i < o.n; i++ {
		sp, err = o.period.RollForward(sp.Right.Add(Resolution))
		if err != nil {
			return Span{}, err
		}
	}
	return sp, nil
}

func (o *Offsetted) RollBack(t time.Time) (Span, error) {
	sp, err := o.period.RollBack(t)
	if err != nil {
		return Span{}, err
	}
	for i := 0; i < o.n; i++ {
		sp, err = o.period.RollBack(sp.Left.Add(-Resolution))
		if err != nil {
			return Span{}, err
		}
	}
	return sp, nil
}

// ---- span set helpers ----

func rollAll(periods []Period, t time.Time, forward bool) ([]Span, error) {
	spans := make([]Span, len(periods))
	for i, p := range periods {
		var err error
		if forward {
			spans[i], err = p.RollForward(t)
		} else {
			spans[i], err = p.RollBack(t)
		}
		if err != nil {
			return nil, err
		}
	}
	return spans, nil
}

func allOverlap(spans []Span) bool {
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			if !spans[i].Overlaps(spans[j]) {
				return false
			}
		}
	}
	return true
}

// overlapping returns the common part of pairwise-overlapping spans.
func overlapping(spans []Span) Span {
	return Span{Left: maxLeft(spans), Right: minRight(spans)}
}

func anyOverlaps(cur Span, spans []Span) bool {
	for _, sp := range spans {
		if cur.Overlaps(sp) {
			return true
		}
	}
	return false
}

func minLeft(spans []Span) time.Time {
	out := spans[0].Left
	for _, sp := range spans[1:] {
		if sp.Left.Before(out) {
			out = sp.Left
		}
	}
	return out
}

func maxLeft(spans []Span) time.Time {
	out := spans[0].Left
	for _, sp := range spans[1:] {
		if sp.Left.After(out) {
			out = sp.Left
		}
	}
	return out
}

func minRight(spans []Span) time.Time {
	out := spans[0].Right
	for _, sp := range spans[1:] {
		if sp.Right.Before(out) {
			out = sp.Right
		}
	}
	return out
}

func maxRight(spans []Span) time.Time {
	out := spans[0].Right
	for _, sp := range spans[1:] {
		if sp.Right.After(out) {
			out = sp.Right
		}
	}
	return out
}
