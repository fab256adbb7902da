package timeperiod

import "time"

// Delta is a floating window anchored at a caller-supplied reference instant:
// [reference-Past, reference+Future]. It has no containment semantics without
// a reference; plain Contains on a Delta reports ErrMissingReference.
type Delta struct {
	Past   time.Duration
	Future time.Duration
}

// NewDelta builds a Delta from the configured spans. Negative spans are
// taken by absolute value.
func NewDelta(past, future time.Duration) Delta {
	if past < 0 {
		past = -past
	}
	if future < 0 {
		future = -future
	}
	return Delta{Past: past, Future: future}
}

// RollForward returns [t, t+Future], the window including the current instant.
func (d Delta) RollForward(t time.Time) (Span, error) {
	return Span{Left: t, Right: t.Add(d.Future)}, nil
}

// RollBack returns [t-Past, t].
func (d Delta) RollBack(t time.Time) (Span, error) {
	return Span{Left: t.Add(-d.Past), Right: t}, nil
}

// ContainsAt reports whether t falls inside the window anchored at reference.
func (d Delta) ContainsAt(t, reference time.Time) bool {
	sp := Span{Left: reference.Add(-d.Past), Right: reference.Add(d.Future)}
	return sp.Contains(t)
}
