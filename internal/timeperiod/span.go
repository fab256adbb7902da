package timeperiod

import (
	"fmt"
	"time"
)

// Resolution is the minimum representable difference between two instants in
// this algebra. Adjacent occurrences of a period are exactly one Resolution
// apart.
const Resolution = time.Microsecond

// Min and Max are the smallest and largest representable instants. They double
// as sentinels: a degenerate span at Min or Max means "no previous/future
// occurrence".
var (
	Min = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	Max = time.Date(9999, time.December, 31, 23, 59, 59, 999999000, time.UTC)
)

// Span is a closed-closed interval between two instants: a point p is inside
// iff Left <= p <= Right. Left == Right is a valid single-point span.
type Span struct {
	Left  time.Time
	Right time.Time
}

// Contains reports whether t lies inside the span (both edges inclusive).
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Left) && !t.After(s.Right)
}

// Overlaps reports whether the two closed spans share at least one instant.
func (s Span) Overlaps(o Span) bool {
	return !s.Left.After(o.Right) && !o.Left.After(s.Right)
}

// IsPoint reports whether the span is degenerate (a single instant).
func (s Span) IsPoint() bool { return s.Left.Equal(s.Right) }

// Duration returns the length of the span.
func (s Span) Duration() time.Duration { return s.Right.Sub(s.Left) }

func (s Span) String() string {
	const layout = "2006-01-02 15:04:05.000000"
	return fmt.Sprintf("[%s, %s]", s.Left.Format(layout), s.Right.Format(layout))
}

// Intersect returns the common part of two overlapping spans. Calling it on
// disjoint spans is a precondition violation and returns ErrNotOverlapping;
// check Overlaps first.
func Intersect(a, b Span) (Span, error) {
	if !a.Overlaps(b) {
		return Span{}, fmt.Errorf("intersect %v with %v: %w", a, b, ErrNotOverlapping)
	}
	out := a
	if b.Left.After(out.Left) {
		out.Left = b.Left
	}
	if b.Right.Before(out.Right) {
		out.Right = b.Right
	}
	return out, nil
}
