package timeperiod

import (
	"errors"
	"testing"
	"time"
)

func TestSpanContains(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, time.June, 11, 10, 0, 0, 0, time.UTC)
	sp := Span{Left: base, Right: base.Add(time.Hour)}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "left edge", at: base, want: true},
		{name: "right edge", at: base.Add(time.Hour), want: true},
		{name: "inside", at: base.Add(30 * time.Minute), want: true},
		{name: "before", at: base.Add(-Resolution), want: false},
		{name: "after", at: base.Add(time.Hour + Resolution), want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := sp.Contains(tt.at); got != tt.want {
				t.Fatalf("Contains(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestSpanOverlaps(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{name: "disjoint", a: Span{at(1), at(2)}, b: Span{at(3), at(4)}, want: false},
		{name: "nested", a: Span{at(1), at(8)}, b: Span{at(2), at(3)}, want: true},
		{name: "partial", a: Span{at(1), at(3)}, b: Span{at(2), at(4)}, want: true},
		{name: "shared edge", a: Span{at(1), at(2)}, b: Span{at(2), at(3)}, want: true},
		{name: "adjacent by resolution", a: Span{at(1), at(2)}, b: Span{at(2).Add(Resolution), at(3)}, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Fatalf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Fatalf("Overlaps (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntersect(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	got, err := Intersect(Span{at(1), at(5)}, Span{at(3), at(8)})
	if err != nil {
		t.Fatalf("Intersect error: %v", err)
	}
	want := Span{at(3), at(5)}
	if !got.Left.Equal(want.Left) || !got.Right.Equal(want.Right) {
		t.Fatalf("Intersect = %v, want %v", got, want)
	}

	if _, err := Intersect(Span{at(1), at(2)}, Span{at(3), at(4)}); !errors.Is(err, ErrNotOverlapping) {
		t.Fatalf("expected ErrNotOverlapping, got %v", err)
	}
}
