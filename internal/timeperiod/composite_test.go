package timeperiod

import (
	"errors"
	"testing"
	"time"
)

func TestAllIntersection(t *testing.T) {
	t.Parallel()
	officeHours := mustBetween(t, Day, At{Clock: 9 * time.Hour}, At{Clock: 17 * time.Hour})
	lateShift := mustBetween(t, Day, At{Clock: 16 * time.Hour}, At{Clock: 20 * time.Hour})

	both, err := NewAll(officeHours, lateShift)
	if err != nil {
		t.Fatalf("NewAll: %v", err)
	}

	t.Run("overlapping children intersect", func(t *testing.T) {
		got, err := both.RollForward(wed(8 * time.Hour))
		if err != nil {
			t.Fatalf("RollForward: %v", err)
		}
		want := Span{wed(16 * time.Hour), wed(17 * time.Hour)}
		if !got.Left.Equal(want.Left) || !got.Right.Equal(want.Right) {
			t.Fatalf("RollForward = %v, want %v", got, want)
		}
	})

	t.Run("retry seeds past blocking child", func(t *testing.T) {
		// From 18:00 today's office hours are gone; the merge must advance to
		// tomorrow's overlap.
		got, err := both.RollForward(wed(18 * time.Hour))
		if err != nil {
			t.Fatalf("RollForward: %v", err)
		}
		want := Span{wed(40 * time.Hour), wed(41 * time.Hour)}
		if !got.Left.Equal(want.Left) || !got.Right.Equal(want.Right) {
			t.Fatalf("RollForward = %v, want %v", got, want)
		}
	})

	t.Run("roll back mirrors", func(t *testing.T) {
		got, err := both.RollBack(wed(23 * time.Hour))
		if err != nil {
			t.Fatalf("RollBack: %v", err)
		}
		want := Span{wed(16 * time.Hour), wed(17 * time.Hour)}
		if !got.Left.Equal(want.Left) || !got.Right.Equal(want.Right) {
			t.Fatalf("RollBack = %v, want %v", got, want)
		}
	})

	t.Run("result contained in both children", func(t *testing.T) {
		got, err := both.RollForward(wed(8 * time.Hour))
		if err != nil {
			t.Fatalf("RollForward: %v", err)
		}
		for _, child := range []Period{officeHours, lateShift} {
			sp, err := child.RollForward(got.Left)
			if err != nil {
				t.Fatalf("child RollForward: %v", err)
			}
			if !sp.Contains(got.Left) || !sp.Contains(got.Right) {
				t.Fatalf("intersection %v escapes child occurrence %v", got, sp)
			}
		}
	})
}

func TestAllNeverOverlappingReportsUnresolved(t *testing.T) {
	t.Parallel()
	morning := mustBetween(t, Day, At{Clock: 9 * time.Hour}, At{Clock: 10 * time.Hour})
	noon := mustBetween(t, Day, At{Clock: 12 * time.Hour}, At{Clock: 13 * time.Hour})

	never, err := NewAll(morning, noon)
	if err != nil {
		t.Fatalf("NewAll: %v", err)
	}
	if _, err := never.RollForward(wed(8 * time.Hour)); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("expected ErrUnresolved, got %v", err)
	}
}

func TestAnyUnion(t *testing.T) {
	t.Parallel()
	morning := mustBetween(t, Day, At{Clock: 9 * time.Hour}, At{Clock: 12 * time.Hour})
	midday := mustBetween(t, Day, At{Clock: 11 * time.Hour}, At{Clock: 15 * time.Hour})

	either, err := NewAny(morning, midday)
	if err != nil {
		t.Fatalf("NewAny: %v", err)
	}

	got, err := either.RollForward(wed(10 * time.Hour))
	if err != nil {
		t.Fatalf("RollForward: %v", err)
	}
	want := Span{wed(10 * time.Hour), wed(15 * time.Hour)}
	if !got.Left.Equal(want.Left) || !got.Right.Equal(want.Right) {
		t.Fatalf("RollForward = %v, want %v", got, want)
	}

	back, err := either.RollBack(wed(16 * time.Hour))
	if err != nil {
		t.Fatalf("RollBack: %v", err)
	}
	if !back.Left.Equal(wed(9 * time.Hour)) {
		t.Fatalf("RollBack left = %v, want 09:00", back.Left)
	}
}

func TestAnyCoversEachChild(t *testing.T) {
	t.Parallel()
	morning := mustBetween(t, Day, At{Clock: 9 * time.Hour}, At{Clock: 10 * time.Hour})
	evening := mustBetween(t, Day, At{Clock: 18 * time.Hour}, At{Clock: 19 * time.Hour})

	either, err := NewAny(morning, evening)
	if err != nil {
		t.Fatalf("NewAny: %v", err)
	}
	got, err := either.RollForward(wed(8 * time.Hour))
	if err != nil {
		t.Fatalf("RollForward: %v", err)
	}
	// Disjoint children: the union candidate spans from the first start to the
	// last end.
	want := Span{wed(9 * time.Hour), wed(19 * time.Hour)}
	if !got.Left.Equal(want.Left) || !got.Right.Equal(want.Right) {
		t.Fatalf("RollForward = %v, want %v", got, want)
	}
}

func TestCompositeConstructionErrors(t *testing.T) {
	t.Parallel()
	if _, err := NewAll(); !errors.Is(err, ErrConstruction) {
		t.Fatalf("expected ErrConstruction for empty All, got %v", err)
	}
	if _, err := NewAny(nil); !errors.Is(err, ErrConstruction) {
		t.Fatalf("expected ErrConstruction for nil child, got %v", err)
	}
}

func TestOffsetted(t *testing.T) {
	t.Parallel()
	officeHours := mustBetween(t, Day, At{Clock: 9 * time.Hour}, At{Clock: 17 * time.Hour})

	next, err := NewOffsetted(officeHours, 1)
	if err != nil {
		t.Fatalf("NewOffsetted: %v", err)
	}

	got, err := next.RollForward(wed(10 * time.Hour))
	if err != nil {
		t.Fatalf("RollForward: %v", err)
	}
	want := Span{wed(33 * time.Hour), wed(41 * time.Hour)}
	if !got.Left.Equal(want.Left) || !got.Right.Equal(want.Right) {
		t.Fatalf("RollForward = %v, want %v", got, want)
	}

	back, err := next.RollBack(wed(10 * time.Hour))
	if err != nil {
		t.Fatalf("RollBack: %v", err)
	}
	want = Span{wed(-15 * time.Hour), wed(-7 * time.Hour)}
	if !back.Left.Equal(want.Left) || !back.Right.Equal(want.Right) {
		t.Fatalf("RollBack = %v, want %v", back, want)
	}
}

func TestOffsettedRejectsCycle(t *testing.T) {
	t.Parallel()
	week, err := Weekly(time.Monday, 0, 1)
	if err != nil {
		t.Fatalf("Weekly: %v", err)
	}
	if _, err := NewOffsetted(week, 1); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestCompositeEquality(t *testing.T) {
	t.Parallel()
	a := mustBetween(t, Day, At{Clock: 9 * time.Hour}, At{Clock: 17 * time.Hour})
	b := mustBetween(t, Day, At{Clock: 16 * time.Hour}, At{Clock: 20 * time.Hour})

	ab1, err := NewAll(a, b)
	if err != nil {
		t.Fatalf("NewAll: %v", err)
	}
	ab2, err := NewAll(a, b)
	if err != nil {
		t.Fatalf("NewAll: %v", err)
	}
	ba, err := NewAll(b, a)
	if err != nil {
		t.Fatalf("NewAll: %v", err)
	}

	if !Equal(ab1, ab2) {
		t.Fatal("same children should compare equal")
	}
	if Equal(ab1, ba) {
		t.Fatal("child order is significant")
	}
}
