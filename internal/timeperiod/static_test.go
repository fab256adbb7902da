package timeperiod

import (
	"testing"
	"time"
)

func TestStaticBoundRolls(t *testing.T) {
	t.Parallel()
	start := wed(9 * time.Hour)
	end := wed(17 * time.Hour)
	window := NewStatic(start, end)

	t.Run("forward inside", func(t *testing.T) {
		got, err := window.RollForward(wed(10 * time.Hour))
		if err != nil {
			t.Fatalf("RollForward: %v", err)
		}
		if !got.Left.Equal(wed(10*time.Hour)) || !got.Right.Equal(end) {
			t.Fatalf("RollForward = %v", got)
		}
	})

	t.Run("forward past end returns max sentinel", func(t *testing.T) {
		got, err := window.RollForward(end.Add(Resolution))
		if err != nil {
			t.Fatalf("RollForward: %v", err)
		}
		if !got.IsPoint() || !got.Left.Equal(Max) {
			t.Fatalf("expected degenerate Max span, got %v", got)
		}
	})

	t.Run("back inside", func(t *testing.T) {
		got, err := window.RollBack(wed(10 * time.Hour))
		if err != nil {
			t.Fatalf("RollBack: %v", err)
		}
		if !got.Left.Equal(start) || !got.Right.Equal(wed(10*time.Hour)) {
			t.Fatalf("RollBack = %v", got)
		}
	})

	t.Run("back before start returns min sentinel", func(t *testing.T) {
		got, err := window.RollBack(start.Add(-Resolution))
		if err != nil {
			t.Fatalf("RollBack: %v", err)
		}
		if !got.IsPoint() || !got.Left.Equal(Min) {
			t.Fatalf("expected degenerate Min span, got %v", got)
		}
	})
}

func TestStaticBoundDefaults(t *testing.T) {
	t.Parallel()
	open := NewStatic(time.Time{}, time.Time{})
	if !open.IsMax() {
		t.Fatal("unbounded static window should cover all time")
	}

	got, err := open.RollForward(wed(0))
	if err != nil {
		t.Fatalf("RollForward: %v", err)
	}
	if !got.Right.Equal(Max) {
		t.Fatalf("unbounded end = %v, want Max", got.Right)
	}
}
