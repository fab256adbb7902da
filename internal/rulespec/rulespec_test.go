package rulespec

import (
	"context"
	"errors"
	"testing"
	"time"

	"chrond/internal/condition"
	"chrond/internal/history"
	"chrond/internal/taskcond"
	"chrond/pkg/logx"
)

var anchor = time.Date(2025, time.June, 11, 10, 0, 0, 0, time.UTC) // a Wednesday

func newParser(t *testing.T) (*Parser, history.Store) {
	t.Helper()
	st, err := history.Open(history.Config{Driver: "memory"}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewParser(st), st
}

func observe(t *testing.T, c condition.Condition, now time.Time) bool {
	t.Helper()
	got, err := c.Observe(condition.Args{
		taskcond.ArgCtx: context.Background(),
		taskcond.ArgNow: now,
	})
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	return got
}

func TestParseConstants(t *testing.T) {
	t.Parallel()
	p, _ := newParser(t)

	c, err := p.Parse("job", "true")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !c.Equal(condition.True()) {
		t.Error("expected the true constant")
	}

	c, err = p.Parse("job", "TRUE & false")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want, err := condition.All(condition.True(), condition.False())
	if err != nil {
		t.Fatalf("want: %v", err)
	}
	if !c.Equal(want) {
		t.Error("case-insensitive atoms should parse to All(true, false)")
	}
}

func TestOperatorPrecedence(t *testing.T) {
	t.Parallel()
	p, _ := newParser(t)

	// & binds tighter than |.
	c, err := p.Parse("job", "true | false & false")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !observe(t, c, anchor) {
		t.Error("true | (false & false) should hold")
	}

	c, err = p.Parse("job", "(true | false) & false")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if observe(t, c, anchor) {
		t.Error("(true | false) & false should not hold")
	}

	c, err = p.Parse("job", "!false & !(false | false)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !observe(t, c, anchor) {
		t.Error("negations should hold")
	}
}

func TestParseEvery(t *testing.T) {
	t.Parallel()
	p, st := newParser(t)
	ctx := context.Background()

	c, err := p.Parse("job", "every 10m")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !observe(t, c, anchor) {
		t.Error("task without history is due")
	}

	if _, err := st.RecordStart(ctx, "job", anchor.Add(-5*time.Minute)); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if observe(t, c, anchor) {
		t.Error("started 5m ago, 10m interval not elapsed")
	}
	if !observe(t, c, anchor.Add(10*time.Minute)) {
		t.Error("interval elapsed")
	}
}

func TestParseDailyWindow(t *testing.T) {
	t.Parallel()
	p, st := newParser(t)
	ctx := context.Background()

	c, err := p.Parse("job", "daily between 09:00 and 17:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !observe(t, c, anchor) {
		t.Error("10:00 inside the window, never started")
	}
	if observe(t, c, anchor.Add(12*time.Hour)) {
		t.Error("22:00 is outside the window")
	}

	if _, err := st.RecordStart(ctx, "job", anchor.Add(-30*time.Minute)); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if observe(t, c, anchor) {
		t.Error("already started inside today's window")
	}
	if !observe(t, c, anchor.AddDate(0, 0, 1)) {
		t.Error("next day's window is fresh")
	}
}

func TestParseWeekly(t *testing.T) {
	t.Parallel()
	p, _ := newParser(t)

	c, err := p.Parse("job", "weekly on wednesday")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !observe(t, c, anchor) {
		t.Error("anchor is a Wednesday")
	}
	if observe(t, c, anchor.AddDate(0, 0, 1)) {
		t.Error("Thursday is outside the window")
	}
}

func TestParseTimeOfAtoms(t *testing.T) {
	t.Parallel()
	p, _ := newParser(t)

	tests := []struct {
		rule string
		now  time.Time
		want bool
	}{
		{"time of day between 09:00 and 17:00", anchor, true},
		{"time of day between 09:00 and 17:00", anchor.Add(12 * time.Hour), false},
		{"time of week between monday and friday", anchor, true},
		{"time of week between saturday and sunday", anchor, false},
		{"time of month between 10th and 20th", anchor, true},
		{"time of month between 20th and 25th", anchor, false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.rule, func(t *testing.T) {
			t.Parallel()
			c, err := p.Parse("job", tc.rule)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := observe(t, c, tc.now); got != tc.want {
				t.Errorf("at %v: got %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestParseDependency(t *testing.T) {
	t.Parallel()
	p, st := newParser(t)
	ctx := context.Background()

	c, err := p.Parse("report", "after extract succeeded")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if observe(t, c, anchor) {
		t.Error("upstream never ran")
	}

	id, err := st.RecordStart(ctx, "extract", anchor.Add(-time.Hour))
	if err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if err := st.RecordFinish(ctx, id, anchor.Add(-time.Hour+time.Minute), history.Success, ""); err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}
	if !observe(t, c, anchor) {
		t.Error("upstream succeeded since report last ran")
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	p, _ := newParser(t)

	tests := []struct {
		name string
		rule string
		want error
	}{
		{"empty", "   ", ErrSyntax},
		{"dangling operator", "true &", ErrSyntax},
		{"unbalanced paren", "(true", ErrSyntax},
		{"stray close", "true)", ErrSyntax},
		{"unknown atom", "whenever convenient", ErrUnknownAtom},
		{"bad duration", "every soon", ErrSyntax},
		{"bad clock", "daily between 25:00 and 17:00", ErrSyntax},
		{"bad weekday", "weekly on caturday", ErrSyntax},
		{"bad cron", "cron not a spec", condition.ErrConstruction},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := p.Parse("job", tc.rule); !errors.Is(err, tc.want) {
				t.Fatalf("rule %q: got %v, want %v", tc.rule, err, tc.want)
			}
		})
	}
}

func TestParseFlattening(t *testing.T) {
	t.Parallel()
	p, _ := newParser(t)

	a, err := p.Parse("job", "(true & true) & false")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := condition.All(condition.True(), condition.True(), condition.False())
	if err != nil {
		t.Fatalf("want: %v", err)
	}
	if !a.Equal(b) {
		t.Error("nested conjunction should flatten")
	}
}
