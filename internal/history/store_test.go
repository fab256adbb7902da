package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"chrond/internal/timeperiod"
	"chrond/pkg/logx"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "history.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	mem, err := Open(Config{Driver: "memory"}, logx.Nop())
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlite.Close()
		_ = mem.Close()
	})
	return map[string]Store{"sqlite": sqlite, "memory": mem}
}

func TestStoreRoundTrip(t *testing.T) {
	base := time.Date(2025, time.June, 11, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for name, st := range openBackends(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			id, err := st.RecordStart(ctx, "backup", base)
			if err != nil {
				t.Fatalf("RecordStart: %v", err)
			}

			running, err := st.Running(ctx, "backup")
			if err != nil {
				t.Fatalf("Running: %v", err)
			}
			if !running {
				t.Fatal("expected running run")
			}

			if err := st.RecordFinish(ctx, id, base.Add(time.Minute), Success, ""); err != nil {
				t.Fatalf("RecordFinish: %v", err)
			}

			running, err = st.Running(ctx, "backup")
			if err != nil {
				t.Fatalf("Running: %v", err)
			}
			if running {
				t.Fatal("run should be finished")
			}

			last, ok, err := st.LastRun(ctx, "backup")
			if err != nil || !ok {
				t.Fatalf("LastRun = (%v, %v, %v)", last, ok, err)
			}
			if last.Outcome != Success {
				t.Fatalf("outcome = %s, want success", last.Outcome)
			}
			if !last.Started.Equal(base) {
				t.Fatalf("started = %v, want %v", last.Started, base)
			}
		})
	}
}

func TestStoreSpanQueries(t *testing.T) {
	base := time.Date(2025, time.June, 11, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for name, st := range openBackends(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			// One success at 09:00-09:01, one failure at 12:00-12:01,
			// one unrelated task.
			id, err := st.RecordStart(ctx, "sync", base)
			if err != nil {
				t.Fatalf("RecordStart: %v", err)
			}
			if err := st.RecordFinish(ctx, id, base.Add(time.Minute), Success, ""); err != nil {
				t.Fatalf("RecordFinish: %v", err)
			}
			id, err = st.RecordStart(ctx, "sync", base.Add(3*time.Hour))
			if err != nil {
				t.Fatalf("RecordStart: %v", err)
			}
			if err := st.RecordFinish(ctx, id, base.Add(3*time.Hour+time.Minute), Failure, "exit 1"); err != nil {
				t.Fatalf("RecordFinish: %v", err)
			}
			if _, err := st.RecordStart(ctx, "other", base); err != nil {
				t.Fatalf("RecordStart: %v", err)
			}

			morning := timeperiod.Span{Left: base.Add(-time.Hour), Right: base.Add(time.Hour)}
			allDay := timeperiod.Span{Left: base.Add(-time.Hour), Right: base.Add(12 * time.Hour)}

			started, err := st.CountStarted(ctx, "sync", morning)
			if err != nil {
				t.Fatalf("CountStarted: %v", err)
			}
			if started != 1 {
				t.Fatalf("CountStarted(morning) = %d, want 1", started)
			}

			succeeded, err := st.CountFinished(ctx, "sync", Success, allDay)
			if err != nil {
				t.Fatalf("CountFinished: %v", err)
			}
			if succeeded != 1 {
				t.Fatalf("CountFinished(success) = %d, want 1", succeeded)
			}

			finished, err := st.CountFinished(ctx, "sync", "", allDay)
			if err != nil {
				t.Fatalf("CountFinished: %v", err)
			}
			if finished != 2 {
				t.Fatalf("CountFinished(any) = %d, want 2", finished)
			}

			// Closed-closed edges: a start exactly at the span edge matches.
			edge := timeperiod.Span{Left: base, Right: base}
			started, err = st.CountStarted(ctx, "sync", edge)
			if err != nil {
				t.Fatalf("CountStarted: %v", err)
			}
			if started != 1 {
				t.Fatalf("CountStarted(point span) = %d, want 1", started)
			}
		})
	}
}

func TestRecordFinishUnknownRun(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			err := st.RecordFinish(ctx, 9999, time.Now(), Success, "")
			if !errors.Is(err, ErrNoSuchRun) {
				t.Fatalf("expected ErrNoSuchRun, got %v", err)
			}
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}
