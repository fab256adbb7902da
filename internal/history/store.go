package history

import (
	"context"
	"strings"
	"time"

	"chrond/internal/timeperiod"
	"chrond/pkg/logx"
)

// Store is the persistence API the condition and scheduler layers use.
//
// Span queries are closed-closed, consistent with timeperiod.Span: a run
// whose event instant equals a span edge matches.
type Store interface {
	// RecordStart inserts a running run and returns its id.
	RecordStart(ctx context.Context, task string, at time.Time) (int64, error)

	// RecordFinish closes a run with its outcome. Error text is kept for
	// operator inspection only; it does not affect queries.
	RecordFinish(ctx context.Context, id int64, at time.Time, outcome Outcome, errMsg string) error

	// LastRun returns the most recently started run of the task.
	LastRun(ctx context.Context, task string) (Run, bool, error)

	// CountStarted counts runs whose start instant lies inside the span.
	CountStarted(ctx context.Context, task string, span timeperiod.Span) (int, error)

	// CountFinished counts runs whose finish instant lies inside the span.
	// An empty outcome matches any finished run.
	CountFinished(ctx context.Context, task string, outcome Outcome, span timeperiod.Span) (int, error)

	// Running reports whether the task has an unfinished run.
	Running(ctx context.Context, task string) (bool, error)

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return newMemory(), nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, ErrUnknownDriver
	}
}
