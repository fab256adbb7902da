package history

import (
	"errors"
	"time"
)

var (
	ErrUnknownDriver = errors.New("unknown history driver")
	ErrNoSuchRun     = errors.New("no such run")
)

// Outcome classifies a finished run. A run with no finish record yet is
// Running.
type Outcome string

const (
	Running Outcome = "running"
	Success Outcome = "success"
	Failure Outcome = "failure"
)

// Run is one execution of a task.
type Run struct {
	ID       int64
	Task     string
	Started  time.Time
	Finished time.Time // zero while running
	Outcome  Outcome
	Error    string
}

// Config configures the history store.
//
// Driver values:
//   - "sqlite": SQLite database file at Path
//   - "memory" (or empty): process-local store
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}
