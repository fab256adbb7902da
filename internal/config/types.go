package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	History   *HistoryConfig  `json:"history,omitempty"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Tasks     []TaskConfig    `json:"tasks"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// HistoryConfig controls the run history store. A nil section means the
// in-memory driver: decisions still consult past runs, nothing survives a
// restart.
type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// SchedulerConfig controls the decision loop and the execution pool.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
//
// Defaults (when fields are omitted/zero):
//   - poll_interval: "1s"
//   - workers: 2
//   - queue_size: 256
//   - default_timeout: "0s" (disabled)
//   - retry_max: 0 (no retries)
//   - eval_per_sec: 0 (unlimited)
type SchedulerConfig struct {
	Enabled      bool   `json:"enabled"`
	PollInterval string `json:"poll_interval,omitempty"`
	Workers      int    `json:"workers,omitempty"`
	QueueSize    int    `json:"queue_size,omitempty"`

	// DefaultTimeout bounds a task run that sets no timeout of its own.
	DefaultTimeout string `json:"default_timeout,omitempty"`

	// RetryMax is how many times a failed run is retried with backoff.
	RetryMax int `json:"retry_max,omitempty"`

	// EvalPerSec caps how many rule evaluation sweeps run per second,
	// smoothing bursts after a wall clock jump or a config reload.
	EvalPerSec int `json:"eval_per_sec,omitempty"`
}

// Overlap policies for a task whose previous run is still in flight.
const (
	OverlapSkip = "skip" // default: leave the running instance alone
	OverlapBoth = "both" // start another run regardless
)

type TaskConfig struct {
	Name string `json:"name"`

	// When is the scheduling rule, e.g.
	// "daily between 09:00 and 17:00 & after extract succeeded".
	When string `json:"when"`

	// Command is the argv to execute, first element the binary.
	Command []string `json:"command"`

	Timeout string `json:"timeout,omitempty"`
	Overlap string `json:"overlap,omitempty"`
}

// Validate checks everything that does not need the rule parser. Rule texts
// are validated where they are compiled, with the history store at hand.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Tasks))
	for i, t := range c.Tasks {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("tasks[%d]: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("tasks[%d]: duplicate task %q", i, name)
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(t.When) == "" {
			return fmt.Errorf("task %q: when rule is required", name)
		}
		if len(t.Command) == 0 {
			return fmt.Errorf("task %q: command is required", name)
		}
		switch t.Overlap {
		case "", OverlapSkip, OverlapBoth:
		default:
			return fmt.Errorf("task %q: unknown overlap policy %q", name, t.Overlap)
		}
		if _, err := ParseDurationField(fmt.Sprintf("task %q timeout", name), t.Timeout); err != nil {
			return err
		}
	}
	if _, err := ParseDurationField("scheduler.poll_interval", c.Scheduler.PollInterval); err != nil {
		return err
	}
	if _, err := ParseDurationField("scheduler.default_timeout", c.Scheduler.DefaultTimeout); err != nil {
		return err
	}
	if c.History != nil {
		if _, err := ParseDurationField("history.busy_timeout", c.History.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}

// PollIntervalOrDefault returns the effective sweep interval.
func (s SchedulerConfig) PollIntervalOrDefault() (time.Duration, error) {
	return ParseDurationOrDefault("scheduler.poll_interval", s.PollInterval, time.Second)
}

func (s SchedulerConfig) WorkersOrDefault() int {
	if s.Workers <= 0 {
		return 2
	}
	return s.Workers
}

func (s SchedulerConfig) QueueSizeOrDefault() int {
	if s.QueueSize <= 0 {
		return 256
	}
	return s.QueueSize
}
