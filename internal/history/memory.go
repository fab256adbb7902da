package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chrond/internal/timeperiod"
)

// memStore keeps runs in memory. Used by tests and when persistence is
// disabled; queries behave identically to the sqlite driver.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	runs   []Run
}

func newMemory() *memStore {
	return &memStore{nextID: 1}
}

func (s *memStore) Close() error { return nil }

func (s *memStore) RecordStart(_ context.Context, task string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.runs = append(s.runs, Run{ID: id, Task: task, Started: at, Outcome: Running})
	return id, nil
}

func (s *memStore) RecordFinish(_ context.Context, id int64, at time.Time, outcome Outcome, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == id {
			s.runs[i].Finished = at
			s.runs[i].Outcome = outcome
			s.runs[i].Error = errMsg
			return nil
		}
	}
	return fmt.Errorf("run %d: %w", id, ErrNoSuchRun)
}

func (s *memStore) LastRun(_ context.Context, task string) (Run, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		out   Run
		found bool
	)
	for _, r := range s.runs {
		if r.Task != task {
			continue
		}
		if !found || r.Started.After(out.Started) || (r.Started.Equal(out.Started) && r.ID > out.ID) {
			out = r
			found = true
		}
	}
	return out, found, nil
}

func (s *memStore) CountStarted(_ context.Context, task string, span timeperiod.Span) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.runs {
		if r.Task == task && span.Contains(r.Started) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountFinished(_ context.Context, task string, outcome Outcome, span timeperiod.Span) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.runs {
		if r.Task != task || r.Finished.IsZero() {
			continue
		}
		if outcome != "" && r.Outcome != outcome {
			continue
		}
		if span.Contains(r.Finished) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) Running(_ context.Context, task string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.Task == task && r.Finished.IsZero() {
			return true, nil
		}
	}
	return false, nil
}
