package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/time/rate"

	"chrond/internal/eventbus"
	"chrond/internal/history"
	"chrond/pkg/logx"
)

func New(cfg Config, store history.Store, log logx.Logger, bus eventbus.Bus) *Service {
	return &Service{
		cfg:     cfg,
		store:   store,
		log:     log,
		bus:     bus,
		limiter: newLimiter(cfg.EvalPerSec),
		now:     time.Now,
	}
}

func newLimiter(perSec int) *rate.Limiter {
	if perSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

// Enabled reports the current config flag. (Thread-safe; Apply() may run
// concurrently.)
func (s *Service) Enabled() bool {
	s.mu.Lock()
	en := s.cfg.Enabled
	s.mu.Unlock()
	return en
}

// StartedAt returns when the current run began, zero when stopped.
func (s *Service) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// SetTasks replaces the task set. Takes effect on the next sweep.
func (s *Service) SetTasks(defs []TaskDef) {
	entries := make([]*taskEntry, 0, len(defs))
	for _, d := range defs {
		entries = append(entries, &taskEntry{def: d, state: &runState{}})
	}
	s.mu.Lock()
	s.tasks = entries
	s.mu.Unlock()
}

// Apply swaps config and tasks of a running service. Worker count and poll
// interval changes take effect on the next Start.
func (s *Service) Apply(cfg Config, defs []TaskDef) {
	s.SetTasks(defs)
	s.mu.Lock()
	s.cfg = cfg
	s.limiter = newLimiter(cfg.EvalPerSec)
	s.mu.Unlock()
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	cur := s.cfg
	s.mu.Unlock()
	s.log.Debug("start requested",
		logx.Bool("enabled", cur.Enabled),
		logx.Int("workers", cur.Workers),
		logx.Duration("poll", cur.PollInterval),
	)
	// If a Stop() is in progress, wait for it to complete (prevents double
	// worker pools).
	for {
		s.mu.Lock()
		if s.stopCh == nil {
			break
		}
		done := s.stopDone
		// already running (no stop in progress)
		if done == nil {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		select {
		case <-done:
			// loop and try again
		case <-ctx.Done():
			return
		}
	}
	defer s.mu.Unlock()
	s.stopCh = make(chan struct{})
	s.runCtx, s.runCancel = context.WithCancel(ctx)
	s.startedAt = s.now()

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	queueSize := s.cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	poll := s.cfg.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	// Fresh queue per run so a stop/start toggle never executes stale work.
	s.queue = make(chan job, queueSize)

	// Local captures prevent races if fields are swapped/nilled during Stop().
	runCtx := s.runCtx
	stopCh := s.stopCh
	queue := s.queue

	s.workerWG.Add(workers)
	for i := 0; i < workers; i++ {
		idx := i
		go func() {
			defer s.workerWG.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("panic in scheduler worker",
						logx.Int("worker", idx),
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())),
					)
				}
			}()
			s.log.Debug("worker started", logx.Int("worker", idx))
			s.worker(runCtx, stopCh, queue)
			s.log.Debug("worker stopped", logx.Int("worker", idx))
		}()
	}

	s.sweepWG.Add(1)
	go func() {
		defer s.sweepWG.Done()
		s.loop(runCtx, stopCh, poll)
	}()

	s.log.Info("scheduler started",
		logx.Int("workers", workers),
		logx.Duration("poll", poll),
		logx.Int("tasks", len(s.tasks)),
	)
}

func (s *Service) Stop(ctx context.Context) {
	start := time.Now()
	s.log.Info("stop requested")
	// If a stop is already in progress, just wait (best-effort).
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
	// Initiate stop.
	done := make(chan struct{})
	s.stopDone = done
	stopCh := s.stopCh
	cancel := s.runCancel
	s.runCancel = nil
	s.startedAt = time.Time{}
	s.mu.Unlock()

	// signal the loop and workers to exit promptly
	close(stopCh)
	if cancel != nil {
		cancel()
	}

	// finalize cleanup in background so Stop() can return on timeout safely.
	go func() {
		s.sweepWG.Wait()
		s.workerWG.Wait()
		s.mu.Lock()
		s.stopCh = nil
		s.runCtx = nil
		s.queue = nil
		s.stopDone = nil
		s.mu.Unlock()
		close(done)
		s.log.Info("scheduler stopped", logx.Duration("took", time.Since(start)))
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
		// stop continues in background
		return
	}
}

// loop drives the sweeps. The limiter smooths bursts after wall clock jumps
// or config reloads.
func (s *Service) loop(ctx context.Context, stopCh <-chan struct{}, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			limiter := s.limiter
			s.mu.Unlock()
			if limiter != nil && !limiter.Allow() {
				continue
			}
			s.Sweep(ctx)
		}
	}
}

// Sweep evaluates every task's rule at one decision instant and enqueues the
// due ones. Exported so the daemon can force an immediate decision after a
// config reload.
func (s *Service) Sweep(ctx context.Context) {
	now := s.now()
	s.mu.Lock()
	tasks := s.tasks
	s.mu.Unlock()

	for _, entry := range tasks {
		due, err := observeRule(ctx, entry.def.Rule, now)
		if err != nil {
			s.log.Warn("rule evaluation failed",
				logx.String("task", entry.def.Name),
				logx.Err(err),
			)
			continue
		}
		if !due {
			continue
		}
		if entry.def.Overlap == OverlapSkip && !entry.state.tryAcquire() {
			s.log.Debug("task still running; skipping", logx.String("task", entry.def.Name))
			continue
		}
		s.enqueue(job{entry: entry, due: now})
	}
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Enabled:   s.cfg.Enabled,
		Workers:   s.cfg.Workers,
		StartedAt: s.startedAt,
	}
	if s.queue != nil {
		snap.QueueLen = len(s.queue)
	}
	for _, entry := range s.tasks {
		entry.state.mu.Lock()
		running := entry.state.running
		entry.state.mu.Unlock()
		snap.Tasks = append(snap.Tasks, TaskInfo{
			Name:    entry.def.Name,
			Rule:    fmt.Sprintf("%v", entry.def.Rule),
			Running: running,
			Timeout: entry.def.Timeout,
		})
	}
	return snap
}
