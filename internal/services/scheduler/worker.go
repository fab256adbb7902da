package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"os/exec"
	"sync"
	"time"

	"chrond/internal/condition"
	"chrond/internal/eventbus"
	"chrond/internal/history"
	"chrond/internal/taskcond"
	"chrond/pkg/logx"
)

// observeRule evaluates a rule at one decision instant, supplying the
// arguments every leaf in the tree may declare.
func observeRule(ctx context.Context, rule condition.Condition, now time.Time) (bool, error) {
	return rule.Observe(condition.Args{
		taskcond.ArgCtx: ctx,
		taskcond.ArgNow: now,
	})
}

// CommandRunner wraps an argv into a task run function. The command inherits
// the run context, so timeouts and shutdown kill it.
func CommandRunner(argv []string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if len(argv) == 0 {
			return errors.New("empty command")
		}
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		return cmd.Run()
	}
}

func (s *Service) enqueue(j job) {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		s.log.Debug("scheduler not running; dropping task", logx.String("task", j.entry.def.Name))
		s.releaseJob(j)
		return
	}
	select {
	case q <- j:
		// ok
	default:
		s.log.Warn("scheduler queue full; dropping task",
			logx.String("task", j.entry.def.Name),
			logx.Int("queue_len", len(q)),
			logx.Int("queue_cap", cap(q)),
		)
		s.releaseJob(j)
	}
}

// releaseJob undoes the overlap acquisition for a job that never ran.
func (s *Service) releaseJob(j job) {
	if j.entry.def.Overlap == OverlapSkip {
		j.entry.state.release()
	}
}

func (s *Service) worker(ctx context.Context, stopCh <-chan struct{}, queue <-chan job) {
	for {
		// Fast-exit check so a closed stopCh wins over queued work.
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case j := <-queue:
			s.execOne(ctx, stopCh, j)
		}
	}
}

func (s *Service) execOne(ctx context.Context, stopCh <-chan struct{}, j job) {
	if j.entry.def.Overlap == OverlapSkip {
		defer j.entry.state.release()
	}

	// Copy scheduler config to avoid data races with Apply().
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()
	def := j.entry.def.withDefaults(cfg)

	start := s.now()
	runID, err := s.store.RecordStart(ctx, def.Name, start)
	if err != nil {
		s.log.Error("record start failed", logx.String("task", def.Name), logx.Err(err))
		return
	}
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeRunStarted, Time: start, Data: eventbus.RunEvent{
			Task: def.Name, RunID: runID, Started: start,
		}})
	}

	retries := def.RetryMax
	if retries < 0 {
		retries = 0
	}

	attempts := 0
	maxAttempts := 1 + retries
attemptLoop:
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		// Per-attempt timeout (so a timed-out first attempt doesn't poison
		// retries).
		runCtx := ctx
		var cancel func()
		if def.Timeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, def.Timeout)
		}
		err = def.Run(runCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			break
		}
		if attempt >= maxAttempts {
			break
		}

		delay := backoffDelay(def, attempt) // attempt=1 => first retry
		if delay > 0 {
			s.log.Debug("task retry scheduled",
				logx.String("task", def.Name),
				logx.Int("attempt", attempt+1),
				logx.Duration("delay", delay),
				logx.Err(err),
			)
			tmr := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !tmr.Stop() {
					<-tmr.C
				}
				err = ctx.Err()
				break attemptLoop
			case <-stopCh:
				if !tmr.Stop() {
					<-tmr.C
				}
				err = errors.New("scheduler stopped")
				break attemptLoop
			case <-tmr.C:
			}
		}
	}

	finished := s.now()
	dur := finished.Sub(start)
	outcome := history.Success
	errMsg := ""
	if err != nil {
		outcome = history.Failure
		errMsg = err.Error()
		s.log.Warn("task failed",
			logx.String("task", def.Name),
			logx.Err(err),
			logx.Duration("dur", dur),
			logx.Int("attempts", attempts),
		)
	} else if dur >= 750*time.Millisecond {
		// Avoid noisy logs for very frequent tasks: only elevate to INFO when
		// the run took noticeable time.
		s.log.Info("task completed", logx.String("task", def.Name), logx.Duration("dur", dur), logx.Int("attempts", attempts))
	} else {
		s.log.Debug("task completed", logx.String("task", def.Name), logx.Duration("dur", dur), logx.Int("attempts", attempts))
	}

	// Record against the background store context: a canceled run is still a
	// finished run.
	if rerr := s.store.RecordFinish(context.WithoutCancel(ctx), runID, finished, outcome, errMsg); rerr != nil {
		s.log.Error("record finish failed", logx.String("task", def.Name), logx.Err(rerr))
	}

	if s.bus != nil {
		evType := eventbus.TypeRunFinished
		if outcome == history.Failure {
			evType = eventbus.TypeRunFailed
		}
		s.bus.Publish(eventbus.Event{Type: evType, Time: finished, Data: eventbus.RunEvent{
			Task: def.Name, RunID: runID, Started: start, Duration: dur, Attempts: attempts, Error: errMsg,
		}})
	}
}

func backoffDelay(def TaskDef, retry int) time.Duration {
	// retry starts at 1 (first retry)
	base := def.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	maxD := def.RetryMaxDelay
	if maxD <= 0 {
		maxD = 15 * time.Second
	}
	j := def.RetryJitter
	if j <= 0 {
		j = 0.2
	}
	// exp growth
	d := base
	for i := 1; i < retry; i++ {
		d *= 2
		if d > maxD {
			d = maxD
			break
		}
	}
	// jitter [1-j, 1+j]
	if j > 0 {
		r := (randFloat64()*2 - 1) * j
		d = time.Duration(float64(d) * (1 + r))
		if d < 0 {
			d = 0
		}
	}
	if d > maxD {
		d = maxD
	}
	return d
}

var rngMu sync.Mutex

func randFloat64() float64 {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rand.Float64()
}
