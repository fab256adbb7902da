package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"chrond/internal/condition"
	"chrond/internal/eventbus"
	"chrond/internal/history"
	"chrond/pkg/logx"
)

// Config controls the decision loop and the execution pool.
type Config struct {
	Enabled        bool
	PollInterval   time.Duration
	Workers        int
	QueueSize      int
	DefaultTimeout time.Duration
	RetryMax       int
	// EvalPerSec caps rule evaluation sweeps; 0 means every tick sweeps.
	EvalPerSec int
}

type OverlapPolicy int

const (
	// OverlapSkip leaves a task alone while a previous run is in flight.
	OverlapSkip OverlapPolicy = iota
	// OverlapBoth starts another run regardless.
	OverlapBoth
)

// TaskDef is one schedulable task: a rule deciding when it is due and the
// work to run when it is.
type TaskDef struct {
	Name    string
	Rule    condition.Condition
	Run     func(ctx context.Context) error
	Timeout time.Duration
	Overlap OverlapPolicy

	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
	RetryJitter   float64 // 0.2 = 20%
}

func (d TaskDef) withDefaults(cfg Config) TaskDef {
	if d.Timeout <= 0 {
		d.Timeout = cfg.DefaultTimeout
	}
	if d.RetryMax <= 0 {
		d.RetryMax = cfg.RetryMax
	}
	if d.RetryBase <= 0 {
		d.RetryBase = 500 * time.Millisecond
	}
	if d.RetryMaxDelay <= 0 {
		d.RetryMaxDelay = 15 * time.Second
	}
	if d.RetryJitter <= 0 {
		d.RetryJitter = 0.2
	}
	return d
}

// runState is shared between sweeps and the worker executing the task, for
// overlap control.
type runState struct {
	mu      sync.Mutex
	running bool
}

func (st *runState) tryAcquire() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.running {
		return false
	}
	st.running = true
	return true
}

func (st *runState) release() {
	st.mu.Lock()
	st.running = false
	st.mu.Unlock()
}

type taskEntry struct {
	def   TaskDef
	state *runState
}

type job struct {
	entry *taskEntry
	due   time.Time
}

type Service struct {
	mu sync.Mutex

	log   logx.Logger
	cfg   Config
	store history.Store
	bus   eventbus.Bus
	tasks []*taskEntry

	limiter *rate.Limiter

	queue  chan job
	stopCh chan struct{}
	// stopDone is non-nil while a Stop() is in progress; it is closed when
	// workers fully exit.
	stopDone chan struct{}

	runCtx    context.Context
	runCancel context.CancelFunc
	workerWG  sync.WaitGroup
	sweepWG   sync.WaitGroup

	startedAt time.Time

	// now is the loop's clock; replaced in tests.
	now func() time.Time
}

// TaskInfo describes one registered task for inspection.
type TaskInfo struct {
	Name    string
	Rule    string
	Running bool
	Timeout time.Duration
}

type Snapshot struct {
	Enabled   bool
	Workers   int
	QueueLen  int
	StartedAt time.Time
	Tasks     []TaskInfo
}
