// Package app wires the daemon together: config manager, logging service,
// history store, rule parser and the scheduler, plus the hot-reload loop.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"chrond/internal/config"
	"chrond/internal/eventbus"
	"chrond/internal/history"
	"chrond/internal/rulespec"
	"chrond/internal/services/scheduler"
	"chrond/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store history.Store

	parser *rulespec.Parser
	sched  *scheduler.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	store, err := openStore(cfg, log.With(logx.String("comp", "history")))
	if err != nil {
		logSvc.Close()
		return nil, err
	}

	parser := rulespec.NewParser(store)

	schedCfg, err := mapSchedulerConfig(cfg)
	if err != nil {
		_ = store.Close()
		logSvc.Close()
		return nil, err
	}
	bus := eventbus.New()
	sched := scheduler.New(schedCfg, store, log.With(logx.String("comp", "scheduler")), bus)

	defs, err := buildTasks(cfg, parser)
	if err != nil {
		_ = store.Close()
		logSvc.Close()
		return nil, err
	}
	sched.SetTasks(defs)

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		parser:  parser,
		sched:   sched,
	}, nil
}

func openStore(cfg *config.Config, log logx.Logger) (history.Store, error) {
	hc := history.Config{}
	if cfg.History != nil {
		busy, err := config.ParseDurationField("history.busy_timeout", cfg.History.BusyTimeout)
		if err != nil {
			return nil, err
		}
		hc = history.Config{
			Driver:      cfg.History.Driver,
			Path:        cfg.History.Path,
			BusyTimeout: busy,
		}
	}
	return history.Open(hc, log)
}

func mapSchedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	poll, err := cfg.Scheduler.PollIntervalOrDefault()
	if err != nil {
		return scheduler.Config{}, err
	}
	defTimeout, err := config.ParseDurationField("scheduler.default_timeout", cfg.Scheduler.DefaultTimeout)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{
		Enabled:        cfg.Scheduler.Enabled,
		PollInterval:   poll,
		Workers:        cfg.Scheduler.WorkersOrDefault(),
		QueueSize:      cfg.Scheduler.QueueSizeOrDefault(),
		DefaultTimeout: defTimeout,
		RetryMax:       cfg.Scheduler.RetryMax,
		EvalPerSec:     cfg.Scheduler.EvalPerSec,
	}, nil
}

func buildTasks(cfg *config.Config, parser *rulespec.Parser) ([]scheduler.TaskDef, error) {
	defs := make([]scheduler.TaskDef, 0, len(cfg.Tasks))
	for _, tc := range cfg.Tasks {
		rule, err := parser.Parse(tc.Name, tc.When)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", tc.Name, err)
		}
		timeout, err := config.ParseDurationField(fmt.Sprintf("task %q timeout", tc.Name), tc.Timeout)
		if err != nil {
			return nil, err
		}
		overlap := scheduler.OverlapSkip
		if tc.Overlap == config.OverlapBoth {
			overlap = scheduler.OverlapBoth
		}
		defs = append(defs, scheduler.TaskDef{
			Name:    tc.Name,
			Rule:    rule,
			Run:     scheduler.CommandRunner(tc.Command),
			Timeout: timeout,
			Overlap: overlap,
		})
	}
	return defs, nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	// Transactional config reload: a config that fails validation is never
	// committed or published.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if _, err := mapSchedulerConfig(cfg); err != nil {
			return err
		}
		// Compile every rule so a typo is rejected instead of half-applied.
		if _, err := buildTasks(cfg, a.parser); err != nil {
			return err
		}
		return nil
	})

	if a.sched.Enabled() {
		a.sched.Start(runCtx)
	}

	sub := a.cfgm.Subscribe(8)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(runCtx, sub)
	}()

	// Log run events for observability. Kept at debug to avoid noise for
	// frequent tasks.
	events, unsubEvents := a.bus.Subscribe(128)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer unsubEvents()
		for {
			select {
			case <-runCtx.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil {
			a.log.Warn("config watch exited", logx.Err(err))
		}
	}()

	a.log.Info("app started", logx.String("config", a.cfgPath))
	return nil
}

func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	// Track the last applied config to generate a diff summary.
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			sections, attrs, taskChanged := config.SummarizeChange(lastApplied, newCfg)
			if len(sections) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				lastApplied = newCfg
				continue
			}
			fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
			a.log.Debug("config change summary", fields...)
			if len(taskChanged) > 0 {
				a.log.Debug("task changes detected", logx.Any("tasks", taskChanged))
			}
			lastApplied = newCfg

			for _, s := range sections {
				if s == "history" {
					a.log.Warn("history config changed; restart required for changes to take effect")
					break
				}
			}

			a.logs.Apply(logx.Config{
				Level:   newCfg.Logging.Level,
				Console: newCfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: newCfg.Logging.File.Enabled,
					Path:    newCfg.Logging.File.Path,
				},
			})

			// The validator already compiled these, so failures here are
			// unexpected.
			schedCfg, err := mapSchedulerConfig(newCfg)
			if err != nil {
				a.log.Warn("invalid scheduler config; keeping previous", logx.Err(err))
				continue
			}
			defs, err := buildTasks(newCfg, a.parser)
			if err != nil {
				a.log.Warn("invalid task config; keeping previous", logx.Err(err))
				continue
			}

			prevEnabled := a.sched.Enabled()
			a.sched.Apply(schedCfg, defs)

			switch {
			case prevEnabled && !schedCfg.Enabled:
				a.log.Info("scheduler disabled via config")
				stopCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				a.sched.Stop(stopCtx)
				cancel()
			case !prevEnabled && schedCfg.Enabled:
				a.log.Info("scheduler enabled via config")
				a.sched.Start(ctx)
			case schedCfg.Enabled:
				// Force a decision sweep so edited rules take effect now, not
				// one poll interval later.
				a.sched.Sweep(ctx)
			}

			a.log.Info("config reloaded", fields...)
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping")

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	a.sched.Stop(stopCtx)
	cancel()

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if err := a.store.Close(); err != nil {
		a.log.Warn("history close failed", logx.Err(err))
	}

	a.log.Info("stopped")
	a.logs.Close()
	return nil
}

// Snapshot exposes the scheduler state for inspection.
func (a *App) Snapshot() scheduler.Snapshot { return a.sched.Snapshot() }
