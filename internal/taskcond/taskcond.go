package taskcond

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chrond/internal/condition"
	"chrond/internal/history"
	"chrond/internal/timeperiod"
)

// ErrBadArg reports an evaluation argument of the wrong type.
var ErrBadArg = errors.New("bad condition argument")

// Argument names supplied by the scheduler at every decision point.
const (
	ArgNow = "now"
	ArgCtx = "ctx"
)

func nowFrom(args condition.Args) (time.Time, error) {
	t, ok := args[ArgNow].(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("%q is not a time.Time: %w", ArgNow, ErrBadArg)
	}
	return t, nil
}

func ctxFrom(args condition.Args) (context.Context, error) {
	ctx, ok := args[ArgCtx].(context.Context)
	if !ok {
		return nil, fmt.Errorf("%q is not a context.Context: %w", ArgCtx, ErrBadArg)
	}
	return ctx, nil
}

// IsPeriod is true while the decision instant lies inside period. Floating
// windows carry no placement of their own and are rejected at construction.
func IsPeriod(period timeperiod.Period) (condition.Condition, error) {
	switch period.(type) {
	case nil:
		return nil, fmt.Errorf("is_period: nil period: %w", condition.ErrConstruction)
	case timeperiod.Delta, *timeperiod.Delta:
		return nil, fmt.Errorf("is_period: floating window has no fixed placement: %w", condition.ErrConstruction)
	}
	return condition.NewFunc("is_period", []string{ArgNow}, func(args condition.Args) (bool, error) {
		now, err := nowFrom(args)
		if err != nil {
			return false, err
		}
		return timeperiod.Contains(period, now)
	})
}

// lookback resolves the query window ending at the decision instant. A nil
// period means the whole recorded history.
func lookback(period timeperiod.Period, now time.Time) (timeperiod.Span, error) {
	if period == nil {
		return timeperiod.Span{Left: timeperiod.Min, Right: now}, nil
	}
	return period.RollBack(now)
}

func runCount(store history.Store, task string, period timeperiod.Period, name string,
	count func(ctx context.Context, span timeperiod.Span) (int, error)) (condition.Condition, error) {
	if store == nil {
		return nil, fmt.Errorf("%s: nil store: %w", name, condition.ErrConstruction)
	}
	return condition.NewFunc(name, []string{ArgCtx, ArgNow}, func(args condition.Args) (bool, error) {
		ctx, err := ctxFrom(args)
		if err != nil {
			return false, err
		}
		now, err := nowFrom(args)
		if err != nil {
			return false, err
		}
		span, err := lookback(period, now)
		if err != nil {
			return false, err
		}
		n, err := count(ctx, span)
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

// Started is true iff the task started a run inside period, rolled back from
// the decision instant.
func Started(store history.Store, task string, period timeperiod.Period) (condition.Condition, error) {
	return runCount(store, task, period, fmt.Sprintf("task %q started", task),
		func(ctx context.Context, span timeperiod.Span) (int, error) {
			return store.CountStarted(ctx, task, span)
		})
}

// Succeeded is true iff the task finished successfully inside period.
func Succeeded(store history.Store, task string, period timeperiod.Period) (condition.Condition, error) {
	return runCount(store, task, period, fmt.Sprintf("task %q succeeded", task),
		func(ctx context.Context, span timeperiod.Span) (int, error) {
			return store.CountFinished(ctx, task, history.Success, span)
		})
}

// Failed is true iff the task finished with a failure inside period.
func Failed(store history.Store, task string, period timeperiod.Period) (condition.Condition, error) {
	return runCount(store, task, period, fmt.Sprintf("task %q failed", task),
		func(ctx context.Context, span timeperiod.Span) (int, error) {
			return store.CountFinished(ctx, task, history.Failure, span)
		})
}

// Finished is true iff the task finished with any outcome inside period.
func Finished(store history.Store, task string, period timeperiod.Period) (condition.Condition, error) {
	return runCount(store, task, period, fmt.Sprintf("task %q finished", task),
		func(ctx context.Context, span timeperiod.Span) (int, error) {
			return store.CountFinished(ctx, task, "", span)
		})
}

// Running is true while the task has a started but unfinished run.
func Running(store history.Store, task string) (condition.Condition, error) {
	if store == nil {
		return nil, fmt.Errorf("task %q running: nil store: %w", task, condition.ErrConstruction)
	}
	return condition.NewFunc(fmt.Sprintf("task %q running", task), []string{ArgCtx}, func(args condition.Args) (bool, error) {
		ctx, err := ctxFrom(args)
		if err != nil {
			return false, err
		}
		return store.Running(ctx, task)
	})
}

// SchedulerStarted is true while the scheduler start instant is within past of
// the decision instant. Used for warm-up and cool-down rules.
func SchedulerStarted(startedAt time.Time, past time.Duration) (condition.Condition, error) {
	window := timeperiod.NewDelta(past, 0)
	return condition.NewFunc("scheduler started", []string{ArgNow}, func(args condition.Args) (bool, error) {
		now, err := nowFrom(args)
		if err != nil {
			return false, err
		}
		return window.ContainsAt(startedAt, now), nil
	})
}
