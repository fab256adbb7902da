package taskcond

import (
	"fmt"

	"chrond/internal/condition"
	"chrond/internal/history"
	"chrond/internal/timeperiod"
)

// depend builds a pipeline leaf: true when upstream finished with the wanted
// outcome after task's most recent start. A task that never ran is satisfied
// by any matching upstream finish.
func depend(store history.Store, task, upstream, verb string, outcome history.Outcome) (condition.Condition, error) {
	if store == nil {
		return nil, fmt.Errorf("after %q %s: nil store: %w", upstream, verb, condition.ErrConstruction)
	}
	name := fmt.Sprintf("after %q %s", upstream, verb)
	return condition.NewFunc(name, []string{ArgCtx, ArgNow}, func(args condition.Args) (bool, error) {
		ctx, err := ctxFrom(args)
		if err != nil {
			return false, err
		}
		now, err := nowFrom(args)
		if err != nil {
			return false, err
		}
		since := timeperiod.Min
		if last, ok, err := store.LastRun(ctx, task); err != nil {
			return false, err
		} else if ok {
			since = last.Started
		}
		n, err := store.CountFinished(ctx, upstream, outcome, timeperiod.Span{Left: since, Right: now})
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

// DependSuccess is true when upstream succeeded since task last started.
func DependSuccess(store history.Store, task, upstream string) (condition.Condition, error) {
	return depend(store, task, upstream, "succeeded", history.Success)
}

// DependFailure is true when upstream failed since task last started.
func DependFailure(store history.Store, task, upstream string) (condition.Condition, error) {
	return depend(store, task, upstream, "failed", history.Failure)
}

// DependFinished is true when upstream finished with any outcome since task
// last started.
func DependFinished(store history.Store, task, upstream string) (condition.Condition, error) {
	return depend(store, task, upstream, "finished", "")
}
