package taskcond

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"chrond/internal/condition"
	"chrond/internal/history"
)

// CronDue is true when the cron schedule has a fire time between the task's
// last recorded start and the decision instant. A task with no history is due
// immediately.
//
// Standard five-field cron expressions plus the @every/@hourly descriptors
// accepted by robfig/cron.
func CronDue(store history.Store, task, spec string) (condition.Condition, error) {
	if store == nil {
		return nil, fmt.Errorf("cron %q: nil store: %w", spec, condition.ErrConstruction)
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("cron %q: %v: %w", spec, err, condition.ErrConstruction)
	}
	name := fmt.Sprintf("cron %q", spec)
	return condition.NewFunc(name, []string{ArgCtx, ArgNow}, func(args condition.Args) (bool, error) {
		ctx, err := ctxFrom(args)
		if err != nil {
			return false, err
		}
		now, err := nowFrom(args)
		if err != nil {
			return false, err
		}
		last, ok, err := store.LastRun(ctx, task)
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		next := schedule.Next(last.Started)
		return !next.IsZero() && !next.After(now), nil
	})
}
