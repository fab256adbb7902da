package rulespec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"chrond/internal/condition"
	"chrond/internal/history"
	"chrond/internal/taskcond"
	"chrond/internal/timeperiod"
)

var (
	ErrSyntax      = errors.New("rule syntax error")
	ErrUnknownAtom = errors.New("unknown rule atom")
)

type condFunc func(task string, m []string) (condition.Condition, error)

type pattern struct {
	re    *regexp.Regexp
	build condFunc
}

// Parser matches rule atoms against its pattern table and combines them with
// the boolean operators. Safe for concurrent use once constructed.
type Parser struct {
	store    history.Store
	patterns []pattern
}

func NewParser(store history.Store) *Parser {
	p := &Parser{store: store}

	p.register(`^true$`, func(string, []string) (condition.Condition, error) {
		return condition.True(), nil
	})
	p.register(`^false$`, func(string, []string) (condition.Condition, error) {
		return condition.False(), nil
	})

	p.register(`^every\s+(\S+)$`, func(task string, m []string) (condition.Condition, error) {
		d, err := time.ParseDuration(m[1])
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("every %q: bad interval: %w", m[1], ErrSyntax)
		}
		started, err := taskcond.Started(p.store, task, timeperiod.NewDelta(d, 0))
		if err != nil {
			return nil, err
		}
		return condition.Not(started)
	})

	p.register(`^cron\s+(.+)$`, func(task string, m []string) (condition.Condition, error) {
		return taskcond.CronDue(p.store, task, m[1])
	})

	p.register(`^(minutely|hourly|daily|weekly|monthly)$`, func(task string, m []string) (condition.Condition, error) {
		return p.executable(task, timeperiod.Whole(frames[m[1]]))
	})

	p.register(`^daily between (\d{1,2}:\d{2}) and (\d{1,2}:\d{2})$`, func(task string, m []string) (condition.Condition, error) {
		period, err := clockSpan(m[1], m[2])
		if err != nil {
			return nil, err
		}
		return p.executable(task, period)
	})
	p.register(`^daily (after|before) (\d{1,2}:\d{2})$`, func(task string, m []string) (condition.Condition, error) {
		period, err := clockEdge(m[1], m[2])
		if err != nil {
			return nil, err
		}
		return p.executable(task, period)
	})
	p.register(`^weekly on (\w+)$`, func(task string, m []string) (condition.Condition, error) {
		period, err := weekdaySpan(m[1], m[1])
		if err != nil {
			return nil, err
		}
		return p.executable(task, period)
	})

	p.register(`^time of day between (\d{1,2}:\d{2}) and (\d{1,2}:\d{2})$`, func(_ string, m []string) (condition.Condition, error) {
		period, err := clockSpan(m[1], m[2])
		if err != nil {
			return nil, err
		}
		return taskcond.IsPeriod(period)
	})
	p.register(`^time of week between (\w+) and (\w+)$`, func(_ string, m []string) (condition.Condition, error) {
		period, err := weekdaySpan(m[1], m[2])
		if err != nil {
			return nil, err
		}
		return taskcond.IsPeriod(period)
	})
	p.register(`^time of month between (\d{1,2})(?:st|nd|rd|th)? and (\d{1,2})(?:st|nd|rd|th)?$`, func(_ string, m []string) (condition.Condition, error) {
		period, err := monthdaySpan(m[1], m[2])
		if err != nil {
			return nil, err
		}
		return taskcond.IsPeriod(period)
	})

	p.register(`^after (\S+) succeeded$`, func(task string, m []string) (condition.Condition, error) {
		return taskcond.DependSuccess(p.store, task, m[1])
	})
	p.register(`^after (\S+) failed$`, func(task string, m []string) (condition.Condition, error) {
		return taskcond.DependFailure(p.store, task, m[1])
	})
	p.register(`^after (\S+) finished$`, func(task string, m []string) (condition.Condition, error) {
		return taskcond.DependFinished(p.store, task, m[1])
	})
	p.register(`^after (\S+)$`, func(task string, m []string) (condition.Condition, error) {
		return taskcond.DependSuccess(p.store, task, m[1])
	})

	return p
}

func (p *Parser) register(expr string, build condFunc) {
	p.patterns = append(p.patterns, pattern{re: regexp.MustCompile(`(?i)` + expr), build: build})
}

// Parse compiles a rule for the named task. The task name anchors the
// self-referential atoms (every, daily, cron).
func (p *Parser) Parse(task, rule string) (condition.Condition, error) {
	toks, err := tokenize(rule)
	if err != nil {
		return nil, err
	}
	ep := &exprParser{parser: p, task: task, toks: toks}
	c, err := ep.parseOr()
	if err != nil {
		return nil, err
	}
	if ep.pos != len(ep.toks) {
		return nil, fmt.Errorf("rule %q: unexpected %q: %w", rule, ep.toks[ep.pos], ErrSyntax)
	}
	return c, nil
}

func (p *Parser) atom(task, text string) (condition.Condition, error) {
	for _, pat := range p.patterns {
		if m := pat.re.FindStringSubmatch(text); m != nil {
			return pat.build(task, m)
		}
	}
	return nil, fmt.Errorf("atom %q: %w", text, ErrUnknownAtom)
}

// executable is the recurrence combinator: inside the window and not yet
// started within it.
func (p *Parser) executable(task string, period timeperiod.Period) (condition.Condition, error) {
	inside, err := taskcond.IsPeriod(period)
	if err != nil {
		return nil, err
	}
	started, err := taskcond.Started(p.store, task, period)
	if err != nil {
		return nil, err
	}
	fresh, err := condition.Not(started)
	if err != nil {
		return nil, err
	}
	return condition.All(inside, fresh)
}

// ---- period atoms ----

var frames = map[string]timeperiod.Frame{
	"minutely": timeperiod.Minute,
	"hourly":   timeperiod.Hour,
	"daily":    timeperiod.Day,
	"weekly":   timeperiod.Week,
	"monthly":  timeperiod.Month,
}

var weekdays = map[string]int{
	"monday": 0, "mon": 0,
	"tuesday": 1, "tue": 1,
	"wednesday": 2, "wed": 2,
	"thursday": 3, "thu": 3,
	"friday": 4, "fri": 4,
	"saturday": 5, "sat": 5,
	"sunday": 6, "sun": 6,
}

const dayEnd = 24*time.Hour - timeperiod.Resolution

// parseClock reads HH:MM; 24:00 is accepted as the last instant of the day.
func parseClock(s string) (time.Duration, error) {
	parts := strings.SplitN(s, ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, ErrSyntax)
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, ErrSyntax)
	}
	if h == 24 && min == 0 {
		return dayEnd, nil
	}
	if h < 0 || h > 23 || min < 0 || min > 59 {
		return 0, fmt.Errorf("clock %q out of range: %w", s, ErrSyntax)
	}
	return time.Duration(h)*time.Hour + time.Duration(min)*time.Minute, nil
}

func clockSpan(from, to string) (timeperiod.Period, error) {
	start, err := parseClock(from)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(to)
	if err != nil {
		return nil, err
	}
	return timeperiod.Between(timeperiod.Day, timeperiod.At{Clock: start}, timeperiod.At{Clock: end})
}

func clockEdge(kind, at string) (timeperiod.Period, error) {
	clock, err := parseClock(at)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(kind, "after") {
		return timeperiod.After(timeperiod.Day, timeperiod.At{Clock: clock})
	}
	return timeperiod.Before(timeperiod.Day, timeperiod.At{Clock: clock})
}

func weekdaySpan(from, to string) (timeperiod.Period, error) {
	start, ok := weekdays[strings.ToLower(from)]
	if !ok {
		return nil, fmt.Errorf("weekday %q: %w", from, ErrSyntax)
	}
	end, ok := weekdays[strings.ToLower(to)]
	if !ok {
		return nil, fmt.Errorf("weekday %q: %w", to, ErrSyntax)
	}
	return timeperiod.Between(timeperiod.Week,
		timeperiod.At{Days: start},
		timeperiod.At{Days: end, Clock: dayEnd})
}

func monthdaySpan(from, to string) (timeperiod.Period, error) {
	start, err := strconv.Atoi(from)
	if err != nil || start < 1 {
		return nil, fmt.Errorf("day of month %q: %w", from, ErrSyntax)
	}
	end, err := strconv.Atoi(to)
	if err != nil || end < 1 {
		return nil, fmt.Errorf("day of month %q: %w", to, ErrSyntax)
	}
	return timeperiod.Between(timeperiod.Month,
		timeperiod.At{Days: start - 1},
		timeperiod.At{Days: end - 1, Clock: dayEnd})
}
