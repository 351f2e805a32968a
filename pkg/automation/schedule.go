package automation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule kinds.
const (
	KindInterval = "interval"
	KindCron     = "cron"
	KindOneshot  = "oneshot"
)

// Schedule decides when a job runs next.
type Schedule struct {
	Kind string
	Expr string

	loc      *time.Location
	interval time.Duration
	at       time.Time
	cron     *cronSpec
}

// ParseSchedule validates a schedule definition. interval takes a Go
// duration ("15m"), cron a 5-field expression or @hourly/@daily/@weekly,
// oneshot an RFC 3339 time. loc is used for cron fields and may be nil (UTC).
func ParseSchedule(kind, expr string, loc *time.Location) (Schedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := Schedule{Kind: strings.ToLower(strings.TrimSpace(kind)), Expr: strings.TrimSpace(expr), loc: loc}

	switch s.Kind {
	case KindInterval:
		d, err := time.ParseDuration(s.Expr)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid interval expression %q: %w", expr, err)
		}
		if d <= 0 {
			return Schedule{}, fmt.Errorf("interval must be > 0")
		}
		s.interval = d
	case KindOneshot:
		t, err := time.Parse(time.RFC3339, s.Expr)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid oneshot expression %q: %w", expr, err)
		}
		s.at = t.UTC()
	case KindCron:
		spec, err := parseCron(s.Expr)
		if err != nil {
			return Schedule{}, err
		}
		s.cron = spec
	default:
		return Schedule{}, fmt.Errorf("unsupported schedule kind %q", kind)
	}
	return s, nil
}

func (s Schedule) String() string {
	return s.Kind + " " + s.Expr
}

// Next returns the first run strictly after from. ok is false when the
// schedule will never fire again.
func (s Schedule) Next(from time.Time) (next time.Time, ok bool) {
	switch s.Kind {
	case KindInterval:
		return from.Add(s.interval).UTC(), true
	case KindOneshot:
		if !s.at.After(from) {
			return time.Time{}, false
		}
		return s.at, true
	case KindCron:
		return s.cron.next(from.In(s.loc))
	}
	return time.Time{}, false
}

type cronSpec struct {
	descriptor string

	minute, hour, dayOfMonth, month, dayOfWeek map[int]bool
	domWildcard, dowWildcard                   bool
}

func parseCron(expr string) (*cronSpec, error) {
	switch expr {
	case "@hourly", "@daily", "@midnight", "@weekly":
		return &cronSpec{descriptor: expr}, nil
	}

	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid cron expression %q (expected 5 fields)", expr)
	}

	var (
		spec cronSpec
		err  error
	)
	if spec.minute, err = parseCronField(parts[0], 0, 59); err != nil {
		return nil, fmt.Errorf("invalid minute field: %w", err)
	}
	if spec.hour, err = parseCronField(parts[1], 0, 23); err != nil {
		return nil, fmt.Errorf("invalid hour field: %w", err)
	}
	if spec.dayOfMonth, err = parseCronField(parts[2], 1, 31); err != nil {
		return nil, fmt.Errorf("invalid day-of-month field: %w", err)
	}
	if spec.month, err = parseCronField(parts[3], 1, 12); err != nil {
		return nil, fmt.Errorf("invalid month field: %w", err)
	}
	if spec.dayOfWeek, err = parseCronField(parts[4], 0, 7); err != nil {
		return nil, fmt.Errorf("invalid day-of-week field: %w", err)
	}
	if spec.dayOfWeek[7] {
		spec.dayOfWeek[0] = true
	}
	spec.domWildcard = parts[2] == "*"
	spec.dowWildcard = parts[4] == "*"
	return &spec, nil
}

func (c *cronSpec) next(from time.Time) (time.Time, bool) {
	midnight := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	switch c.descriptor {
	case "@hourly":
		return from.Truncate(time.Hour).Add(time.Hour).UTC(), true
	case "@daily", "@midnight":
		return midnight.AddDate(0, 0, 1).UTC(), true
	case "@weekly":
		offset := (7 - int(from.Weekday())) % 7
		if offset == 0 {
			offset = 7
		}
		return midnight.AddDate(0, 0, offset).UTC(), true
	}

	candidate := from.Truncate(time.Minute).Add(time.Minute)
	limit := candidate.AddDate(2, 0, 0)
	for !candidate.After(limit) {
		if !c.month[int(candidate.Month())] {
			candidate = time.Date(candidate.Year(), candidate.Month(), 1, 0, 0, 0, 0, candidate.Location()).AddDate(0, 1, 0)
			continue
		}
		if !c.dayMatches(candidate) {
			candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), 0, 0, 0, 0, candidate.Location()).AddDate(0, 0, 1)
			continue
		}
		if !c.hour[candidate.Hour()] {
			candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), candidate.Hour(), 0, 0, 0, candidate.Location()).Add(time.Hour)
			continue
		}
		if !c.minute[candidate.Minute()] {
			candidate = candidate.Add(time.Minute)
			continue
		}
		return candidate.UTC(), true
	}
	return time.Time{}, false
}

func (c *cronSpec) dayMatches(t time.Time) bool {
	dom := c.dayOfMonth[t.Day()]
	dow := c.dayOfWeek[int(t.Weekday())]
	switch {
	case c.domWildcard && c.dowWildcard:
		return true
	case c.domWildcard:
		return dow
	case c.dowWildcard:
		return dom
	default:
		return dom || dow
	}
}

func parseCronField(field string, min, max int) (map[int]bool, error) {
	allowed := make(map[int]bool, max-min+1)
	if field == "*" {
		for i := min; i <= max; i++ {
			allowed[i] = true
		}
		return allowed, nil
	}

	for _, item := range strings.Split(field, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("empty token")
		}
		step := 1
		rangePart := item
		if before, after, found := strings.Cut(item, "/"); found {
			s, err := strconv.Atoi(after)
			if err != nil || s <= 0 {
				return nil, fmt.Errorf("invalid step in %q", item)
			}
			rangePart, step = before, s
		}

		start, end := min, max
		if rangePart != "*" {
			var err error
			if start, end, err = parseRange(rangePart, min, max); err != nil {
				return nil, err
			}
		}
		for i := start; i <= end; i += step {
			allowed[i] = true
		}
	}
	return allowed, nil
}

func parseRange(part string, min, max int) (int, int, error) {
	lo, hi, isRange := strings.Cut(part, "-")
	start, err := strconv.Atoi(lo)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid value %q", part)
	}
	end := start
	if isRange {
		if end, err = strconv.Atoi(hi); err != nil {
			return 0, 0, fmt.Errorf("invalid range end %q", part)
		}
	}
	if start > end || start < min || end > max {
		return 0, 0, fmt.Errorf("value %q out of bounds [%d,%d]", part, min, max)
	}
	return start, end, nil
}
