package schedule

import (
	"fmt"
	"time"

	"neuroseven/app/config"
)

// Window is an open interval of a working day, times are manager-local.
type Window struct {
	Open  Clock
	Close Clock
}

type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(s string) (Clock, error) {
	var c Clock
	if _, err := fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute); err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return Clock{}, fmt.Errorf("time of day %q out of range", s)
	}
	return c, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

func wallMinutes(t time.Time) int {
	h, m, _ := t.Clock()
	return h*60 + m
}

// Calendar answers "is this date a working day, and within which hours".
// Pure lookup over the immutable scheduler config, safe for concurrent use.
type Calendar struct {
	loc             *time.Location
	weekly          [7]*Window // 0=Monday .. 6=Sunday
	holidays        map[string]struct{}
	workingWeekends map[string]struct{}
}

const dateLayout = "2006-01-02"

func NewCalendar(cfg config.Scheduler) (*Calendar, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	c := &Calendar{
		loc:             loc,
		holidays:        make(map[string]struct{}),
		workingWeekends: make(map[string]struct{}),
	}

	for wd, window := range cfg.WeeklySchedule {
		if window == nil {
			continue
		}
		open, err := ParseClock(window[0])
		if err != nil {
			return nil, fmt.Errorf("weekly_schedule day %d: %w", wd, err)
		}
		closeAt, err := ParseClock(window[1])
		if err != nil {
			return nil, fmt.Errorf("weekly_schedule day %d: %w", wd, err)
		}
		c.weekly[wd] = &Window{Open: open, Close: closeAt}
	}

	for _, d := range cfg.Calendar.Holidays {
		if _, err := time.ParseInLocation(dateLayout, d, loc); err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", d, err)
		}
		c.holidays[d] = struct{}{}
	}
	for _, d := range cfg.Calendar.WorkingWeekends {
		if _, err := time.ParseInLocation(dateLayout, d, loc); err != nil {
			return nil, fmt.Errorf("invalid working weekend date %q: %w", d, err)
		}
		c.workingWeekends[d] = struct{}{}
	}

	return c, nil
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// DayWindow returns the open interval of the given date, or ok=false if the
// managers do not work that day. Holidays close any weekday; a working Sunday
// follows Monday's schedule.
func (c *Calendar) DayWindow(t time.Time) (Window, bool) {
	t = t.In(c.loc)
	key := t.Format(dateLayout)

	if _, holiday := c.holidays[key]; holiday {
		return Window{}, false
	}

	wd := mondayIndex(t.Weekday())
	if _, working := c.workingWeekends[key]; working && wd == 6 {
		if w := c.weekly[0]; w != nil {
			return *w, true
		}
		return Window{}, false
	}

	if w := c.weekly[wd]; w != nil {
		return *w, true
	}
	return Window{}, false
}

// mondayIndex converts Go's Sunday-based weekday to the Monday-based index
// the weekly schedule is keyed by.
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
