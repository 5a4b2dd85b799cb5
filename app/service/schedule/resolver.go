package schedule

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"neuroseven/app/config"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/ru"
)

const urgentDelay = 20 * time.Minute

// When every rule fails and the current day has no schedule at all.
var defaultOpening = Clock{Hour: 10}

// Resolver turns a free-form phrase like "ну давай завтра часика в два"
// into a concrete call slot validated against the calendar.
type Resolver struct {
	cal     *Calendar
	parser  *when.Parser
	urgent  *regexp.Regexp
	aliases []alias
}

type alias struct {
	word string
	at   Clock
}

func NewResolver(cfg config.Scheduler, cal *Calendar) (*Resolver, error) {
	parser := when.New(nil)
	parser.Add(ru.All...)
	parser.Add(common.All...)

	r := &Resolver{
		cal:    cal,
		parser: parser,
	}

	if len(cfg.UrgentPatterns) > 0 {
		quoted := make([]string, 0, len(cfg.UrgentPatterns))
		for _, p := range cfg.UrgentPatterns {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(p)))
		}
		re, err := regexp.Compile("(?i)(" + strings.Join(quoted, "|") + ")")
		if err != nil {
			return nil, fmt.Errorf("failed to compile urgent patterns: %w", err)
		}
		r.urgent = re
	}

	for word, at := range cfg.TimeOfDayAliases {
		c, err := ParseClock(at)
		if err != nil {
			return nil, fmt.Errorf("timeofday alias %q: %w", word, err)
		}
		r.aliases = append(r.aliases, alias{word: strings.ToLower(word), at: c})
	}
	// longest aliases first so "послеобеда" wins over "обед"
	sort.Slice(r.aliases, func(i, j int) bool {
		if len(r.aliases[i].word) != len(r.aliases[j].word) {
			return len(r.aliases[i].word) > len(r.aliases[j].word)
		}
		return r.aliases[i].word < r.aliases[j].word
	})

	return r, nil
}

// Schedule resolves a phrase and snaps the candidate to the first legal slot.
func (r *Resolver) Schedule(now time.Time, phrase string) time.Time {
	return r.SnapToValid(r.Resolve(now, phrase))
}

// ScheduleAt validates an explicit datetime, no phrase parsing involved.
func (r *Resolver) ScheduleAt(desired time.Time) time.Time {
	return r.SnapToValid(desired)
}

// Resolve converts a phrase into a candidate timestamp in the manager
// timezone. First matching rule wins:
//  1. urgent wording, "now + 20 minutes" whatever else the phrase says;
//  2. natural-language date parse relative to now, future preferred;
//  3. vague time-of-day alias, today or tomorrow if already past;
//  4. today's opening time (or a default when today has no schedule),
//     tomorrow if already past.
//
// A configured alias owns the time of day outright: its word is masked out
// of the text before parsing, so the parser's own casual-time rules never
// override the alias table, and a parsed date merges with the alias clock.
// The last rule always produces a result.
func (r *Resolver) Resolve(now time.Time, phrase string) time.Time {
	text := strings.ToLower(strings.TrimSpace(phrase))
	mgrNow := now.In(r.cal.Location())

	if r.urgent != nil && r.urgent.MatchString(text) {
		return mgrNow.Add(urgentDelay)
	}

	matched, hasAlias := r.matchAlias(text)

	parseText := text
	if hasAlias {
		parseText = strings.ReplaceAll(text, matched.word, " ")
	}

	if res, err := r.parser.Parse(parseText, mgrNow); err == nil && res != nil {
		t := res.Time
		if hasAlias {
			t = dateAt(t, matched.at)
		}
		if t.Before(mgrNow) {
			// time-of-day matches resolve to today even when already past
			t = t.AddDate(0, 0, 1)
		}
		return t
	}

	if hasAlias {
		candidate := dateAt(mgrNow, matched.at)
		if candidate.Before(mgrNow) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate
	}

	opening := defaultOpening
	if window, ok := r.cal.DayWindow(mgrNow); ok {
		opening = window.Open
	}
	candidate := dateAt(mgrNow, opening)
	if candidate.Before(mgrNow) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func (r *Resolver) matchAlias(text string) (alias, bool) {
	for _, a := range r.aliases {
		if strings.Contains(text, a.word) {
			return a, true
		}
	}
	return alias{}, false
}

// SnapToValid walks forward from the candidate to the first moment the
// managers are available. Never returns anything earlier than its input and
// is idempotent: a valid slot snaps to itself.
func (r *Resolver) SnapToValid(t time.Time) time.Time {
	t = t.In(r.cal.Location())

	for {
		window, ok := r.cal.DayWindow(t)
		if !ok {
			t = nextDayStart(t)
			continue
		}
		if wallMinutes(t) < window.Open.minutes() {
			return dateAt(t, window.Open)
		}
		if wallMinutes(t) <= window.Close.minutes() {
			return t
		}
		t = nextDayStart(t)
	}
}

var weekdayNames = [7]string{"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота"}

// FormatSlot renders a slot the way it is shown to the client.
func FormatSlot(t time.Time) string {
	return fmt.Sprintf("%s %02d.%02d.%d в %02d:%02d",
		weekdayNames[int(t.Weekday())], t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute())
}

func dateAt(day time.Time, c Clock) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

func nextDayStart(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, t.Location())
}
