package schedule

import (
	"testing"
	"time"

	"neuroseven/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedulerConfig() config.Scheduler {
	return config.Scheduler{
		Timezone: "Asia/Vladivostok",
		WeeklySchedule: map[int][]string{
			0: {"10:00", "19:00"},
			1: {"10:00", "19:00"},
			2: {"10:00", "19:00"},
			3: {"10:00", "19:00"},
			4: {"10:00", "18:00"},
		},
		TimeOfDayAliases: map[string]string{
			"утром":      "10:00",
			"послеобеда": "14:30",
			"вечером":    "18:00",
		},
		UrgentPatterns: []string{"срочно", "как можно скорее"},
		Calendar: config.Calendar{
			Holidays:        []string{"2026-01-16"},
			WorkingWeekends: []string{"2026-01-25"},
		},
	}
}

func mustCalendar(t *testing.T) *Calendar {
	t.Helper()

	cal, err := NewCalendar(testSchedulerConfig())
	require.NoError(t, err)

	return cal
}

func at(t *testing.T, value string) time.Time {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Vladivostok")
	require.NoError(t, err)

	parsed, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)

	return parsed
}

func TestCalendarWeekday(t *testing.T) {
	cal := mustCalendar(t)

	// Thursday
	window, ok := cal.DayWindow(at(t, "2026-01-15 12:00"))
	require.True(t, ok)
	assert.Equal(t, Clock{Hour: 10}, window.Open)
	assert.Equal(t, Clock{Hour: 19}, window.Close)

	// Friday closes earlier
	window, ok = cal.DayWindow(at(t, "2026-01-23 12:00"))
	require.True(t, ok)
	assert.Equal(t, Clock{Hour: 18}, window.Close)
}

func TestCalendarWeekendClosed(t *testing.T) {
	cal := mustCalendar(t)

	_, ok := cal.DayWindow(at(t, "2026-01-17 12:00")) // Saturday
	assert.False(t, ok)

	_, ok = cal.DayWindow(at(t, "2026-01-18 12:00")) // Sunday
	assert.False(t, ok)
}

func TestCalendarHolidayClosesWeekday(t *testing.T) {
	cal := mustCalendar(t)

	_, ok := cal.DayWindow(at(t, "2026-01-16 12:00")) // Friday, holiday
	assert.False(t, ok)
}

func TestCalendarWorkingSundayFollowsMonday(t *testing.T) {
	cal := mustCalendar(t)

	window, ok := cal.DayWindow(at(t, "2026-01-25 12:00")) // working Sunday
	require.True(t, ok)
	assert.Equal(t, Clock{Hour: 10}, window.Open)
	assert.Equal(t, Clock{Hour: 19}, window.Close)
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 9, Minute: 30}, c)
	assert.Equal(t, "09:30", c.String())

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	_, err = ParseClock("abc")
	assert.Error(t, err)
}
