package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustResolver(t *testing.T) *Resolver {
	t.Helper()

	cal := mustCalendar(t)
	r, err := NewResolver(testSchedulerConfig(), cal)
	require.NoError(t, err)

	return r
}

func TestResolveUrgentWinsOverEverything(t *testing.T) {
	r := mustResolver(t)
	now := at(t, "2026-01-15 12:15")

	got := r.Resolve(now, "Позвоните СРОЧНО, можно завтра утром")
	assert.Equal(t, now.Add(20*time.Minute), got)
}

func TestScheduleTomorrowMorning(t *testing.T) {
	r := mustResolver(t)

	// Thursday 12:15, tomorrow is a holiday-free Friday? No: the 16th is a
	// holiday, so use the week after.
	now := at(t, "2026-01-22 12:15")

	got := r.Schedule(now, "давайте завтра утром")
	assert.Equal(t, at(t, "2026-01-23 10:00"), got)
}

func TestScheduleExplicitTimePhrase(t *testing.T) {
	r := mustResolver(t)
	now := at(t, "2026-01-15 12:15")

	got := r.Schedule(now, "можно в 15:00")
	assert.Equal(t, at(t, "2026-01-15 15:00"), got)
}

func TestResolveAliasOwnsTimeOfDay(t *testing.T) {
	r := mustResolver(t)
	now := at(t, "2026-01-22 12:15")

	// the parser contributes the date, the alias table the clock; the
	// parser's own reading of the vague words ("обед" and friends) must
	// not displace the configured alias time
	assert.Equal(t, at(t, "2026-01-23 14:30"), r.Resolve(now, "завтра послеобеда"))
	assert.Equal(t, at(t, "2026-01-22 14:30"), r.Resolve(now, "лучше послеобеда"))
}

func TestResolveAliasOnly(t *testing.T) {
	r := mustResolver(t)
	now := at(t, "2026-01-15 12:15")

	// still ahead today
	assert.Equal(t, at(t, "2026-01-15 14:30"), r.Resolve(now, "лучше послеобеда"))

	// already past, moves to tomorrow
	evening := at(t, "2026-01-15 19:30")
	assert.Equal(t, at(t, "2026-01-16 14:30"), r.Resolve(evening, "лучше послеобеда"))
}

func TestResolveFallbackOpening(t *testing.T) {
	r := mustResolver(t)

	morning := at(t, "2026-01-15 09:00")
	assert.Equal(t, at(t, "2026-01-15 10:00"), r.Resolve(morning, "ну наберите как-нибудь"))

	evening := at(t, "2026-01-15 20:00")
	assert.Equal(t, at(t, "2026-01-16 10:00"), r.Resolve(evening, "ну наберите как-нибудь"))
}

func TestSnapToValid(t *testing.T) {
	r := mustResolver(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid slot unchanged", "2026-01-15 12:00", "2026-01-15 12:00"},
		{"before open snaps to open", "2026-01-15 08:00", "2026-01-15 10:00"},
		{"after close moves to next day", "2026-01-15 19:30", "2026-01-19 10:00"},
		{"holiday skipped", "2026-01-16 12:00", "2026-01-19 10:00"},
		{"saturday skipped to monday", "2026-01-17 12:00", "2026-01-19 10:00"},
		{"working sunday kept", "2026-01-25 12:00", "2026-01-25 12:00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := r.SnapToValid(at(t, tc.in))
			assert.Equal(t, at(t, tc.want), got)
		})
	}
}

func TestSnapToValidIdempotentAndMonotonic(t *testing.T) {
	r := mustResolver(t)

	for _, in := range []string{
		"2026-01-15 08:00",
		"2026-01-16 12:00",
		"2026-01-17 23:59",
		"2026-01-22 18:30",
	} {
		first := r.SnapToValid(at(t, in))
		assert.False(t, first.Before(at(t, in)), "snap went backwards for %s", in)
		assert.Equal(t, first, r.SnapToValid(first), "snap not idempotent for %s", in)
	}
}

func TestScheduleAtSkipsPhraseRules(t *testing.T) {
	r := mustResolver(t)

	// an explicit datetime on a Saturday still gets validated
	got := r.ScheduleAt(at(t, "2026-01-17 15:00"))
	assert.Equal(t, at(t, "2026-01-19 10:00"), got)
}

func TestFormatSlot(t *testing.T) {
	assert.Equal(t, "четверг 15.01.2026 в 10:00", FormatSlot(at(t, "2026-01-15 10:00")))
	assert.Equal(t, "воскресенье 25.01.2026 в 12:30", FormatSlot(at(t, "2026-01-25 12:30")))
}
