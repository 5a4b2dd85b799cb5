package subagent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"neuroseven/app/config"
	"neuroseven/app/service/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/tools"
)

type scriptedCompleter struct {
	script  []string
	prompts []string
}

func (s *scriptedCompleter) next(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.script) == 0 {
		return "", errors.New("script exhausted")
	}
	resp := s.script[0]
	s.script = s.script[1:]
	return resp, nil
}

func (s *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	return s.next(prompt)
}

func (s *scriptedCompleter) CompleteJSON(_ context.Context, prompt string, out any) error {
	resp, err := s.next(prompt)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(resp), out)
}

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "повторяет ввод" }
func (echoTool) Call(_ context.Context, input string) (string, error) {
	return "эхо: " + input, nil
}

func TestToolLoopDirectAnswer(t *testing.T) {
	completer := &scriptedCompleter{script: []string{`{"answer": "готово"}`}}

	answer, err := runToolLoop(context.Background(), completer, "инструкции", "задача", nil)
	require.NoError(t, err)
	assert.Equal(t, "готово", answer)
}

func TestToolLoopObservationFeedsNextStep(t *testing.T) {
	completer := &scriptedCompleter{script: []string{
		`{"tool": "echo", "input": "привет"}`,
		`{"answer": "ответ по наблюдению"}`,
	}}

	answer, err := runToolLoop(context.Background(), completer, "и", "з", []tools.Tool{echoTool{}})
	require.NoError(t, err)
	assert.Equal(t, "ответ по наблюдению", answer)

	// the second prompt carries the first tool's output
	require.Len(t, completer.prompts, 2)
	assert.Contains(t, completer.prompts[1], "эхо: привет")
}

func TestToolLoopExhaustionNudges(t *testing.T) {
	completer := &scriptedCompleter{script: []string{
		`{"tool": "echo", "input": "1"}`,
		`{"tool": "echo", "input": "2"}`,
		`{"tool": "echo", "input": "3"}`,
		`{"tool": "echo", "input": "4"}`,
	}}

	answer, err := runToolLoop(context.Background(), completer, "и", "з", []tools.Tool{echoTool{}})
	require.NoError(t, err)
	assert.Equal(t, nudgeReply, answer)
}

func TestToolLoopUnknownTool(t *testing.T) {
	completer := &scriptedCompleter{script: []string{
		`{"tool": "ghost", "input": "x"}`,
		`{"answer": "ок"}`,
	}}

	answer, err := runToolLoop(context.Background(), completer, "и", "з", nil)
	require.NoError(t, err)
	assert.Equal(t, "ок", answer)
	assert.Contains(t, completer.prompts[1], "неизвестный инструмент")
}

func TestContactAgentExplicitDatetime(t *testing.T) {
	resolver := testResolver(t)
	now := func() time.Time {
		loc, _ := time.LoadLocation("Asia/Vladivostok")
		return time.Date(2026, 1, 22, 12, 15, 0, 0, loc)
	}

	completer := &scriptedCompleter{script: []string{
		`{"phrase": "", "datetime": "2026-01-17T15:00:00+10:00"}`,
	}}
	agent := NewContactAgentAt(completer, resolver, now)

	// Saturday 15:00 rolls forward to Monday opening
	slot, err := agent.ResolveSlot(context.Background(), "звонок в субботу в три")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 19, 10, 0, 0, 0, slot.Location()), slot)
}

func TestContactAgentFallsBackToTask(t *testing.T) {
	resolver := testResolver(t)
	loc, err := time.LoadLocation("Asia/Vladivostok")
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2026, 1, 22, 9, 0, 0, 0, loc) }

	completer := &scriptedCompleter{script: []string{`{"phrase": "", "datetime": ""}`}}
	agent := NewContactAgentAt(completer, resolver, now)

	slot, err := agent.ResolveSlot(context.Background(), "клиент хочет звонок")
	require.NoError(t, err)
	// nothing parseable, same-day opening wins
	assert.Equal(t, time.Date(2026, 1, 22, 10, 0, 0, 0, loc), slot.In(loc))
}

func testResolver(t *testing.T) *schedule.Resolver {
	t.Helper()

	cfg := config.Scheduler{
		Timezone: "Asia/Vladivostok",
		WeeklySchedule: map[int][]string{
			0: {"10:00", "19:00"},
			1: {"10:00", "19:00"},
			2: {"10:00", "19:00"},
			3: {"10:00", "19:00"},
			4: {"10:00", "18:00"},
		},
	}
	cal, err := schedule.NewCalendar(cfg)
	require.NoError(t, err)

	resolver, err := schedule.NewResolver(cfg, cal)
	require.NoError(t, err)

	return resolver
}
