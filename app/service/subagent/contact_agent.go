package subagent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"neuroseven/app/service/llm"
	"neuroseven/app/service/schedule"

	_ "embed"
)

//go:embed contact_extract_prompt.txt
var contactExtractPrompt string

// ContactAgent turns "давай созвонимся завтра после обеда" into the first
// slot a manager can actually take.
type ContactAgent struct {
	completer llm.Completer
	resolver  *schedule.Resolver
	now       func() time.Time
}

func NewContactAgent(completer llm.Completer, resolver *schedule.Resolver) *ContactAgent {
	return NewContactAgentAt(completer, resolver, time.Now)
}

// NewContactAgentAt pins the clock, used by tests.
func NewContactAgentAt(completer llm.Completer, resolver *schedule.Resolver, now func() time.Time) *ContactAgent {
	return &ContactAgent{
		completer: completer,
		resolver:  resolver,
		now:       now,
	}
}

func (a *ContactAgent) Name() string {
	return "contact_agent"
}

func (a *ContactAgent) Purpose() string {
	return "согласовать дату и время звонка с менеджером, когда клиент просит созвониться"
}

func (a *ContactAgent) WithHistory() bool {
	return true
}

type desiredTime struct {
	Phrase   string `json:"phrase"`
	Datetime string `json:"datetime"`
}

// ResolveSlot extracts the desired call time from the task and validates it
// against the manager calendar. An explicit datetime from the model skips
// phrase parsing entirely.
func (a *ContactAgent) ResolveSlot(ctx context.Context, task string) (time.Time, error) {
	prompt := strings.ReplaceAll(contactExtractPrompt, "{task}", task)

	var desired desiredTime
	if err := a.completer.CompleteJSON(ctx, prompt, &desired); err != nil {
		return time.Time{}, fmt.Errorf("failed to extract desired call time: %w", err)
	}

	if desired.Datetime != "" {
		if explicit, err := time.Parse(time.RFC3339, desired.Datetime); err == nil {
			return a.resolver.ScheduleAt(explicit), nil
		}
	}

	phrase := desired.Phrase
	if phrase == "" {
		phrase = task
	}
	return a.resolver.Schedule(a.now(), phrase), nil
}

func (a *ContactAgent) Invoke(ctx context.Context, task string) (string, error) {
	slot, err := a.ResolveSlot(ctx, task)
	if err != nil {
		return "", err
	}
	return schedule.FormatSlot(slot), nil
}
