package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"neuroseven/app/service/schedule"
	"neuroseven/app/service/thread"
)

// superviseTurn is the dispatch node: the supervisor answers directly or
// hands the task to exactly one sub-agent. A contact_agent handoff enters
// the scheduling path instead of a plain invocation.
func (s *Service) superviseTurn(ctx context.Context, conv *thread.Conversation) (string, error) {
	decision, err := s.sup.Route(ctx, conv)
	if err != nil {
		return "", fmt.Errorf("supervisor routing failed: %w", err)
	}

	if decision.Handoff == "" {
		conv.Append(thread.TextMessage(thread.RoleAssistant, decision.Reply))
		return conv.LastText(), nil
	}

	slog.Info("Handoff",
		"thread_id", conv.ThreadID,
		"agent", decision.Handoff,
		"task", decision.Task)

	if s.cfg.Supervisor.AddHandoffMessages {
		record := fmt.Sprintf("transfer_to_%s: %s", decision.Handoff, decision.Task)
		conv.Append(thread.TextMessage(thread.RoleTool, record))
	}

	if decision.Handoff == s.contact.Name() {
		return s.scheduleCall(ctx, conv, decision.Task)
	}

	agent, _ := s.registry.Get(decision.Handoff)
	answer, err := agent.Invoke(ctx, s.sup.TaskFor(agent, conv, decision.Task))
	if err != nil {
		return "", fmt.Errorf("sub-agent %s failed: %w", decision.Handoff, err)
	}

	conv.Append(thread.TextMessage(thread.RoleAssistant, answer))
	return conv.LastText(), nil
}

// scheduleCall runs contact_agent and summary_agent: resolve the desired
// time into a legal slot, propose it and wait for the client's yes/no.
func (s *Service) scheduleCall(ctx context.Context, conv *thread.Conversation, task string) (string, error) {
	slot, err := s.contact.ResolveSlot(ctx, s.sup.TaskFor(s.contact, conv, task))
	if err != nil {
		return "", fmt.Errorf("failed to resolve call slot: %w", err)
	}

	conv.ProposedTime = slot.Format(time.RFC3339)
	conv.Append(thread.TextMessage(thread.RoleAssistant, s.summaryMessage(ctx, slot)))
	conv.AwaitingConfirmation = true

	return conv.LastText(), nil
}

// checkSummaryConfirmation classifies the client's answer to the proposed
// slot. Yes commits to the CRM, anything else goes back to the supervisor.
func (s *Service) checkSummaryConfirmation(ctx context.Context, conv *thread.Conversation) (string, error) {
	conv.AwaitingConfirmation = false

	if s.classifyConfirmation(ctx, conv) {
		return s.crmCommit(ctx, conv)
	}

	conv.ProposedTime = ""
	return s.superviseTurn(ctx, conv)
}

// crmCommit makes the schedule durable: the appointment goes to the CRM,
// the thread is marked scheduled and a pre-call reminder is registered.
func (s *Service) crmCommit(ctx context.Context, conv *thread.Conversation) (string, error) {
	slot, err := time.Parse(time.RFC3339, conv.ProposedTime)
	if err != nil {
		return "", fmt.Errorf("proposed slot is not parseable: %w", err)
	}

	if err = s.crmAPI.CreateAppointment(ctx, conv.UserInfo, slot); err != nil {
		return "", fmt.Errorf("CRM commit failed: %w", err)
	}

	conv.IsScheduled = true
	conv.ScheduledTime = conv.ProposedTime
	conv.ProposedTime = ""
	conv.Append(thread.TextMessage(thread.RoleAssistant,
		fmt.Sprintf("Ваш звонок запланирован на %s.", schedule.FormatSlot(slot))))

	if s.reminders != nil {
		s.reminders.Schedule(conv.ThreadID, slot)
	}

	slog.Info("Call committed",
		"thread_id", conv.ThreadID,
		"slot", conv.ScheduledTime,
		"telegram", true)

	return conv.LastText(), nil
}

// simplifiedHandler is the post-commit subgraph: remind about the agreed
// call, then check whether the client wants to change it.
func (s *Service) simplifiedHandler(ctx context.Context, conv *thread.Conversation) (string, error) {
	if !conv.IsScheduled || conv.ScheduledTime == "" {
		return conv.LastText(), nil
	}

	slotText := conv.ScheduledTime
	if slot, err := time.Parse(time.RFC3339, conv.ScheduledTime); err == nil {
		slotText = schedule.FormatSlot(slot)
	}
	conv.Append(thread.TextMessage(thread.RoleAssistant,
		fmt.Sprintf("Напоминаем: ваш звонок запланирован на %s.", slotText)))

	if s.classifyChange(ctx, conv) {
		return s.superviseTurn(ctx, conv)
	}

	return conv.LastText(), nil
}
