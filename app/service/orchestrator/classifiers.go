package orchestrator

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"neuroseven/app/service/schedule"
	"neuroseven/app/service/thread"
)

//go:embed summary_prompt.txt
var summaryPromptTemplate string

//go:embed confirm_prompt.txt
var confirmPromptTemplate string

//go:embed detect_prompt.txt
var detectPromptTemplate string

type confirmResult struct {
	Confirmed bool `json:"confirmed"`
}

type changeResult struct {
	MajorChange bool `json:"major_change"`
}

// summaryMessage produces the slot proposal shown to the client. The model
// phrases it, a plain sentence is the fallback when it cannot.
func (s *Service) summaryMessage(ctx context.Context, slot time.Time) string {
	slotText := schedule.FormatSlot(slot)

	prompt := strings.ReplaceAll(summaryPromptTemplate, "{slot}", slotText)
	text, err := s.summaryLLM.Complete(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			slog.Warn("Summary generation failed", "error", err)
		}
		return fmt.Sprintf("Мы можем позвонить вам %s. Подтверждаете?", slotText)
	}

	return strings.TrimSpace(text)
}

// classifyConfirmation reads the client's last message as yes or no.
// Parse failures count as no, a call is never committed on a guess.
func (s *Service) classifyConfirmation(ctx context.Context, conv *thread.Conversation) bool {
	prompt := strings.ReplaceAll(confirmPromptTemplate, "{message}", conv.LastUserText())

	var result confirmResult
	if err := s.confirmLLM.CompleteJSON(ctx, prompt, &result); err != nil {
		slog.Warn("Confirmation classification failed", "thread_id", conv.ThreadID, "error", err)
		return false
	}

	return result.Confirmed
}

// classifyChange detects whether a client with an already scheduled call
// wants to discuss something beyond the reminder. Failures keep the
// simplified path.
func (s *Service) classifyChange(ctx context.Context, conv *thread.Conversation) bool {
	prompt := strings.ReplaceAll(detectPromptTemplate, "{message}", conv.LastUserText())

	var result changeResult
	if err := s.detectLLM.CompleteJSON(ctx, prompt, &result); err != nil {
		slog.Warn("Change detection failed", "thread_id", conv.ThreadID, "error", err)
		return false
	}

	return result.MajorChange
}
