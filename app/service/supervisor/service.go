package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"neuroseven/app/service/kb"
	"neuroseven/app/service/llm"
	"neuroseven/app/service/subagent"
	"neuroseven/app/service/thread"

	_ "embed"
)

//go:embed supervisor_prompt_template.txt
var supervisorPromptTemplate string

const historyWindow = 20

// When the model cannot produce a parseable decision the router still has
// to answer something.
const fallbackReply = "Извините, я вас не совсем понял. Переформулируйте, пожалуйста, вопрос."

// Service is the dispatcher: one call per turn that either answers the
// client directly or hands the task to exactly one sub-agent.
type Service struct {
	completer llm.Completer
	registry  *subagent.Registry
	catalog   string
}

func New(completer llm.Completer, registry *subagent.Registry, kbSvc *kb.Service) *Service {
	return &Service{
		completer: completer,
		registry:  registry,
		catalog:   kbSvc.CatalogSummary(),
	}
}

// Route picks the next actor for the turn. The returned decision names at
// most one sub-agent; unknown names degrade to a direct fallback reply
// rather than an error.
func (s *Service) Route(ctx context.Context, conv *thread.Conversation) (Decision, error) {
	templateValues := map[string]any{
		"agents":    s.registry.Describe(),
		"complexes": s.catalog,
		"history":   formatHistory(conv),
		"user_name": conv.UserInfo.Name,
		"interest":  conv.UserInfo.Interest,
	}

	prompt := supervisorPromptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", fmt.Sprint(value))
	}

	var decision Decision
	if err := s.completer.CompleteJSON(ctx, prompt, &decision); err != nil {
		slog.Warn("Supervisor decision is not parseable, replying directly", "error", err)
		return Decision{Reply: fallbackReply}, nil
	}

	if decision.Handoff != "" {
		if _, ok := s.registry.Get(decision.Handoff); !ok {
			slog.Warn("Supervisor picked unknown sub-agent", "handoff", decision.Handoff)
			decision = Decision{Reply: firstNonEmpty(decision.Reply, fallbackReply)}
		}
	}
	if decision.Handoff == "" && decision.Reply == "" {
		decision.Reply = fallbackReply
	}

	return decision, nil
}

// TaskFor applies the per-handoff history policy: agents flagged
// WithHistory receive the recent transcript, the rest only the task line.
func (s *Service) TaskFor(agent subagent.SubAgent, conv *thread.Conversation, task string) string {
	if !agent.WithHistory() {
		return task
	}
	return fmt.Sprintf("История диалога:\n%s\nЗадача: %s", formatHistory(conv), task)
}

func formatHistory(conv *thread.Conversation) string {
	msgs := conv.Messages
	if len(msgs) > historyWindow {
		msgs = msgs[len(msgs)-historyWindow:]
	}

	var b strings.Builder
	for _, m := range msgs {
		text := m.Text()
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Role, text)
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
