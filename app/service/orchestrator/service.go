package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"neuroseven/app/client/crm"
	"neuroseven/app/client/profile"
	"neuroseven/app/config"
	"neuroseven/app/service/kb"
	"neuroseven/app/service/llm"
	"neuroseven/app/service/pricing"
	"neuroseven/app/service/reminder"
	"neuroseven/app/service/schedule"
	"neuroseven/app/service/subagent"
	"neuroseven/app/service/supervisor"
	"neuroseven/app/service/thread"

	_ "embed"

	"github.com/samber/do"
	"github.com/samber/oops"
)

//go:embed welcome_prompt.txt
var welcomePrompt string

// ReminderSink registers a pre-call reminder after a successful CRM commit.
type ReminderSink interface {
	Schedule(threadID string, at time.Time)
}

// Service is the orchestration graph: every inbound message runs one
// strictly sequential turn through fetch-profile, reset, introduction,
// confirmation, reminder and supervisor nodes against the thread's state.
type Service struct {
	cfg      *config.Config
	threads  *thread.Service
	profiles profile.Source
	crmAPI   crm.API
	sup      *supervisor.Service
	registry *subagent.Registry
	contact  *subagent.ContactAgent

	summaryLLM llm.Completer
	confirmLLM llm.Completer
	detectLLM  llm.Completer

	reminders ReminderSink
	retriever *kb.Retriever
}

var _ do.Shutdownable = (*Service)(nil)

func (s *Service) Shutdown() error {
	if s.retriever != nil {
		return s.retriever.Close()
	}
	return nil
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	kbSvc := do.MustInvoke[*kb.Service](di)
	pricingSvc := do.MustInvoke[*pricing.Service](di)

	calendar, err := schedule.NewCalendar(cfg.Scheduler)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar: %w", err)
	}
	resolver, err := schedule.NewResolver(cfg.Scheduler, calendar)
	if err != nil {
		return nil, fmt.Errorf("failed to build resolver: %w", err)
	}

	retriever, err := kb.NewRetriever(cfg.KB.MCP)
	if err != nil {
		return nil, fmt.Errorf("failed to start kb retriever: %w", err)
	}

	agentsLLM := llm.NewClient(cfg.OpenAI.Agents, 0.3, 2000)
	contact := subagent.NewContactAgent(agentsLLM, resolver)

	agents := []subagent.SubAgent{
		subagent.NewKBAgent(agentsLLM, kbSvc, retriever),
		contact,
	}
	for _, c := range kbSvc.ListComplexes() {
		agents = append(agents, subagent.NewPricingAgent(c.ID, c.Name, agentsLLM, pricingSvc))
	}

	registry, err := subagent.NewRegistry(agents...)
	if err != nil {
		return nil, fmt.Errorf("failed to build sub-agent registry: %w", err)
	}

	return &Service{
		cfg:        cfg,
		threads:    do.MustInvoke[*thread.Service](di),
		profiles:   do.MustInvoke[*profile.Client](di),
		crmAPI:     do.MustInvoke[*crm.Client](di),
		sup:        supervisor.New(llm.NewClient(cfg.OpenAI.Supervisor, 1, 2000), registry, kbSvc),
		registry:   registry,
		contact:    contact,
		summaryLLM: llm.NewClient(cfg.OpenAI.Summary, 0.7, 500),
		confirmLLM: llm.NewClient(cfg.OpenAI.Confirm, 0.7, 200),
		detectLLM:  llm.NewClient(cfg.OpenAI.Detect, 0.7, 200),
		reminders:  do.MustInvoke[*reminder.Service](di),
		retriever:  retriever,
	}, nil
}

// NewService wires the graph from explicit collaborators; tests inject
// fakes through it.
func NewService(
	cfg *config.Config,
	threads *thread.Service,
	profiles profile.Source,
	crmAPI crm.API,
	sup *supervisor.Service,
	registry *subagent.Registry,
	contact *subagent.ContactAgent,
	summaryLLM, confirmLLM, detectLLM llm.Completer,
	reminders ReminderSink,
) *Service {
	return &Service{
		cfg:        cfg,
		threads:    threads,
		profiles:   profiles,
		crmAPI:     crmAPI,
		sup:        sup,
		registry:   registry,
		contact:    contact,
		summaryLLM: summaryLLM,
		confirmLLM: confirmLLM,
		detectLLM:  detectLLM,
		reminders:  reminders,
	}
}

// ProcessTurn runs one atomic turn and returns the reply text. An empty
// reply with a nil error means the turn ended silently (memory reset).
// Turn-level failures leave the thread state untouched.
func (s *Service) ProcessTurn(ctx context.Context, in Inbound) (string, error) {
	if in.ThreadID == "" {
		return "", oops.Errorf("thread_id is required")
	}
	if in.UserInfoKey == "" {
		return "", profile.ErrNoKey
	}

	var reply string
	err := s.threads.WithConversation(in.ThreadID, func(conv *thread.Conversation) error {
		var err error
		reply, err = s.runTurn(ctx, conv, in)
		return err
	})
	if err != nil {
		return "", err
	}

	return reply, nil
}

func (s *Service) runTurn(ctx context.Context, conv *thread.Conversation, in Inbound) (string, error) {
	inbound, err := inboundMessage(in)
	if err != nil {
		return "", err
	}
	conv.Append(inbound)

	// fetch_user_info: the profile snapshot is refetched and overwritten
	// every turn
	info, err := s.profiles.Fetch(ctx, in.UserInfoKey)
	if err != nil {
		return "", fmt.Errorf("failed to fetch user info: %w", err)
	}
	conv.UserInfo = info

	if inbound.IsReset() {
		n := len(conv.Messages)
		conv.Reset()
		slog.Info("Thread memory reset", "thread_id", conv.ThreadID, "deleted_messages", n)
		return "", nil
	}

	if !conv.AgentIntroduced && conv.UserMessageCount() == 1 {
		name := conv.UserInfo.Name
		if name == "" {
			name = "уважаемый клиент"
		}
		welcome := strings.ReplaceAll(strings.TrimSpace(welcomePrompt), "{name}", name)
		conv.Append(thread.TextMessage(thread.RoleAssistant, welcome))
		conv.AgentIntroduced = true
	}

	if conv.AwaitingConfirmation {
		return s.checkSummaryConfirmation(ctx, conv)
	}

	if conv.IsScheduled {
		return s.simplifiedHandler(ctx, conv)
	}

	return s.superviseTurn(ctx, conv)
}

func inboundMessage(in Inbound) (thread.Message, error) {
	if len(in.Messages) == 0 {
		return thread.Message{}, oops.Errorf("envelope carries no messages")
	}

	parts := make([]thread.ContentPart, 0, len(in.Messages))
	for _, m := range in.Messages {
		switch m.Type {
		case "text":
			parts = append(parts, thread.ContentPart{Type: thread.PartText, Text: m.Text})
		case "reset":
			parts = append(parts, thread.ContentPart{Type: thread.PartReset})
		default:
			return thread.Message{}, oops.Errorf("unknown message type %q", m.Type)
		}
	}

	return thread.NewMessage(thread.RoleUser, parts...), nil
}
