package reminder

import (
	"fmt"
	"sync"
	"time"

	"log/slog"

	"neuroseven/app/config"
	"neuroseven/app/service/outbox"
	"neuroseven/app/service/schedule"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

type pendingCall struct {
	fireAt time.Time
	callAt time.Time
}

// Service pushes a pre-call notification shortly before a committed
// appointment. Reminders live in memory, a restart before the fire time
// loses them.
type Service struct {
	lead   time.Duration
	outbox *outbox.Service
	cron   *cron.Cron

	mu      sync.Mutex
	pending map[string]pendingCall

	now func() time.Time
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	s := NewAt(cfg.Reminder.LeadMinutes, do.MustInvoke[*outbox.Service](di))

	s.cron = cron.New()
	if _, err := s.cron.AddFunc("* * * * *", s.flush); err != nil {
		return nil, fmt.Errorf("failed to register reminder scan: %w", err)
	}
	s.cron.Start()

	return s, nil
}

// NewAt builds a service without the cron scan; tests drive flush
// directly.
func NewAt(leadMinutes int, box *outbox.Service) *Service {
	return &Service{
		lead:    time.Duration(leadMinutes) * time.Minute,
		outbox:  box,
		pending: make(map[string]pendingCall),
		now:     time.Now,
	}
}

// Schedule registers a reminder for the call at the given time. A thread
// has at most one pending reminder, a new call replaces the old one.
func (s *Service) Schedule(threadID string, at time.Time) {
	fireAt := at.Add(-s.lead)
	if fireAt.Before(s.now()) {
		fireAt = s.now()
	}

	s.mu.Lock()
	s.pending[threadID] = pendingCall{fireAt: fireAt, callAt: at}
	s.mu.Unlock()

	slog.Info("Reminder scheduled", "thread_id", threadID, "fire_at", fireAt)
}

func (s *Service) flush() {
	now := s.now()

	s.mu.Lock()
	due := make(map[string]pendingCall)
	for id, p := range s.pending {
		if !p.fireAt.After(now) {
			due[id] = p
			delete(s.pending, id)
		}
	}
	s.mu.Unlock()

	for id, p := range due {
		s.outbox.Add(id, fmt.Sprintf(
			"Напоминаем: менеджер позвонит вам %s.", schedule.FormatSlot(p.callAt)))
	}
}

func (s *Service) Shutdown() error {
	if s.cron != nil {
		s.cron.Stop()
	}

	return nil
}
