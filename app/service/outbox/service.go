package outbox

import (
	"context"
	"log/slog"

	"github.com/samber/do"
)

const bufferSize = 64

var _ do.Shutdownable = (*Service)(nil)

// Notification is an agency-initiated message for a thread, as opposed to
// a reply produced inside a turn.
type Notification struct {
	ThreadID string
	Text     string
}

// Notifier delivers a notification to the outward channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type Service struct {
	queue    chan Notification
	notifier Notifier
}

func New(_ *do.Injector) (*Service, error) {
	return NewWithNotifier(LogNotifier{}), nil
}

func NewWithNotifier(notifier Notifier) *Service {
	return &Service{
		queue:    make(chan Notification, bufferSize),
		notifier: notifier,
	}
}

// Add enqueues a notification without blocking. A full queue drops the
// notification, a closed queue is tolerated during shutdown.
func (s *Service) Add(threadID, text string) {
	defer func() {
		if r := recover(); r != nil {

		}
	}()

	select {
	case s.queue <- Notification{threadID, text}:
	default:
		slog.Warn("notification queue is full", "thread_id", threadID)
	}
}

func (s *Service) Shutdown() error {
	close(s.queue)

	return nil
}
