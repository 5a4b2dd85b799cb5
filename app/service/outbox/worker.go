package outbox

import (
	"context"
	"log/slog"
	"time"
)

// Run drains the queue until the context ends or the queue closes.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-s.queue:
			if !ok {
				return
			}

			start := time.Now()
			if err := s.notifier.Notify(ctx, n); err != nil {
				slog.Warn("Notify error", "thread_id", n.ThreadID, "error", err)
				continue
			}

			slog.Info("Delivered notification",
				"thread_id", n.ThreadID,
				"duration", time.Since(start))
		}
	}
}

// LogNotifier is the default delivery channel. The telegram attr routes
// the message to the operators chat.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	slog.Info("Outbound notification",
		"thread_id", n.ThreadID,
		"text", n.Text,
		"telegram", true)

	return nil
}
