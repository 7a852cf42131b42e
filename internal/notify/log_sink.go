package notify

import (
	"context"
	"log/slog"
)

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Deliver logs the notification at info level.
func (s *LogSink) Deliver(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "Notification",
		slog.String("notification_id", n.ID),
		slog.String("title", n.Title),
		slog.String("body", n.Body),
		slog.String("sound", string(n.Sound)),
		slog.Time("fire_at", n.FireAt),
	)
	return nil
}
