package notify

import (
	"context"
	"log/slog"
)

// LogBackend grants permission and writes each notification to the log. It
// is used when no delivery channel is configured.
type LogBackend struct {
	log *slog.Logger
}

// NewLogBackend creates a backend that only logs.
func NewLogBackend(log *slog.Logger) *LogBackend {
	return &LogBackend{log: log}
}

// RequestPermission always grants.
func (b *LogBackend) RequestPermission(context.Context) (bool, error) {
	return true, nil
}

// Deliver logs content.
func (b *LogBackend) Deliver(_ context.Context, content Content) error {
	b.log.Info("notification",
		"title", content.Title,
		"body", content.Body,
	)
	return nil
}
