package repository

import (
	"context"
	"log/slog"
	"time"

	"loops-assistant/internal/domain"
)

// LogStore records contacts as structured log lines only.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogStore{logger: logger}
}

func (s *LogStore) RecordContact(ctx context.Context, rec domain.ContactRecord) error {
	at := rec.CapturedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	s.logger.InfoContext(ctx, "contact capture",
		"name", rec.Name,
		"email", rec.Email,
		"message", rec.Message,
		"source", rec.Source,
		"at", at.Format(time.RFC3339),
	)
	return nil
}
