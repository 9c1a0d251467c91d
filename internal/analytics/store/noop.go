package store

import (
	"context"

	"github.com/serroba/paste-go/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SavePasteCreated(_ context.Context, event *analytics.PasteCreatedEvent) error {
	n.logger.Info("paste created event received",
		zap.String("pasteId", event.PasteID),
		zap.Int("contentBytes", event.ContentBytes),
		zap.Int64p("ttlSeconds", event.TTLSeconds),
		zap.Int64p("maxReads", event.MaxReads),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (n *Noop) SavePasteRead(_ context.Context, event *analytics.PasteReadEvent) error {
	n.logger.Info("paste read event received",
		zap.String("pasteId", event.PasteID),
		zap.Int64p("remainingReads", event.RemainingReads),
		zap.Time("readAt", event.ReadAt),
	)

	return nil
}

// Compile-time check.
var _ analytics.Store = (*Noop)(nil)
