package analytics

import (
	"context"

	"github.com/serroba/paste-go/internal/messaging"
)

// NewPasteCreatedHandler returns a handler that persists creation events.
func NewPasteCreatedHandler(store Store) messaging.Handler[PasteCreatedEvent] {
	return func(ctx context.Context, event *PasteCreatedEvent) error {
		return store.SavePasteCreated(ctx, event)
	}
}

// NewPasteReadHandler returns a handler that persists read events.
func NewPasteReadHandler(store Store) messaging.Handler[PasteReadEvent] {
	return func(ctx context.Context, event *PasteReadEvent) error {
		return store.SavePasteRead(ctx, event)
	}
}
