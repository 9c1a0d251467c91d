package analytics

import "context"

// Store defines the interface for persisting analytics events.
type Store interface {
	SavePasteCreated(ctx context.Context, event *PasteCreatedEvent) error
	SavePasteRead(ctx context.Context, event *PasteReadEvent) error
}
