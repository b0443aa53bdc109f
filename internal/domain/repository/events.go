package repository

import (
	"context"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
)

// EventPublisher emits stream lifecycle notifications for collaborators
// (catalog, UI push, cache invalidation). Publishing is best-effort from the
// scheduler's point of view: failures are logged, never surfaced to callers.
type EventPublisher interface {
	// PublishStreamEvent sends a lifecycle event.
	PublishStreamEvent(ctx context.Context, event model.StreamEvent) error

	// Close gracefully closes the underlying connection.
	Close() error
}
