package cache

import (
	"context"
	"time"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
)

// MetadataCache caches probe results keyed by media ID.
// Implementations handle serialization transparently.
type MetadataCache interface {
	// Get retrieves cached metadata for a media ID.
	// Returns nil, nil on cache miss.
	Get(ctx context.Context, mediaID int64) (*model.MediaMetadata, error)

	// Set stores metadata with the specified TTL.
	Set(ctx context.Context, mediaID int64, metadata *model.MediaMetadata, ttl time.Duration) error
}
