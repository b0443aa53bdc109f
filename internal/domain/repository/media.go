package repository

import "context"

// MediaLookup resolves a catalog media ID to its source file path.
// The catalog itself is owned by another service; this interface is
// strictly read-only.
type MediaLookup interface {
	// FilePath returns the on-disk path for a media ID.
	// Returns ErrMediaNotFound if the catalog has no such entry.
	FilePath(ctx context.Context, mediaID int64) (string, error)
}
