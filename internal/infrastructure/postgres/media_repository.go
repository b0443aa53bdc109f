package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mtsk-dev/streamgate/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MediaRepository implements repository.MediaLookup against the media
// catalog. The catalog is owned by another service; this repository only
// ever reads from it.
type MediaRepository struct {
	db DBTX
}

// Compile-time verification that MediaRepository implements MediaLookup.
var _ repository.MediaLookup = (*MediaRepository)(nil)

// NewMediaRepository creates a new MediaRepository instance.
func NewMediaRepository(db DBTX) *MediaRepository {
	return &MediaRepository{db: db}
}

// FilePath resolves a media ID to its on-disk source path.
func (r *MediaRepository) FilePath(ctx context.Context, mediaID int64) (string, error) {
	const query = `
		SELECT file_path
		FROM media
		WHERE id = $1
	`

	var filePath string
	if err := r.db.QueryRow(ctx, query, mediaID).Scan(&filePath); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: id %d", repository.ErrMediaNotFound, mediaID)
		}
		return "", fmt.Errorf("failed to look up media path: %w", err)
	}

	return filePath, nil
}
