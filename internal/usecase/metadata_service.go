package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
	"github.com/mtsk-dev/streamgate/internal/domain/repository"
	"github.com/mtsk-dev/streamgate/internal/infrastructure/cache"
	"github.com/mtsk-dev/streamgate/internal/infrastructure/metrics"
	"github.com/mtsk-dev/streamgate/internal/probe"
)

// MetadataProber is the subset of the probe package the service depends on.
// *probe.Prober satisfies it.
type MetadataProber interface {
	ExtractMetadata(ctx context.Context, filePath string) (*model.MediaMetadata, error)
	GenerateThumbnail(ctx context.Context, filePath, outputPath string, opts probe.ThumbnailOptions) (string, error)
	GeneratePoster(ctx context.Context, filePath string) (string, error)
	GenerateMultipleThumbnails(ctx context.Context, filePath string, count int) ([]string, error)
	IsVideoFile(ctx context.Context, filePath string) bool
}

var _ MetadataProber = (*probe.Prober)(nil)

// MetadataServiceConfig holds configuration for MetadataService.
type MetadataServiceConfig struct {
	// CacheTTL is how long probe results stay cached.
	CacheTTL time.Duration
}

// DefaultMetadataServiceConfig returns the default configuration.
func DefaultMetadataServiceConfig() MetadataServiceConfig {
	return MetadataServiceConfig{
		CacheTTL: 10 * time.Minute,
	}
}

// MetadataService exposes probing and thumbnail generation keyed by catalog
// media ID.
type MetadataService interface {
	// GetMetadata probes the media file, with cache-aside over the probe
	// cache and singleflight over concurrent probes of the same ID.
	GetMetadata(ctx context.Context, mediaID int64) (*model.MediaMetadata, error)

	// GenerateThumbnail extracts one frame using the given options.
	GenerateThumbnail(ctx context.Context, mediaID int64, opts probe.ThumbnailOptions) (string, error)

	// GeneratePoster extracts a poster frame at the fixed poster size.
	GeneratePoster(ctx context.Context, mediaID int64) (string, error)

	// GenerateThumbnails extracts count evenly spaced frames.
	GenerateThumbnails(ctx context.Context, mediaID int64, count int) ([]string, error)
}

type metadataService struct {
	media   repository.MediaLookup
	prober  MetadataProber
	cache   cache.MetadataCache // nil when caching is disabled
	sfGroup singleflight.Group

	cacheTTL time.Duration
}

// NewMetadataService creates a MetadataService. probeCache may be nil.
func NewMetadataService(
	media repository.MediaLookup,
	prober MetadataProber,
	probeCache cache.MetadataCache,
	cfg MetadataServiceConfig,
) MetadataService {
	return &metadataService{
		media:    media,
		prober:   prober,
		cache:    probeCache,
		cacheTTL: cfg.CacheTTL,
	}
}

func (s *metadataService) GetMetadata(ctx context.Context, mediaID int64) (*model.MediaMetadata, error) {
	filePath, err := s.media.FilePath(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	// Probes are expensive subprocess calls; coalesce concurrent requests.
	result, err, _ := s.sfGroup.Do(filePath, func() (any, error) {
		return s.probeWithCache(ctx, mediaID, filePath)
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.MediaMetadata), nil
}

// probeWithCache implements the cache-aside pattern over the probe cache.
func (s *metadataService) probeWithCache(ctx context.Context, mediaID int64, filePath string) (*model.MediaMetadata, error) {
	if s.cache != nil {
		metadata, err := s.cache.Get(ctx, mediaID)
		if err != nil {
			metrics.ProbeCacheTotal.WithLabelValues(metrics.CacheStatusError).Inc()
			slog.Warn("probe cache get failed, probing directly",
				slog.Int64("media_id", mediaID),
				slog.Any("error", err),
			)
		}
		if metadata != nil {
			metrics.ProbeCacheTotal.WithLabelValues(metrics.CacheStatusHit).Inc()
			return metadata, nil
		}
		metrics.ProbeCacheTotal.WithLabelValues(metrics.CacheStatusMiss).Inc()
	}

	metadata, err := s.prober.ExtractMetadata(ctx, filePath)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, mediaID, metadata, s.cacheTTL); err != nil {
			slog.Warn("failed to cache probe result",
				slog.Int64("media_id", mediaID),
				slog.Any("error", err),
			)
		}
	}

	return metadata, nil
}

func (s *metadataService) GenerateThumbnail(ctx context.Context, mediaID int64, opts probe.ThumbnailOptions) (string, error) {
	filePath, err := s.media.FilePath(ctx, mediaID)
	if err != nil {
		return "", err
	}
	return s.prober.GenerateThumbnail(ctx, filePath, "", opts)
}

func (s *metadataService) GeneratePoster(ctx context.Context, mediaID int64) (string, error) {
	filePath, err := s.media.FilePath(ctx, mediaID)
	if err != nil {
		return "", err
	}
	return s.prober.GeneratePoster(ctx, filePath)
}

func (s *metadataService) GenerateThumbnails(ctx context.Context, mediaID int64, count int) ([]string, error) {
	filePath, err := s.media.FilePath(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	return s.prober.GenerateMultipleThumbnails(ctx, filePath, count)
}
