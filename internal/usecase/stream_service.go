package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
	"github.com/mtsk-dev/streamgate/internal/domain/repository"
	"github.com/mtsk-dev/streamgate/internal/hls"
	"github.com/mtsk-dev/streamgate/internal/infrastructure/metrics"
	"github.com/mtsk-dev/streamgate/internal/transcoder"
)

// StreamServiceConfig holds configuration for StreamService.
type StreamServiceConfig struct {
	// MaxConcurrentStreams caps the number of jobs in the registry.
	MaxConcurrentStreams int
	// IdleTTL is how long a READY stream survives without being re-requested
	// before its output is reclaimed.
	IdleTTL time.Duration
	// URLPrefix is prepended to generated stream URLs.
	URLPrefix string
}

// DefaultStreamServiceConfig returns the default configuration.
func DefaultStreamServiceConfig() StreamServiceConfig {
	return StreamServiceConfig{
		MaxConcurrentStreams: 3,
		IdleTTL:              30 * time.Minute,
		URLPrefix:            "/v1/streams",
	}
}

// GeneratePlaylistInput is the resolved input for one playlist request.
type GeneratePlaylistInput struct {
	MediaID   int64
	FilePath  string
	Quality   string
	StartTime float64
}

// StartStreamOutput pairs the public URL with the parsed playlist.
type StartStreamOutput struct {
	StreamURL string
	Playlist  *model.HLSPlaylist
}

// StreamService is the admission-controlled transcode scheduler.
type StreamService interface {
	// StartStream resolves the media ID and returns a playable HLS playlist,
	// transcoding on demand. Cache hits neither invoke ffmpeg nor touch the
	// registry.
	StartStream(ctx context.Context, mediaID int64, quality string, startTime float64) (*StartStreamOutput, error)

	// GenerateHLSPlaylist is StartStream minus the catalog lookup, for
	// callers that already hold the file path.
	GenerateHLSPlaylist(ctx context.Context, input GeneratePlaylistInput) (*model.HLSPlaylist, error)

	// GetStreamURL returns the canonical playlist URL if the stream is
	// ready. It never triggers transcoding.
	GetStreamURL(ctx context.Context, mediaID int64, quality string) (string, error)

	// StopStream cancels the key's cleanup timer, kills an in-flight
	// transcode, and reclaims disk space. Idempotent.
	StopStream(ctx context.Context, mediaID int64, quality string) error

	// Stats returns a read-only snapshot of scheduler state.
	Stats() model.StreamStats
}

type streamService struct {
	registry   *jobRegistry
	store      *hls.Store
	transcoder transcoder.Transcoder
	media      repository.MediaLookup
	events     repository.EventPublisher // nil when eventing is disabled
	mirror     repository.ObjectStorage  // nil when mirroring is disabled
	sfGroup    singleflight.Group

	maxConcurrent int
	idleTTL       time.Duration
	urlPrefix     string
}

// NewStreamService creates a StreamService. events and mirror may be nil.
func NewStreamService(
	store *hls.Store,
	tc transcoder.Transcoder,
	media repository.MediaLookup,
	events repository.EventPublisher,
	mirror repository.ObjectStorage,
	cfg StreamServiceConfig,
) StreamService {
	return &streamService{
		registry:      newJobRegistry(cfg.MaxConcurrentStreams, nil),
		store:         store,
		transcoder:    tc,
		media:         media,
		events:        events,
		mirror:        mirror,
		maxConcurrent: cfg.MaxConcurrentStreams,
		idleTTL:       cfg.IdleTTL,
		urlPrefix:     cfg.URLPrefix,
	}
}

func (s *streamService) StartStream(ctx context.Context, mediaID int64, quality string, startTime float64) (*StartStreamOutput, error) {
	filePath, err := s.media.FilePath(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	playlist, err := s.GenerateHLSPlaylist(ctx, GeneratePlaylistInput{
		MediaID:   mediaID,
		FilePath:  filePath,
		Quality:   quality,
		StartTime: startTime,
	})
	if err != nil {
		return nil, err
	}

	return &StartStreamOutput{
		StreamURL: s.streamURL(mediaID, quality),
		Playlist:  playlist,
	}, nil
}

func (s *streamService) GenerateHLSPlaylist(ctx context.Context, input GeneratePlaylistInput) (*model.HLSPlaylist, error) {
	preset, ok := model.PresetFor(input.Quality)
	if !ok {
		return nil, fmt.Errorf("%w: %q", repository.ErrUnsupportedQuality, input.Quality)
	}

	key := model.StreamKey{MediaID: input.MediaID, Quality: input.Quality}
	_, playlistPath := s.store.Paths(key)

	// Cache hit: a complete playlist already exists on disk. No subprocess,
	// no registry mutation.
	if s.store.IsValid(playlistPath) {
		metrics.PlaylistCacheTotal.WithLabelValues(metrics.CacheStatusHit).Inc()
		return s.store.Parse(playlistPath)
	}
	metrics.PlaylistCacheTotal.WithLabelValues(metrics.CacheStatusMiss).Inc()

	// Concurrent identical requests share a single transcode; two jobs must
	// never write into the same output directory.
	result, err, shared := s.sfGroup.Do(key.String(), func() (any, error) {
		return s.transcode(ctx, key, preset, input)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}
	return result.(*model.HLSPlaylist), nil
}

// transcode is the admission-controlled slow path for one stream key.
func (s *streamService) transcode(ctx context.Context, key model.StreamKey, preset model.QualityPreset, input GeneratePlaylistInput) (*model.HLSPlaylist, error) {
	if _, err := os.Stat(input.FilePath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", repository.ErrSourceNotFound, input.FilePath)
		}
		return nil, fmt.Errorf("stat source file: %w", err)
	}

	jobID := uuid.New()
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Atomic capacity-check-and-insert. Rejections happen before any
	// filesystem work.
	if err := s.registry.tryAdmit(key, jobID, cancel); err != nil {
		return nil, err
	}

	outputDir, playlistPath := s.store.Paths(key)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		s.registry.release(key)
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	// Drop stale partials from a previous failed attempt.
	s.store.Purge(outputDir)

	slog.Info("starting transcode",
		slog.String("job_id", jobID.String()),
		slog.Int64("media_id", key.MediaID),
		slog.String("quality", key.Quality),
		slog.Float64("start_time", input.StartTime),
	)

	start := time.Now()
	err := s.transcoder.TranscodeToHLS(jobCtx, transcoder.Request{
		InputPath: input.FilePath,
		OutputDir: outputDir,
		Preset:    preset,
		StartTime: input.StartTime,
	})
	if err == nil && !s.store.IsValid(playlistPath) {
		err = fmt.Errorf("playlist missing end-of-list marker")
	}
	if err != nil {
		s.registry.release(key)
		s.store.Purge(outputDir)
		metrics.TranscodesTotal.WithLabelValues(key.Quality, metrics.StatusError).Inc()
		metrics.CleanupsTotal.WithLabelValues(metrics.CleanupTriggerFailure).Inc()
		s.publishEvent(ctx, model.EventStreamFailed, key, jobID)
		return nil, fmt.Errorf("%w: %v", repository.ErrTranscodeFailed, err)
	}

	metrics.TranscodesTotal.WithLabelValues(key.Quality, metrics.StatusSuccess).Inc()
	metrics.TranscodeDurationSeconds.WithLabelValues(key.Quality).Observe(time.Since(start).Seconds())

	s.registry.markReady(key, s.idleTTL, func() {
		slog.Info("reclaiming idle stream",
			slog.Int64("media_id", key.MediaID),
			slog.String("quality", key.Quality),
		)
		metrics.CleanupsTotal.WithLabelValues(metrics.CleanupTriggerIdle).Inc()
		s.unmirrorArtifacts(context.Background(), key, outputDir)
		s.store.Purge(outputDir)
	})

	playlist, parseErr := s.store.Parse(playlistPath)
	if parseErr != nil {
		return nil, fmt.Errorf("parse playlist: %w", parseErr)
	}

	s.publishEvent(ctx, model.EventStreamReady, key, jobID)
	s.mirrorArtifacts(ctx, key, playlist)

	return playlist, nil
}

func (s *streamService) GetStreamURL(ctx context.Context, mediaID int64, quality string) (string, error) {
	if _, ok := model.PresetFor(quality); !ok {
		return "", fmt.Errorf("%w: %q", repository.ErrUnsupportedQuality, quality)
	}

	key := model.StreamKey{MediaID: mediaID, Quality: quality}
	_, playlistPath := s.store.Paths(key)
	if !s.store.IsValid(playlistPath) {
		return "", fmt.Errorf("%w: %s", repository.ErrStreamNotReady, key)
	}
	return s.streamURL(mediaID, quality), nil
}

func (s *streamService) StopStream(ctx context.Context, mediaID int64, quality string) error {
	key := model.StreamKey{MediaID: mediaID, Quality: quality}
	removed := s.registry.remove(key)

	outputDir, _ := s.store.Paths(key)
	s.unmirrorArtifacts(ctx, key, outputDir)
	s.store.Purge(outputDir)
	metrics.CleanupsTotal.WithLabelValues(metrics.CleanupTriggerStop).Inc()

	if removed {
		s.publishEvent(ctx, model.EventStreamStopped, key, uuid.Nil)
	}
	return nil
}

func (s *streamService) Stats() model.StreamStats {
	return model.StreamStats{
		ActiveCount:        s.registry.activeCount(),
		MaxConcurrent:      s.maxConcurrent,
		SupportedQualities: model.SupportedQualities(),
	}
}

// streamURL builds the canonical relative playlist URL for a key.
func (s *streamService) streamURL(mediaID int64, quality string) string {
	return fmt.Sprintf("%s/%d/%s/%s", s.urlPrefix, mediaID, quality, hls.PlaylistName)
}

// publishEvent emits a lifecycle event; failures are logged, never surfaced.
func (s *streamService) publishEvent(ctx context.Context, eventType string, key model.StreamKey, jobID uuid.UUID) {
	if s.events == nil {
		return
	}
	event := model.StreamEvent{
		Type:    eventType,
		MediaID: key.MediaID,
		Quality: key.Quality,
		JobID:   jobID,
		At:      time.Now().UTC(),
	}
	if err := s.events.PublishStreamEvent(ctx, event); err != nil {
		slog.Warn("failed to publish stream event",
			slog.String("type", eventType),
			slog.String("key", key.String()),
			slog.Any("error", err),
		)
	}
}

// mirrorArtifacts uploads the finished rendition to object storage for CDN
// offload. Best-effort: the local filesystem remains authoritative.
func (s *streamService) mirrorArtifacts(ctx context.Context, key model.StreamKey, playlist *model.HLSPlaylist) {
	if s.mirror == nil {
		return
	}

	prefix := path.Join("hls", fmt.Sprintf("%d", key.MediaID), key.Quality)
	if err := s.mirrorFile(ctx, playlist.PlaylistPath, path.Join(prefix, hls.PlaylistName), "application/vnd.apple.mpegurl"); err != nil {
		slog.Warn("failed to mirror playlist", slog.String("key", key.String()), slog.Any("error", err))
		return
	}
	for _, segmentPath := range playlist.SegmentPaths {
		objectKey := path.Join(prefix, filepath.Base(segmentPath))
		if err := s.mirrorFile(ctx, segmentPath, objectKey, "video/mp2t"); err != nil {
			slog.Warn("failed to mirror segment", slog.String("key", objectKey), slog.Any("error", err))
		}
	}
}

// unmirrorArtifacts withdraws the key's mirrored objects. It enumerates
// segment names from the local playlist, so it must run before Purge.
// Best-effort, like mirroring itself.
func (s *streamService) unmirrorArtifacts(ctx context.Context, key model.StreamKey, outputDir string) {
	if s.mirror == nil {
		return
	}

	playlist, err := s.store.Parse(filepath.Join(outputDir, hls.PlaylistName))
	if err != nil {
		return
	}

	prefix := path.Join("hls", fmt.Sprintf("%d", key.MediaID), key.Quality)
	objects := []string{path.Join(prefix, hls.PlaylistName)}
	for _, segmentPath := range playlist.SegmentPaths {
		objects = append(objects, path.Join(prefix, filepath.Base(segmentPath)))
	}
	for _, objectKey := range objects {
		if err := s.mirror.Delete(ctx, objectKey); err != nil {
			slog.Warn("failed to delete mirrored artifact", slog.String("key", objectKey), slog.Any("error", err))
		}
	}
}

func (s *streamService) mirrorFile(ctx context.Context, localPath, objectKey, contentType string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := s.mirror.Upload(ctx, objectKey, file, contentType); err != nil {
		return fmt.Errorf("storage upload: %w", err)
	}
	return nil
}
