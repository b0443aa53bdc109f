package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
	"github.com/mtsk-dev/streamgate/internal/probe"
	"github.com/mtsk-dev/streamgate/internal/transcoder"
)

// Mock MediaLookup

type mockMediaLookup struct {
	filePathFn func(ctx context.Context, mediaID int64) (string, error)
}

func (m *mockMediaLookup) FilePath(ctx context.Context, mediaID int64) (string, error) {
	if m.filePathFn != nil {
		return m.filePathFn(ctx, mediaID)
	}
	return "", nil
}

// Mock Transcoder

type mockTranscoder struct {
	transcodeFn func(ctx context.Context, req transcoder.Request) error
}

func (m *mockTranscoder) TranscodeToHLS(ctx context.Context, req transcoder.Request) error {
	if m.transcodeFn != nil {
		return m.transcodeFn(ctx, req)
	}
	return nil
}

// Mock EventPublisher

type mockEventPublisher struct {
	publishFn func(ctx context.Context, event model.StreamEvent) error
	closeFn   func() error

	mu        sync.Mutex
	published []model.StreamEvent
}

func (m *mockEventPublisher) PublishStreamEvent(ctx context.Context, event model.StreamEvent) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}

func (m *mockEventPublisher) events() []model.StreamEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.StreamEvent(nil), m.published...)
}

func (m *mockEventPublisher) Close() error {
	if m.closeFn != nil {
		return m.closeFn()
	}
	return nil
}

// Mock ObjectStorage

type mockObjectStorage struct {
	uploadFn func(ctx context.Context, key string, reader io.Reader, contentType string) error
	deleteFn func(ctx context.Context, key string) error

	mu       sync.Mutex
	uploaded []string
	deleted  []string
}

func (m *mockObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	m.mu.Lock()
	m.uploaded = append(m.uploaded, key)
	m.mu.Unlock()
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, reader, contentType)
	}
	return nil
}

func (m *mockObjectStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, key)
	m.mu.Unlock()
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

func (m *mockObjectStorage) uploadedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.uploaded...)
}

func (m *mockObjectStorage) deletedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Mock MetadataCache

type mockMetadataCache struct {
	getFn func(ctx context.Context, mediaID int64) (*model.MediaMetadata, error)
	setFn func(ctx context.Context, mediaID int64, metadata *model.MediaMetadata, ttl time.Duration) error
}

func (m *mockMetadataCache) Get(ctx context.Context, mediaID int64) (*model.MediaMetadata, error) {
	if m.getFn != nil {
		return m.getFn(ctx, mediaID)
	}
	return nil, nil
}

func (m *mockMetadataCache) Set(ctx context.Context, mediaID int64, metadata *model.MediaMetadata, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, mediaID, metadata, ttl)
	}
	return nil
}

// Mock MetadataProber

type mockProber struct {
	extractFn    func(ctx context.Context, filePath string) (*model.MediaMetadata, error)
	thumbnailFn  func(ctx context.Context, filePath, outputPath string, opts probe.ThumbnailOptions) (string, error)
	posterFn     func(ctx context.Context, filePath string) (string, error)
	thumbnailsFn func(ctx context.Context, filePath string, count int) ([]string, error)
	isVideoFn    func(ctx context.Context, filePath string) bool
}

func (m *mockProber) ExtractMetadata(ctx context.Context, filePath string) (*model.MediaMetadata, error) {
	if m.extractFn != nil {
		return m.extractFn(ctx, filePath)
	}
	return nil, nil
}

func (m *mockProber) GenerateThumbnail(ctx context.Context, filePath, outputPath string, opts probe.ThumbnailOptions) (string, error) {
	if m.thumbnailFn != nil {
		return m.thumbnailFn(ctx, filePath, outputPath, opts)
	}
	return "", nil
}

func (m *mockProber) GeneratePoster(ctx context.Context, filePath string) (string, error) {
	if m.posterFn != nil {
		return m.posterFn(ctx, filePath)
	}
	return "", nil
}

func (m *mockProber) GenerateMultipleThumbnails(ctx context.Context, filePath string, count int) ([]string, error) {
	if m.thumbnailsFn != nil {
		return m.thumbnailsFn(ctx, filePath, count)
	}
	return nil, nil
}

func (m *mockProber) IsVideoFile(ctx context.Context, filePath string) bool {
	if m.isVideoFn != nil {
		return m.isVideoFn(ctx, filePath)
	}
	return true
}
