package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
	"github.com/mtsk-dev/streamgate/internal/domain/repository"
	"github.com/mtsk-dev/streamgate/internal/probe"
)

// Mock MetadataService

type mockMetadataService struct {
	getMetadataFn        func(ctx context.Context, mediaID int64) (*model.MediaMetadata, error)
	generateThumbnailFn  func(ctx context.Context, mediaID int64, opts probe.ThumbnailOptions) (string, error)
	generatePosterFn     func(ctx context.Context, mediaID int64) (string, error)
	generateThumbnailsFn func(ctx context.Context, mediaID int64, count int) ([]string, error)
}

func (m *mockMetadataService) GetMetadata(ctx context.Context, mediaID int64) (*model.MediaMetadata, error) {
	if m.getMetadataFn != nil {
		return m.getMetadataFn(ctx, mediaID)
	}
	return nil, nil
}

func (m *mockMetadataService) GenerateThumbnail(ctx context.Context, mediaID int64, opts probe.ThumbnailOptions) (string, error) {
	if m.generateThumbnailFn != nil {
		return m.generateThumbnailFn(ctx, mediaID, opts)
	}
	return "", nil
}

func (m *mockMetadataService) GeneratePoster(ctx context.Context, mediaID int64) (string, error) {
	if m.generatePosterFn != nil {
		return m.generatePosterFn(ctx, mediaID)
	}
	return "", nil
}

func (m *mockMetadataService) GenerateThumbnails(ctx context.Context, mediaID int64, count int) ([]string, error) {
	if m.generateThumbnailsFn != nil {
		return m.generateThumbnailsFn(ctx, mediaID, count)
	}
	return nil, nil
}

func newMediaRouter(h *MediaHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/v1/media/{mediaID}/metadata", h.Metadata)
	r.Post("/v1/media/{mediaID}/thumbnail", h.Thumbnail)
	r.Post("/v1/media/{mediaID}/thumbnails", h.Thumbnails)
	r.Post("/v1/media/{mediaID}/poster", h.Poster)
	return r
}

func sampleHandlerMetadata() *model.MediaMetadata {
	return &model.MediaMetadata{
		Container:       "mov,mp4,m4a,3gp,3g2,mj2",
		DurationSeconds: 120.5,
		SizeBytes:       10485760,
		Bitrate:         696254,
		Video: &model.VideoStream{
			Codec:           "h264",
			Width:           1920,
			Height:          1080,
			FPS:             29.97,
			Bitrate:         500000,
			DurationSeconds: 120.5,
		},
		Audio: &model.AudioStream{
			Codec:      "aac",
			Bitrate:    128000,
			SampleRate: 44100,
			Channels:   2,
		},
	}
}

func TestMediaHandler_Metadata(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		setupMock      func(m *mockMetadataService)
		wantStatusCode int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name: "successful probe",
			url:  "/v1/media/42/metadata",
			setupMock: func(m *mockMetadataService) {
				m.getMetadataFn = func(ctx context.Context, mediaID int64) (*model.MediaMetadata, error) {
					if mediaID != 42 {
						t.Errorf("expected mediaID 42, got %d", mediaID)
					}
					return sampleHandlerMetadata(), nil
				}
			},
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var resp MetadataResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.DurationSeconds != 120.5 {
					t.Errorf("expected duration 120.5, got %f", resp.DurationSeconds)
				}
				if resp.Video == nil {
					t.Fatal("expected video stream in response")
				}
				if resp.Video.AspectRatio != "16:9" {
					t.Errorf("expected aspect ratio 16:9, got %s", resp.Video.AspectRatio)
				}
				if resp.Audio == nil || resp.Audio.Channels != 2 {
					t.Error("expected stereo audio stream in response")
				}
			},
		},
		{
			name: "audio-only file omits video",
			url:  "/v1/media/42/metadata",
			setupMock: func(m *mockMetadataService) {
				m.getMetadataFn = func(ctx context.Context, mediaID int64) (*model.MediaMetadata, error) {
					md := sampleHandlerMetadata()
					md.Video = nil
					return md, nil
				}
			},
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var raw map[string]json.RawMessage
				if err := json.Unmarshal(body, &raw); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if _, ok := raw["video"]; ok {
					t.Error("expected video key to be omitted")
				}
			},
		},
		{
			name:           "invalid media ID",
			url:            "/v1/media/-1/metadata",
			setupMock:      func(m *mockMetadataService) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "media not found",
			url:  "/v1/media/42/metadata",
			setupMock: func(m *mockMetadataService) {
				m.getMetadataFn = func(ctx context.Context, mediaID int64) (*model.MediaMetadata, error) {
					return nil, repository.ErrMediaNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "source file missing",
			url:  "/v1/media/42/metadata",
			setupMock: func(m *mockMetadataService) {
				m.getMetadataFn = func(ctx context.Context, mediaID int64) (*model.MediaMetadata, error) {
					return nil, repository.ErrSourceNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "probe failure",
			url:  "/v1/media/42/metadata",
			setupMock: func(m *mockMetadataService) {
				m.getMetadataFn = func(ctx context.Context, mediaID int64) (*model.MediaMetadata, error) {
					return nil, repository.ErrProbeFailed
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockMetadataService{}
			tt.setupMock(mock)
			h := NewMediaHandler(mock)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()

			newMediaRouter(h).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Errorf("expected status %d, got %d", tt.wantStatusCode, rec.Code)
			}

			if tt.checkResponse != nil {
				tt.checkResponse(t, rec.Body.Bytes())
			}
		})
	}
}

func TestMediaHandler_Thumbnail(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(m *mockMetadataService)
		wantStatusCode int
	}{
		{
			name: "successful generation",
			setupMock: func(m *mockMetadataService) {
				m.generateThumbnailFn = func(ctx context.Context, mediaID int64, opts probe.ThumbnailOptions) (string, error) {
					return "/thumbnails/movie_thumb.jpg", nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "extraction failure",
			setupMock: func(m *mockMetadataService) {
				m.generateThumbnailFn = func(ctx context.Context, mediaID int64, opts probe.ThumbnailOptions) (string, error) {
					return "", repository.ErrThumbnailFailed
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockMetadataService{}
			tt.setupMock(mock)
			h := NewMediaHandler(mock)

			req := httptest.NewRequest(http.MethodPost, "/v1/media/42/thumbnail", nil)
			rec := httptest.NewRecorder()

			newMediaRouter(h).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Errorf("expected status %d, got %d", tt.wantStatusCode, rec.Code)
			}
		})
	}
}

func TestMediaHandler_Thumbnails(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		setupMock      func(m *mockMetadataService)
		wantStatusCode int
		wantCount      int
	}{
		{
			name: "default count",
			url:  "/v1/media/42/thumbnails",
			setupMock: func(m *mockMetadataService) {
				m.generateThumbnailsFn = func(ctx context.Context, mediaID int64, count int) ([]string, error) {
					if count != 3 {
						t.Errorf("expected default count 3, got %d", count)
					}
					return []string{"a.jpg", "b.jpg", "c.jpg"}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantCount:      3,
		},
		{
			name: "explicit count",
			url:  "/v1/media/42/thumbnails?count=5",
			setupMock: func(m *mockMetadataService) {
				m.generateThumbnailsFn = func(ctx context.Context, mediaID int64, count int) ([]string, error) {
					if count != 5 {
						t.Errorf("expected count 5, got %d", count)
					}
					return []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantCount:      5,
		},
		{
			name:           "count out of range",
			url:            "/v1/media/42/thumbnails?count=100",
			setupMock:      func(m *mockMetadataService) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "non-numeric count",
			url:            "/v1/media/42/thumbnails?count=many",
			setupMock:      func(m *mockMetadataService) {},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockMetadataService{}
			tt.setupMock(mock)
			h := NewMediaHandler(mock)

			req := httptest.NewRequest(http.MethodPost, tt.url, nil)
			rec := httptest.NewRecorder()

			newMediaRouter(h).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Errorf("expected status %d, got %d", tt.wantStatusCode, rec.Code)
			}

			if tt.wantCount > 0 {
				var resp ThumbnailsResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if len(resp.Paths) != tt.wantCount {
					t.Errorf("expected %d paths, got %d", tt.wantCount, len(resp.Paths))
				}
			}
		})
	}
}

func TestMediaHandler_Poster(t *testing.T) {
	mock := &mockMetadataService{
		generatePosterFn: func(ctx context.Context, mediaID int64) (string, error) {
			return "/posters/movie_poster.jpg", nil
		},
	}
	h := NewMediaHandler(mock)

	req := httptest.NewRequest(http.MethodPost, "/v1/media/42/poster", nil)
	rec := httptest.NewRecorder()

	newMediaRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var resp ThumbnailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Path != "/posters/movie_poster.jpg" {
		t.Errorf("unexpected path: %s", resp.Path)
	}
}
