package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
	"github.com/mtsk-dev/streamgate/internal/domain/repository"
	"github.com/mtsk-dev/streamgate/internal/probe"
	"github.com/mtsk-dev/streamgate/internal/usecase"
)

const maxThumbnailCount = 20

// Response types

type VideoStreamResponse struct {
	Codec           string  `json:"codec"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FPS             float64 `json:"fps"`
	Bitrate         int64   `json:"bitrate"`
	DurationSeconds float64 `json:"duration_seconds"`
	AspectRatio     string  `json:"aspect_ratio"`
}

type AudioStreamResponse struct {
	Codec      string `json:"codec"`
	Bitrate    int64  `json:"bitrate"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type SubtitleTrackResponse struct {
	Index    int    `json:"index"`
	Codec    string `json:"codec"`
	Language string `json:"language,omitempty"`
	Title    string `json:"title,omitempty"`
}

type ChapterResponse struct {
	Title        string  `json:"title,omitempty"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

type MetadataResponse struct {
	Container       string                  `json:"container"`
	DurationSeconds float64                 `json:"duration_seconds"`
	SizeBytes       int64                   `json:"size_bytes"`
	Bitrate         int64                   `json:"bitrate"`
	Video           *VideoStreamResponse    `json:"video,omitempty"`
	Audio           *AudioStreamResponse    `json:"audio,omitempty"`
	Subtitles       []SubtitleTrackResponse `json:"subtitles,omitempty"`
	Chapters        []ChapterResponse       `json:"chapters,omitempty"`
}

type ThumbnailResponse struct {
	Path string `json:"path"`
}

type ThumbnailsResponse struct {
	Paths []string `json:"paths"`
}

// MediaHandler handles media probing and thumbnail HTTP requests.
type MediaHandler struct {
	svc usecase.MetadataService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(svc usecase.MetadataService) *MediaHandler {
	return &MediaHandler{svc: svc}
}

// Metadata handles GET /v1/media/{mediaID}/metadata
func (h *MediaHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := mediaIDParam(w, r)
	if !ok {
		return
	}

	metadata, err := h.svc.GetMetadata(r.Context(), mediaID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toMetadataResponse(metadata))
}

// Thumbnail handles POST /v1/media/{mediaID}/thumbnail
func (h *MediaHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := mediaIDParam(w, r)
	if !ok {
		return
	}

	path, err := h.svc.GenerateThumbnail(r.Context(), mediaID, probe.DefaultThumbnailOptions())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, ThumbnailResponse{Path: path})
}

// Thumbnails handles POST /v1/media/{mediaID}/thumbnails?count=N
func (h *MediaHandler) Thumbnails(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := mediaIDParam(w, r)
	if !ok {
		return
	}

	count := 3
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxThumbnailCount {
			Error(w, http.StatusBadRequest, "invalid_count", "Count must be between 1 and 20")
			return
		}
		count = parsed
	}

	paths, err := h.svc.GenerateThumbnails(r.Context(), mediaID, count)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, ThumbnailsResponse{Paths: paths})
}

// Poster handles POST /v1/media/{mediaID}/poster
func (h *MediaHandler) Poster(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := mediaIDParam(w, r)
	if !ok {
		return
	}

	path, err := h.svc.GeneratePoster(r.Context(), mediaID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, ThumbnailResponse{Path: path})
}

func (h *MediaHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrMediaNotFound):
		Error(w, http.StatusNotFound, "media_not_found", "Media not found")
	case errors.Is(err, repository.ErrSourceNotFound):
		Error(w, http.StatusNotFound, "source_not_found", "Source file is missing on disk")
	case errors.Is(err, repository.ErrProbeFailed):
		Error(w, http.StatusInternalServerError, "probe_failed", "Failed to inspect media file")
	case errors.Is(err, repository.ErrThumbnailFailed):
		Error(w, http.StatusInternalServerError, "thumbnail_failed", "Failed to extract frame")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func mediaIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	mediaID, err := strconv.ParseInt(chi.URLParam(r, "mediaID"), 10, 64)
	if err != nil || mediaID <= 0 {
		Error(w, http.StatusBadRequest, "invalid_media_id", "Media ID must be a positive integer")
		return 0, false
	}
	return mediaID, true
}

func toMetadataResponse(m *model.MediaMetadata) MetadataResponse {
	resp := MetadataResponse{
		Container:       m.Container,
		DurationSeconds: m.DurationSeconds,
		SizeBytes:       m.SizeBytes,
		Bitrate:         m.Bitrate,
	}
	if m.Video != nil {
		resp.Video = &VideoStreamResponse{
			Codec:           m.Video.Codec,
			Width:           m.Video.Width,
			Height:          m.Video.Height,
			FPS:             m.Video.FPS,
			Bitrate:         m.Video.Bitrate,
			DurationSeconds: m.Video.DurationSeconds,
			AspectRatio:     m.Video.AspectRatio(),
		}
	}
	if m.Audio != nil {
		resp.Audio = &AudioStreamResponse{
			Codec:      m.Audio.Codec,
			Bitrate:    m.Audio.Bitrate,
			SampleRate: m.Audio.SampleRate,
			Channels:   m.Audio.Channels,
		}
	}
	for _, s := range m.Subtitles {
		resp.Subtitles = append(resp.Subtitles, SubtitleTrackResponse{
			Index:    s.Index,
			Codec:    s.Codec,
			Language: s.Language,
			Title:    s.Title,
		})
	}
	for _, c := range m.Chapters {
		resp.Chapters = append(resp.Chapters, ChapterResponse{
			Title:        c.Title,
			StartSeconds: c.StartSeconds,
			EndSeconds:   c.EndSeconds,
		})
	}
	return resp
}
