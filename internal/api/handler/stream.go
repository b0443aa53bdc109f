package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
	"github.com/mtsk-dev/streamgate/internal/domain/repository"
	"github.com/mtsk-dev/streamgate/internal/hls"
	"github.com/mtsk-dev/streamgate/internal/usecase"
)

const (
	contentTypePlaylist = "application/vnd.apple.mpegurl"
	contentTypeSegment  = "video/mp2t"
)

// Response types

type PlaylistResponse struct {
	TotalDuration float64 `json:"total_duration"`
	SegmentCount  int     `json:"segment_count"`
	Ready         bool    `json:"ready"`
}

type StartStreamResponse struct {
	StreamURL string           `json:"stream_url"`
	Playlist  PlaylistResponse `json:"playlist"`
}

type StreamStatsResponse struct {
	ActiveCount        int      `json:"active_count"`
	MaxConcurrent      int      `json:"max_concurrent"`
	SupportedQualities []string `json:"supported_qualities"`
}

// StreamHandler handles stream-related HTTP requests.
type StreamHandler struct {
	svc   usecase.StreamService
	store *hls.Store
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(svc usecase.StreamService, store *hls.Store) *StreamHandler {
	return &StreamHandler{svc: svc, store: store}
}

// Start handles POST /v1/streams/{mediaID}/{quality}/start
func (h *StreamHandler) Start(w http.ResponseWriter, r *http.Request) {
	mediaID, quality, ok := streamParams(w, r)
	if !ok {
		return
	}

	var startTime float64
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			Error(w, http.StatusBadRequest, "invalid_start", "Start offset must be a non-negative number of seconds")
			return
		}
		startTime = parsed
	}

	output, err := h.svc.StartStream(r.Context(), mediaID, quality, startTime)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, StartStreamResponse{
		StreamURL: output.StreamURL,
		Playlist:  toPlaylistResponse(output.Playlist),
	})
}

// Stop handles DELETE /v1/streams/{mediaID}/{quality}
func (h *StreamHandler) Stop(w http.ResponseWriter, r *http.Request) {
	mediaID, quality, ok := streamParams(w, r)
	if !ok {
		return
	}

	if err := h.svc.StopStream(r.Context(), mediaID, quality); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /v1/streams/stats
func (h *StreamHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.svc.Stats()
	JSON(w, http.StatusOK, StreamStatsResponse{
		ActiveCount:        stats.ActiveCount,
		MaxConcurrent:      stats.MaxConcurrent,
		SupportedQualities: stats.SupportedQualities,
	})
}

// Playlist handles GET /v1/streams/{mediaID}/{quality}/playlist.m3u8
func (h *StreamHandler) Playlist(w http.ResponseWriter, r *http.Request) {
	mediaID, quality, ok := streamParams(w, r)
	if !ok {
		return
	}

	key := model.StreamKey{MediaID: mediaID, Quality: quality}
	_, playlistPath := h.store.Paths(key)
	if !h.store.IsValid(playlistPath) {
		Error(w, http.StatusConflict, "stream_not_ready", "Stream has not finished transcoding")
		return
	}

	w.Header().Set("Content-Type", contentTypePlaylist)
	http.ServeFile(w, r, playlistPath)
}

// Segment handles GET /v1/streams/{mediaID}/{quality}/{segment}
func (h *StreamHandler) Segment(w http.ResponseWriter, r *http.Request) {
	mediaID, quality, ok := streamParams(w, r)
	if !ok {
		return
	}

	segment := chi.URLParam(r, "segment")
	// Segment names come straight from the URL; only accept the exact
	// filenames the transcoder emits before touching the filesystem.
	if segment != filepath.Base(segment) ||
		!strings.HasPrefix(segment, "segment_") ||
		!strings.HasSuffix(segment, ".ts") {
		Error(w, http.StatusBadRequest, "invalid_segment", "Segment must be a plain segment_NNN.ts filename")
		return
	}

	outputDir, _ := h.store.Paths(model.StreamKey{MediaID: mediaID, Quality: quality})
	w.Header().Set("Content-Type", contentTypeSegment)
	http.ServeFile(w, r, filepath.Join(outputDir, segment))
}

func (h *StreamHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrUnsupportedQuality):
		Error(w, http.StatusBadRequest, "unsupported_quality", "Quality is not part of the ladder")
	case errors.Is(err, repository.ErrMediaNotFound):
		Error(w, http.StatusNotFound, "media_not_found", "Media not found")
	case errors.Is(err, repository.ErrSourceNotFound):
		Error(w, http.StatusNotFound, "source_not_found", "Source file is missing on disk")
	case errors.Is(err, repository.ErrStreamNotReady):
		Error(w, http.StatusConflict, "stream_not_ready", "Stream has not finished transcoding")
	case errors.Is(err, repository.ErrTooManyStreams):
		Error(w, http.StatusServiceUnavailable, "too_many_streams", "Concurrent stream limit reached, try again later")
	case errors.Is(err, repository.ErrTranscodeFailed):
		Error(w, http.StatusInternalServerError, "transcode_failed", "Transcoding failed")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// streamParams parses the mediaID and quality URL parameters, writing a 400
// response on malformed input. Quality is checked against the ladder here so
// arbitrary URL text never reaches filesystem path construction.
func streamParams(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	mediaID, err := strconv.ParseInt(chi.URLParam(r, "mediaID"), 10, 64)
	if err != nil || mediaID <= 0 {
		Error(w, http.StatusBadRequest, "invalid_media_id", "Media ID must be a positive integer")
		return 0, "", false
	}
	quality := chi.URLParam(r, "quality")
	if _, ok := model.PresetFor(quality); !ok {
		Error(w, http.StatusBadRequest, "unsupported_quality", "Quality is not part of the ladder")
		return 0, "", false
	}
	return mediaID, quality, true
}

func toPlaylistResponse(p *model.HLSPlaylist) PlaylistResponse {
	return PlaylistResponse{
		TotalDuration: p.TotalDuration,
		SegmentCount:  len(p.SegmentPaths),
		Ready:         p.Ready,
	}
}
