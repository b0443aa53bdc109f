package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StreamState represents the lifecycle state of a transcode job.
type StreamState string

const (
	// StateTranscoding means ffmpeg is currently producing output for the key.
	StateTranscoding StreamState = "TRANSCODING"
	// StateReady means a complete playlist exists and the idle timer is armed.
	StateReady StreamState = "READY"
)

// Valid state transitions:
// TRANSCODING -> READY
var validTransitions = map[StreamState][]StreamState{
	StateTranscoding: {StateReady},
	StateReady:       {},
}

func (s StreamState) CanTransitionTo(next StreamState) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, state := range allowed {
		if state == next {
			return true
		}
	}
	return false
}

func (s StreamState) String() string {
	return string(s)
}

// StreamKey identifies a transcode job. One output directory belongs to
// exactly one key.
type StreamKey struct {
	MediaID int64
	Quality string
}

func (k StreamKey) String() string {
	return fmt.Sprintf("%d/%s", k.MediaID, k.Quality)
}

// HLSPlaylist is the parsed view of a playlist.m3u8 file. It is recomputed
// from disk on every call; the filesystem is the source of truth.
type HLSPlaylist struct {
	PlaylistPath  string
	SegmentPaths  []string
	TotalDuration float64
	Ready         bool
}

// StreamEvent is a lifecycle notification emitted for collaborators.
type StreamEvent struct {
	Type    string    `json:"type"`
	MediaID int64     `json:"media_id"`
	Quality string    `json:"quality"`
	JobID   uuid.UUID `json:"job_id"`
	At      time.Time `json:"at"`
}

// Stream event types.
const (
	EventStreamReady   = "stream.ready"
	EventStreamStopped = "stream.stopped"
	EventStreamFailed  = "stream.failed"
)

// StreamStats is a point-in-time snapshot of scheduler state.
type StreamStats struct {
	ActiveCount        int
	MaxConcurrent      int
	SupportedQualities []string
}
