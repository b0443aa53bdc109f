package transcoder

import (
	"context"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
)

// Request describes one HLS transcode invocation.
type Request struct {
	// InputPath is the absolute path to the source media file.
	InputPath string
	// OutputDir is where the playlist and segments are written.
	// It must exist and be empty before the call.
	OutputDir string
	// Preset selects resolution and rate-control parameters.
	Preset model.QualityPreset
	// StartTime is the seek offset into the source, in seconds.
	StartTime float64
}

// Transcoder converts a source file to a single-quality HLS rendition.
//
// Implementations run synchronously: the call returns once the playlist
// carries its end-of-list marker or the subprocess has failed. Cancel the
// context to kill an in-flight transcode.
type Transcoder interface {
	TranscodeToHLS(ctx context.Context, req Request) error
}
