package repository

import "errors"

var (
	// ErrMediaNotFound is returned when the catalog has no entry for a media ID.
	ErrMediaNotFound = errors.New("media not found")

	// ErrSourceNotFound is returned when a media file is absent on disk.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrUnsupportedQuality is returned for quality names outside the ladder.
	ErrUnsupportedQuality = errors.New("unsupported quality")

	// ErrTooManyStreams is returned when the concurrent-transcode cap is reached.
	ErrTooManyStreams = errors.New("too many active streams")

	// ErrProbeFailed is returned when ffprobe fails or emits unparseable output.
	ErrProbeFailed = errors.New("media probe failed")

	// ErrTranscodeFailed is returned when ffmpeg exits non-zero or produces no playlist.
	ErrTranscodeFailed = errors.New("transcode failed")

	// ErrThumbnailFailed is returned when frame extraction produces no output file.
	ErrThumbnailFailed = errors.New("thumbnail generation failed")

	// ErrStreamNotReady is returned when a playlist is requested before it is complete.
	ErrStreamNotReady = errors.New("stream not ready")

	// ErrBucketNotFound is returned when the configured mirror bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
)
