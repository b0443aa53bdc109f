package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// FFmpegConfig holds configuration for the FFmpeg transcoder.
type FFmpegConfig struct {
	// FFmpegPath is the path to the ffmpeg binary.
	// If empty, "ffmpeg" will be used (assumes it's in PATH).
	FFmpegPath string

	// VideoCodec is the video codec to use.
	// Default: libx264
	VideoCodec string

	// VideoPreset controls the encoding speed/quality tradeoff.
	// Options: ultrafast, superfast, veryfast, faster, fast, medium, slow, slower, veryslow
	// Default: veryfast
	VideoPreset string

	// AudioCodec is the audio codec to use.
	// Default: aac
	AudioCodec string

	// SegmentSeconds is the target duration of each HLS segment.
	// Default: 10
	SegmentSeconds int
}

// DefaultFFmpegConfig returns an FFmpegConfig with production-ready defaults.
// veryfast keeps CPU headroom on constrained hosts at a modest size cost.
func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		FFmpegPath:     "ffmpeg",
		VideoCodec:     "libx264",
		VideoPreset:    "veryfast",
		AudioCodec:     "aac",
		SegmentSeconds: 10,
	}
}

// FFmpegTranscoder implements Transcoder using the FFmpeg CLI.
type FFmpegTranscoder struct {
	config FFmpegConfig
}

// Compile-time verification that FFmpegTranscoder implements Transcoder.
var _ Transcoder = (*FFmpegTranscoder)(nil)

// NewFFmpegTranscoder creates a new FFmpeg-based transcoder.
func NewFFmpegTranscoder(cfg FFmpegConfig) *FFmpegTranscoder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	return &FFmpegTranscoder{config: cfg}
}

// TranscodeToHLS runs ffmpeg and blocks until the rendition is complete.
// ffmpeg appends the EXT-X-ENDLIST marker when the input is exhausted, and
// delete_segments prunes rotated-out segments as new ones are written.
func (t *FFmpegTranscoder) TranscodeToHLS(ctx context.Context, req Request) error {
	if err := t.validateRequest(req); err != nil {
		return err
	}

	playlistPath := filepath.Join(req.OutputDir, "playlist.m3u8")
	segmentPattern := filepath.Join(req.OutputDir, "segment_%03d.ts")

	args := t.buildFFmpegArgs(req, playlistPath, segmentPattern)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.config.FFmpegPath, args...)
	cmd.Stdout = nil // ffmpeg writes progress to stderr
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("transcoding cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg execution failed: %v: %s", err, stderrExcerpt(&stderr))
	}

	if _, err := os.Stat(playlistPath); err != nil {
		return fmt.Errorf("ffmpeg produced no playlist: %w", err)
	}

	return nil
}

// validateRequest checks the input file and output directory up front so
// ffmpeg's own error text never stands in for a plain path mistake.
func (t *FFmpegTranscoder) validateRequest(req Request) error {
	info, err := os.Stat(req.InputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", req.InputPath)
		}
		return fmt.Errorf("failed to access input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path is a directory, expected a file: %s", req.InputPath)
	}

	dirInfo, err := os.Stat(req.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", req.OutputDir)
		}
		return fmt.Errorf("failed to access output directory: %w", err)
	}
	if !dirInfo.IsDir() {
		return fmt.Errorf("output path is not a directory: %s", req.OutputDir)
	}

	return nil
}

// buildFFmpegArgs constructs the FFmpeg command arguments.
// -ss before -i makes the seek a fast keyframe seek on the demuxer side.
func (t *FFmpegTranscoder) buildFFmpegArgs(req Request, playlistPath, segmentPattern string) []string {
	args := make([]string, 0, 32)

	if req.StartTime > 0 {
		args = append(args, "-ss", strconv.FormatFloat(req.StartTime, 'f', -1, 64))
	}

	args = append(args,
		"-i", req.InputPath,
		"-vf", fmt.Sprintf("scale=%d:%d", req.Preset.Width, req.Preset.Height),
		"-c:v", t.config.VideoCodec,
		"-preset", t.config.VideoPreset,
		"-b:v", req.Preset.VideoBitrate,
		"-maxrate", req.Preset.MaxRate,
		"-bufsize", req.Preset.BufSize,
		"-c:a", t.config.AudioCodec,
		"-b:a", req.Preset.AudioBitrate,
		"-f", "hls",
		"-hls_time", strconv.Itoa(t.config.SegmentSeconds),
		"-hls_list_size", "0",
		"-hls_flags", "delete_segments",
		"-hls_segment_filename", segmentPattern,
		"-y",
		playlistPath,
	)

	return args
}

// stderrExcerpt returns the tail of ffmpeg's stderr for error diagnostics.
// The tail is where ffmpeg prints the actual failure reason.
func stderrExcerpt(buf *bytes.Buffer) string {
	const maxLen = 300
	out := strings.TrimSpace(buf.String())
	if len(out) > maxLen {
		out = out[len(out)-maxLen:]
	}
	return out
}
