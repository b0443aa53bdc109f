// Package probe wraps the ffprobe/ffmpeg CLIs for metadata extraction and
// single-frame thumbnail generation.
//
// Requires ffprobe and ffmpeg on PATH (or explicit paths in Config).
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
	"github.com/mtsk-dev/streamgate/internal/domain/repository"
)

// Config holds configuration for the Prober.
type Config struct {
	// FFprobePath is the path to the ffprobe binary. Default: "ffprobe".
	FFprobePath string
	// FFmpegPath is the path to the ffmpeg binary. Default: "ffmpeg".
	FFmpegPath string
	// ThumbnailsDir is where derived thumbnail paths are rooted.
	ThumbnailsDir string
	// PostersDir is where derived poster paths are rooted.
	PostersDir string
}

// DefaultConfig returns a Config with binaries resolved from PATH.
func DefaultConfig() Config {
	return Config{
		FFprobePath:   "ffprobe",
		FFmpegPath:    "ffmpeg",
		ThumbnailsDir: "thumbnails",
		PostersDir:    "posters",
	}
}

// Prober extracts metadata and still frames from media files.
type Prober struct {
	config Config
}

// New creates a Prober.
func New(cfg Config) *Prober {
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	return &Prober{config: cfg}
}

// ffprobeOutput is the top-level JSON structure produced by
// ffprobe -show_format -show_streams -show_chapters.
type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		Index      int    `json:"index"`
		CodecName  string `json:"codec_name"`
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		BitRate    string `json:"bit_rate"`
		Duration   string `json:"duration"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
		Tags       struct {
			Language string `json:"language"`
			Title    string `json:"title"`
		} `json:"tags"`
	} `json:"streams"`
	Chapters []struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Tags      struct {
			Title string `json:"title"`
		} `json:"tags"`
	} `json:"chapters"`
}

// ExtractMetadata probes filePath and returns its stream/format description.
// Returns ErrSourceNotFound if the file is absent and ErrProbeFailed (with a
// stderr excerpt) if ffprobe fails or its output cannot be parsed.
func (p *Prober) ExtractMetadata(ctx context.Context, filePath string) (*model.MediaMetadata, error) {
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", repository.ErrSourceNotFound, filePath)
		}
		return nil, fmt.Errorf("stat source file: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.config.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-show_chapters",
		filePath,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrProbeFailed, commandFailure(err))
	}

	metadata, err := parseProbeOutput(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrProbeFailed, err)
	}
	return metadata, nil
}

// IsVideoFile reports whether the probe finds at least one video stream.
// Probe failures are treated as "not a video", never propagated.
func (p *Prober) IsVideoFile(ctx context.Context, filePath string) bool {
	metadata, err := p.ExtractMetadata(ctx, filePath)
	if err != nil {
		return false
	}
	return metadata.HasVideo()
}

// parseProbeOutput converts raw ffprobe JSON into domain metadata.
func parseProbeOutput(data []byte) (*model.MediaMetadata, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal ffprobe output: %w", err)
	}

	metadata := &model.MediaMetadata{
		Container:       out.Format.FormatName,
		DurationSeconds: parseFloat(out.Format.Duration),
		SizeBytes:       parseInt(out.Format.Size),
		Bitrate:         parseInt(out.Format.BitRate),
	}

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if metadata.Video != nil {
				continue // first video stream wins
			}
			duration := parseFloat(s.Duration)
			if duration == 0 {
				duration = metadata.DurationSeconds
			}
			metadata.Video = &model.VideoStream{
				Codec:           s.CodecName,
				Width:           s.Width,
				Height:          s.Height,
				FPS:             ParseFrameRate(s.RFrameRate),
				Bitrate:         parseInt(s.BitRate),
				DurationSeconds: duration,
			}
		case "audio":
			if metadata.Audio != nil {
				continue
			}
			metadata.Audio = &model.AudioStream{
				Codec:      s.CodecName,
				Bitrate:    parseInt(s.BitRate),
				SampleRate: int(parseInt(s.SampleRate)),
				Channels:   s.Channels,
			}
		case "subtitle":
			metadata.Subtitles = append(metadata.Subtitles, model.SubtitleTrack{
				Index:    s.Index,
				Codec:    s.CodecName,
				Language: s.Tags.Language,
				Title:    s.Tags.Title,
			})
		}
	}

	for _, c := range out.Chapters {
		metadata.Chapters = append(metadata.Chapters, model.Chapter{
			Title:        c.Tags.Title,
			StartSeconds: parseFloat(c.StartTime),
			EndSeconds:   parseFloat(c.EndTime),
		})
	}

	return metadata, nil
}

// ParseFrameRate converts an ffprobe rational ("30000/1001") to frames per
// second, rounded to two decimals. A zero denominator or malformed input
// yields 0.
func ParseFrameRate(rational string) float64 {
	num, den, ok := strings.Cut(rational, "/")
	if !ok {
		return 0
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return math.Round(n/d*100) / 100
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// commandFailure renders a subprocess error with a bounded stderr excerpt
// for diagnostics.
func commandFailure(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		excerpt := strings.TrimSpace(string(exitErr.Stderr))
		if len(excerpt) > 200 {
			excerpt = excerpt[len(excerpt)-200:]
		}
		return fmt.Sprintf("%v: %s", err, excerpt)
	}
	return err.Error()
}
