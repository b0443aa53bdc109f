package probe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mtsk-dev/streamgate/internal/domain/repository"
)

// ThumbnailOptions control single-frame extraction.
type ThumbnailOptions struct {
	// Timestamp is the seek offset in seconds.
	Timestamp float64
	// Width and Height are the scale target in pixels.
	Width  int
	Height int
	// Quality is the JPEG quality passed to -q:v (2 = high, 31 = low).
	Quality int
}

// DefaultThumbnailOptions returns the standard thumbnail parameters:
// a frame ten seconds in, scaled to 320x180.
func DefaultThumbnailOptions() ThumbnailOptions {
	return ThumbnailOptions{
		Timestamp: 10,
		Width:     320,
		Height:    180,
		Quality:   2,
	}
}

// posterOptions are the fixed parameters for poster frames.
var posterOptions = ThumbnailOptions{
	Timestamp: 10,
	Width:     1280,
	Height:    720,
	Quality:   2,
}

// GenerateThumbnail seeks into filePath and extracts exactly one scaled
// frame. If outputPath is empty a canonical path under the thumbnails root
// is derived from the source filename. Returns ErrThumbnailFailed if the
// output file is not produced.
func (p *Prober) GenerateThumbnail(ctx context.Context, filePath, outputPath string, opts ThumbnailOptions) (string, error) {
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", repository.ErrSourceNotFound, filePath)
		}
		return "", fmt.Errorf("stat source file: %w", err)
	}

	if outputPath == "" {
		outputPath = filepath.Join(p.config.ThumbnailsDir, derivedName(filePath, "_thumb.jpg"))
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("create thumbnail directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.config.FFmpegPath, p.buildThumbnailArgs(filePath, outputPath, opts)...)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", repository.ErrThumbnailFailed, commandFailure(err))
	}

	// ffmpeg can exit zero without writing output (e.g. seek past EOF).
	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("%w: output file not produced", repository.ErrThumbnailFailed)
	}

	return outputPath, nil
}

// GeneratePoster extracts a large poster frame into the posters root.
func (p *Prober) GeneratePoster(ctx context.Context, filePath string) (string, error) {
	outputPath := filepath.Join(p.config.PostersDir, derivedName(filePath, "_poster.jpg"))
	return p.GenerateThumbnail(ctx, filePath, outputPath, posterOptions)
}

// GenerateMultipleThumbnails extracts count frames at evenly spaced
// timestamps across the file. A single failed extraction is logged and
// skipped; only probing the duration is fatal.
func (p *Prober) GenerateMultipleThumbnails(ctx context.Context, filePath string, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	metadata, err := p.ExtractMetadata(ctx, filePath)
	if err != nil {
		return nil, err
	}

	opts := DefaultThumbnailOptions()
	paths := make([]string, 0, count)
	for i, ts := range thumbnailTimestamps(metadata.DurationSeconds, count) {
		opts.Timestamp = ts
		suffix := fmt.Sprintf("_thumb_%02d.jpg", i+1)
		outputPath := filepath.Join(p.config.ThumbnailsDir, derivedName(filePath, suffix))

		path, err := p.GenerateThumbnail(ctx, filePath, outputPath, opts)
		if err != nil {
			slog.Warn("skipping failed thumbnail extraction",
				slog.String("file", filePath),
				slog.Float64("timestamp", ts),
				slog.Any("error", err),
			)
			continue
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// thumbnailTimestamps spaces count seek offsets evenly across
// [interval, count*interval] where interval = duration/(count+1).
func thumbnailTimestamps(duration float64, count int) []float64 {
	interval := duration / float64(count+1)
	timestamps := make([]float64, count)
	for i := range timestamps {
		timestamps[i] = interval * float64(i+1)
	}
	return timestamps
}

// buildThumbnailArgs constructs the ffmpeg command for one-frame extraction.
func (p *Prober) buildThumbnailArgs(inputPath, outputPath string, opts ThumbnailOptions) []string {
	return []string{
		"-ss", strconv.FormatFloat(opts.Timestamp, 'f', -1, 64),
		"-i", inputPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", opts.Width, opts.Height),
		"-q:v", strconv.Itoa(opts.Quality),
		"-y",
		outputPath,
	}
}

// derivedName strips the source extension and appends suffix.
func derivedName(filePath, suffix string) string {
	base := filepath.Base(filePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + suffix
}
