// Package hls owns the on-disk layout of generated HLS output and the
// parsing of playlist.m3u8 files. The filesystem is the source of truth for
// whether a stream is ready; nothing here is cached in memory.
package hls

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
)

const (
	// PlaylistName is the manifest filename within each output directory.
	PlaylistName = "playlist.m3u8"
	// SegmentPattern is the ffmpeg segment filename template.
	SegmentPattern = "segment_%03d.ts"

	headerTag  = "#EXTM3U"
	endListTag = "#EXT-X-ENDLIST"
	infTag     = "#EXTINF:"
)

// Store maps stream keys to output paths under a fixed root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the output root directory.
func (s *Store) Root() string {
	return s.root
}

// Paths returns the output directory and playlist path for a stream key.
// Pure path construction; no filesystem access.
func (s *Store) Paths(key model.StreamKey) (outputDir, playlistPath string) {
	outputDir = filepath.Join(s.root, strconv.FormatInt(key.MediaID, 10), key.Quality)
	playlistPath = filepath.Join(outputDir, PlaylistName)
	return outputDir, playlistPath
}

// IsValid reports whether playlistPath holds a complete playlist: the file
// exists and contains both the HLS header and the end-of-list marker. An
// in-progress transcode has the header but no end marker yet.
func (s *Store) IsValid(playlistPath string) bool {
	data, err := os.ReadFile(playlistPath)
	if err != nil {
		return false
	}
	content := string(data)
	return strings.Contains(content, headerTag) && strings.Contains(content, endListTag)
}

// Parse reads a playlist file, summing segment durations and resolving
// segment paths against the playlist's directory.
func (s *Store) Parse(playlistPath string) (*model.HLSPlaylist, error) {
	file, err := os.Open(playlistPath)
	if err != nil {
		return nil, fmt.Errorf("open playlist: %w", err)
	}
	defer func() { _ = file.Close() }()

	dir := filepath.Dir(playlistPath)
	playlist := &model.HLSPlaylist{PlaylistPath: playlistPath}
	var sawHeader, sawEndList bool

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == headerTag:
			sawHeader = true
		case line == endListTag:
			sawEndList = true
		case strings.HasPrefix(line, infTag):
			playlist.TotalDuration += parseSegmentDuration(line)
		case !strings.HasPrefix(line, "#"):
			playlist.SegmentPaths = append(playlist.SegmentPaths, filepath.Join(dir, line))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}

	playlist.Ready = sawHeader && sawEndList
	return playlist, nil
}

// parseSegmentDuration extracts the duration from an "#EXTINF:10.0," line.
// Malformed annotations contribute zero rather than failing the parse.
func parseSegmentDuration(line string) float64 {
	value := strings.TrimPrefix(line, infTag)
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return seconds
}

// Purge removes every file directly inside outputDir. Cleanup must never
// block or fail the caller, so errors are logged and swallowed.
func (s *Store) Purge(outputDir string) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read output directory for purge",
				slog.String("dir", outputDir),
				slog.Any("error", err),
			)
		}
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(outputDir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to remove stream artifact",
				slog.String("path", path),
				slog.Any("error", err),
			)
		}
	}
}
