package model

import "fmt"

// MediaMetadata is the probed description of a source file.
// It is derived from the file on every call and never persisted.
type MediaMetadata struct {
	Container       string
	DurationSeconds float64
	SizeBytes       int64
	Bitrate         int64
	Video           *VideoStream
	Audio           *AudioStream
	Subtitles       []SubtitleTrack
	Chapters        []Chapter
}

// VideoStream describes the primary video stream of a media file.
type VideoStream struct {
	Codec           string
	Width           int
	Height          int
	FPS             float64
	Bitrate         int64
	DurationSeconds float64
}

// AudioStream describes the primary audio stream of a media file.
type AudioStream struct {
	Codec      string
	Bitrate    int64
	SampleRate int
	Channels   int
}

// SubtitleTrack describes one embedded subtitle stream.
type SubtitleTrack struct {
	Index    int
	Codec    string
	Language string
	Title    string
}

// Chapter describes one chapter marker.
type Chapter struct {
	Title        string
	StartSeconds float64
	EndSeconds   float64
}

// AspectRatio reduces the stream dimensions by their greatest common
// divisor and formats them as "w:h". Unknown dimensions yield "unknown".
func (v *VideoStream) AspectRatio() string {
	if v.Width == 0 || v.Height == 0 {
		return "unknown"
	}
	d := gcd(v.Width, v.Height)
	return fmt.Sprintf("%d:%d", v.Width/d, v.Height/d)
}

// gcd is iterative on purpose: probe input is untrusted and must not be
// able to drive recursion depth.
func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// HasVideo reports whether the file contains at least one video stream.
func (m *MediaMetadata) HasVideo() bool {
	return m.Video != nil
}
