package model

import "strconv"

// QualityPreset describes one rung of the output quality ladder.
// Bitrates are ffmpeg-style strings (e.g. "2800k") because they are passed
// verbatim to the transcoder command line.
type QualityPreset struct {
	Name         string
	Width        int
	Height       int
	VideoBitrate string
	AudioBitrate string
	MaxRate      string
	BufSize      string
}

// Resolution returns the ffmpeg scale filter target (e.g. "1280x720").
func (p QualityPreset) Resolution() string {
	return strconv.Itoa(p.Width) + "x" + strconv.Itoa(p.Height)
}

// qualityLadder is the static set of supported presets, ordered ascending.
// Buffer sizes follow the usual 1.5x bitrate rule for HLS VOD output.
var qualityLadder = []QualityPreset{
	{
		Name:         "480p",
		Width:        854,
		Height:       480,
		VideoBitrate: "1400k",
		AudioBitrate: "128k",
		MaxRate:      "1498k",
		BufSize:      "2100k",
	},
	{
		Name:         "720p",
		Width:        1280,
		Height:       720,
		VideoBitrate: "2800k",
		AudioBitrate: "128k",
		MaxRate:      "2996k",
		BufSize:      "4200k",
	},
	{
		Name:         "1080p",
		Width:        1920,
		Height:       1080,
		VideoBitrate: "5000k",
		AudioBitrate: "192k",
		MaxRate:      "5350k",
		BufSize:      "7500k",
	},
}

// PresetFor looks up a quality preset by name.
// Returns false if the name is not part of the ladder.
func PresetFor(name string) (QualityPreset, bool) {
	for _, p := range qualityLadder {
		if p.Name == name {
			return p, true
		}
	}
	return QualityPreset{}, false
}

// SupportedQualities returns the preset names in ascending quality order.
func SupportedQualities() []string {
	names := make([]string, len(qualityLadder))
	for i, p := range qualityLadder {
		names[i] = p.Name
	}
	return names
}
