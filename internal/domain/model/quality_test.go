package model

import (
	"slices"
	"testing"
)

func TestPresetFor(t *testing.T) {
	tests := []struct {
		name       string
		quality    string
		wantFound  bool
		wantWidth  int
		wantHeight int
	}{
		{"480p exists", "480p", true, 854, 480},
		{"720p exists", "720p", true, 1280, 720},
		{"1080p exists", "1080p", true, 1920, 1080},
		{"unknown quality", "4k", false, 0, 0},
		{"empty name", "", false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preset, found := PresetFor(tt.quality)
			if found != tt.wantFound {
				t.Fatalf("PresetFor(%q) found = %v, want %v", tt.quality, found, tt.wantFound)
			}
			if !found {
				return
			}
			if preset.Width != tt.wantWidth || preset.Height != tt.wantHeight {
				t.Errorf("got %dx%d, want %dx%d", preset.Width, preset.Height, tt.wantWidth, tt.wantHeight)
			}
			if preset.VideoBitrate == "" || preset.MaxRate == "" || preset.BufSize == "" {
				t.Error("preset is missing rate-control parameters")
			}
		})
	}
}

func TestSupportedQualities(t *testing.T) {
	got := SupportedQualities()
	want := []string{"480p", "720p", "1080p"}
	if !slices.Equal(got, want) {
		t.Errorf("SupportedQualities() = %v, want %v", got, want)
	}
}

func TestQualityPreset_Resolution(t *testing.T) {
	p, _ := PresetFor("720p")
	if got := p.Resolution(); got != "1280x720" {
		t.Errorf("Resolution() = %q, want %q", got, "1280x720")
	}
}
