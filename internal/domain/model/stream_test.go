package model

import "testing"

func TestStreamState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from StreamState
		to   StreamState
		want bool
	}{
		{"transcoding to ready", StateTranscoding, StateReady, true},
		{"ready is terminal", StateReady, StateTranscoding, false},
		{"transcoding to itself", StateTranscoding, StateTranscoding, false},
		{"unknown state", StreamState("BOGUS"), StateReady, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStreamKey_String(t *testing.T) {
	key := StreamKey{MediaID: 42, Quality: "720p"}
	if got := key.String(); got != "42/720p" {
		t.Errorf("String() = %q, want %q", got, "42/720p")
	}
}
