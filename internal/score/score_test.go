package score

import (
	"testing"

	"mediavault/internal/media"
)

func TestScoreZeroFacts(t *testing.T) {
	if got := Score(media.Facts{}); got != 0 {
		t.Fatalf("empty facts should score 0, got %d", got)
	}
}

func TestScoreComponents(t *testing.T) {
	tests := []struct {
		name     string
		facts    media.Facts
		expected int
	}{
		{
			name:     "resolution only 2160",
			facts:    media.Facts{Height: 2160},
			expected: 100,
		},
		{
			name:     "resolution only 1080",
			facts:    media.Facts{Height: 1080},
			expected: 75,
		},
		{
			name:     "resolution only 720",
			facts:    media.Facts{Height: 720},
			expected: 50,
		},
		{
			name:     "resolution only 480",
			facts:    media.Facts{Height: 480},
			expected: 25,
		},
		{
			name:     "resolution low but present",
			facts:    media.Facts{Height: 240},
			expected: 10,
		},
		{
			name:     "codec av1",
			facts:    media.Facts{VideoCodec: "av1"},
			expected: 22,
		},
		{
			name:     "codec hevc case insensitive",
			facts:    media.Facts{VideoCodec: "HEVC"},
			expected: 20,
		},
		{
			name:     "codec h264 with punctuation",
			facts:    media.Facts{VideoCodec: "h.264"},
			expected: 15,
		},
		{
			name:     "codec legacy",
			facts:    media.Facts{VideoCodec: "xvid"},
			expected: 5,
		},
		{
			name:     "codec unknown",
			facts:    media.Facts{VideoCodec: "rv40"},
			expected: 0,
		},
		{
			name:     "bitrate at ideal for 1080p",
			facts:    media.Facts{Height: 1080, BitrateKbps: 10000},
			expected: 75 + 30,
		},
		{
			name:     "bitrate at half ideal for 1080p",
			facts:    media.Facts{Height: 1080, BitrateKbps: 5000},
			expected: 75 + 15,
		},
		{
			name:     "bitrate above ideal caps",
			facts:    media.Facts{Height: 1080, BitrateKbps: 40000},
			expected: 75 + 30,
		},
		{
			name:     "surround audio",
			facts:    media.Facts{AudioChannels: 6},
			expected: 15,
		},
		{
			name:     "stereo audio",
			facts:    media.Facts{AudioChannels: 2},
			expected: 10,
		},
		{
			name:     "extra audio tracks capped",
			facts:    media.Facts{AudioTrackCount: 9},
			expected: 10,
		},
		{
			name:     "two audio tracks",
			facts:    media.Facts{AudioTrackCount: 2},
			expected: 3,
		},
		{
			name:     "subtitle tracks capped",
			facts:    media.Facts{SubtitleTrackCount: 8},
			expected: 10,
		},
		{
			name:     "three subtitle tracks",
			facts:    media.Facts{SubtitleTrackCount: 3},
			expected: 6,
		},
		{
			name:     "hdr flag",
			facts:    media.Facts{HDR: true},
			expected: 15,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.facts); got != tt.expected {
				t.Errorf("Score() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestScoreFullHouseClamped(t *testing.T) {
	facts := media.Facts{
		Height:             2160,
		VideoCodec:         "av1",
		BitrateKbps:        80000,
		AudioChannels:      8,
		AudioTrackCount:    6,
		SubtitleTrackCount: 10,
		HDR:                true,
	}
	// 100 + 22 + 30 + 15 + 10 + 10 + 15 = 202, clamped.
	if got := Score(facts); got != MaxScore {
		t.Fatalf("expected clamp to %d, got %d", MaxScore, got)
	}
}

func TestScoreMonotoneInResolution(t *testing.T) {
	heights := []int{0, 240, 480, 720, 1080, 2160}
	prev := -1
	for _, h := range heights {
		got := Score(media.Facts{Height: h})
		if got < prev {
			t.Fatalf("score not monotone: height %d scored %d below previous %d", h, got, prev)
		}
		prev = got
	}
}

func TestScoreDeterministic(t *testing.T) {
	facts := media.Facts{Height: 1080, VideoCodec: "hevc", BitrateKbps: 8000, AudioChannels: 6}
	first := Score(facts)
	for i := 0; i < 5; i++ {
		if got := Score(facts); got != first {
			t.Fatalf("score changed between calls: %d then %d", first, got)
		}
	}
}
