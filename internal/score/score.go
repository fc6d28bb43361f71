// Package score computes the quality score used to rank duplicate copies.
// Scoring is pure: the same facts always produce the same score, and missing
// facts simply contribute nothing.
package score

import "mediavault/internal/media"

// MaxScore is the upper bound of the quality scale.
const MaxScore = 200

const (
	resolutionUHDPoints  = 100
	resolution1080Points = 75
	resolution720Points  = 50
	resolution480Points  = 25
	resolutionSDPoints   = 10

	bitrateMaxPoints = 30

	audioSurroundPoints = 15
	audioStereoPoints   = 10

	extraAudioTrackPoints = 3
	extraAudioTrackCap    = 10

	subtitleTrackPoints = 2
	subtitleTrackCap    = 10

	hdrPoints = 15
)

var codecPoints = map[string]int{
	"av1":   22,
	"hevc":  20,
	"h265":  20,
	"x265":  20,
	"vp9":   18,
	"h264":  15,
	"avc":   15,
	"x264":  15,
	"mpeg2": 5,
	"mpeg4": 5,
	"divx":  5,
	"xvid":  5,
	"vc1":   5,
}

// Ideal bitrates in kbps per resolution tier. Actual bitrate is scored as a
// fraction of the ideal, capped at 1.
const (
	idealBitrateUHD  = 50000
	idealBitrate1080 = 10000
	idealBitrate720  = 5000
	idealBitrate480  = 2500
	idealBitrateSD   = 1000
)

// Score rates one file's technical quality in [0, MaxScore].
func Score(facts media.Facts) int {
	total := resolutionScore(facts.Height)
	total += codecScore(facts.VideoCodec)
	total += bitrateScore(facts.Height, facts.BitrateKbps)
	total += audioScore(facts.AudioChannels)
	total += extraTrackScore(facts.AudioTrackCount, facts.SubtitleTrackCount)
	if facts.HDR {
		total += hdrPoints
	}

	if total < 0 {
		return 0
	}
	if total > MaxScore {
		return MaxScore
	}
	return total
}

func resolutionScore(height int) int {
	switch {
	case height >= 2160:
		return resolutionUHDPoints
	case height >= 1080:
		return resolution1080Points
	case height >= 720:
		return resolution720Points
	case height >= 480:
		return resolution480Points
	case height > 0:
		return resolutionSDPoints
	default:
		return 0
	}
}

func codecScore(codec string) int {
	return codecPoints[normalizeCodec(codec)]
}

func normalizeCodec(codec string) string {
	out := make([]byte, 0, len(codec))
	for i := 0; i < len(codec); i++ {
		c := codec[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		}
	}
	return string(out)
}

func bitrateScore(height int, bitrateKbps int64) int {
	if bitrateKbps <= 0 {
		return 0
	}
	var ideal float64
	switch {
	case height >= 2160:
		ideal = idealBitrateUHD
	case height >= 1080:
		ideal = idealBitrate1080
	case height >= 720:
		ideal = idealBitrate720
	case height >= 480:
		ideal = idealBitrate480
	default:
		ideal = idealBitrateSD
	}
	ratio := float64(bitrateKbps) / ideal
	if ratio > 1 {
		ratio = 1
	}
	return int(ratio * bitrateMaxPoints)
}

func audioScore(channels int) int {
	switch {
	case channels >= 5:
		return audioSurroundPoints
	case channels > 0:
		return audioStereoPoints
	default:
		return 0
	}
}

func extraTrackScore(audioTracks, subtitleTracks int) int {
	var total int
	if audioTracks > 1 {
		extra := (audioTracks - 1) * extraAudioTrackPoints
		if extra > extraAudioTrackCap {
			extra = extraAudioTrackCap
		}
		total += extra
	}
	if subtitleTracks > 0 {
		extra := subtitleTracks * subtitleTrackPoints
		if extra > subtitleTrackCap {
			extra = subtitleTrackCap
		}
		total += extra
	}
	return total
}
