// Package probe extracts technical facts from media files. The default
// extractor shells out to ffprobe and maps its JSON report onto media.Facts;
// content hashing streams the file through SHA-256.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"mediavault/internal/faults"
	"mediavault/internal/language"
	"mediavault/internal/media"
)

// Extractor produces stream facts for a media file.
type Extractor interface {
	Extract(ctx context.Context, path string) (media.Facts, error)
}

// FFprobe inspects files with the ffprobe binary.
type FFprobe struct {
	Binary  string
	Timeout time.Duration
}

// NewFFprobe returns an extractor using the given binary name and per-file timeout.
func NewFFprobe(binary string, timeout time.Duration) *FFprobe {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &FFprobe{Binary: binary, Timeout: timeout}
}

type result struct {
	Streams []stream `json:"streams"`
	Format  format   `json:"format"`
}

type stream struct {
	Index          int               `json:"index"`
	CodecName      string            `json:"codec_name"`
	CodecType      string            `json:"codec_type"`
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	Channels       int               `json:"channels"`
	RFrameRate     string            `json:"r_frame_rate"`
	ColorTransfer  string            `json:"color_transfer"`
	ColorPrimaries string            `json:"color_primaries"`
	Tags           map[string]string `json:"tags"`
}

type format struct {
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Extract runs ffprobe and maps its report onto Facts.
func (f *FFprobe) Extract(ctx context.Context, path string) (media.Facts, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return media.Facts{}, errors.New("probe: empty path")
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.Binary,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams",
		"-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return media.Facts{}, faults.Wrap(faults.ErrExtraction, "probe", "ffprobe",
			fmt.Sprintf("%s: %s", path, strings.TrimSpace(string(output))), err)
	}

	facts, err := parseResult(output)
	if err != nil {
		return media.Facts{}, faults.Wrap(faults.ErrExtraction, "probe", "parse", path, err)
	}
	return facts, nil
}

func parseResult(data []byte) (media.Facts, error) {
	var report result
	if err := json.Unmarshal(data, &report); err != nil {
		return media.Facts{}, err
	}

	facts := media.Facts{
		Container:       primaryFormatName(report.Format.FormatName),
		DurationSeconds: parseFloat(report.Format.Duration),
		BitrateKbps:     int64(parseFloat(report.Format.BitRate)) / 1000,
	}

	var audioLangs, subLangs []string
	for _, s := range report.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			// First video stream wins; attached cover art streams come later.
			if facts.VideoCodec == "" {
				facts.VideoCodec = strings.ToLower(s.CodecName)
				facts.Width = s.Width
				facts.Height = s.Height
				facts.FrameRate = parseFrameRate(s.RFrameRate)
				facts.HDR = isHDRTransfer(s.ColorTransfer)
			}
		case "audio":
			facts.AudioTrackCount++
			if s.Channels > facts.AudioChannels {
				facts.AudioChannels = s.Channels
			}
			if lang := language.ExtractFromTags(s.Tags); lang != "" {
				audioLangs = append(audioLangs, lang)
			}
		case "subtitle":
			facts.SubtitleTrackCount++
			if lang := language.ExtractFromTags(s.Tags); lang != "" {
				subLangs = append(subLangs, lang)
			}
		}
	}
	facts.AudioLanguages = language.NormalizeList(audioLangs)
	facts.SubtitleLanguages = language.NormalizeList(subLangs)

	return facts, nil
}

// primaryFormatName reduces ffprobe's comma list ("matroska,webm") to its
// first entry.
func primaryFormatName(name string) string {
	name = strings.TrimSpace(name)
	if idx := strings.IndexByte(name, ','); idx >= 0 {
		name = name[:idx]
	}
	return name
}

func isHDRTransfer(transfer string) bool {
	switch strings.ToLower(strings.TrimSpace(transfer)) {
	case "smpte2084", "arib-std-b67", "smpte428":
		return true
	}
	return false
}

func parseFrameRate(rate string) float64 {
	rate = strings.TrimSpace(rate)
	if rate == "" {
		return 0
	}
	if num, den, ok := strings.Cut(rate, "/"); ok {
		n := parseFloat(num)
		d := parseFloat(den)
		if d == 0 {
			return 0
		}
		return n / d
	}
	return parseFloat(rate)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 {
		return 0
	}
	return parsed
}
