// Package titleparse extracts a best-guess title, year, and episode numbering
// from release-style media filenames. Parsing is heuristic: well-named files
// ("Title (2020)", "Show - S01E02") hit strict patterns first, everything else
// falls through to token cleanup that strips codec, source, and resolution
// junk before taking what remains as the title.
package titleparse

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"mediavault/internal/media"
)

var (
	// Strict patterns for well-named files, tried first.
	moviePattern = regexp.MustCompile(`(?i)^(.+?)\s*\((\d{4})\)\s*$`)
	tvPattern    = regexp.MustCompile(`(?i)^(.+?)\s+-\s+S(\d{1,3})E(\d{1,3})\s*$`)

	// Episode numbering in scene-style names.
	episodeSEPattern   = regexp.MustCompile(`(?i)(?:^|[\s._-])S(\d{1,3})\s*E(\d{1,3})`)
	episodeXPattern    = regexp.MustCompile(`(?i)(?:^|[\s._-])(\d{1,2})x(\d{1,3})(?:[\s._-]|$)`)
	episodeWordPattern = regexp.MustCompile(`(?i)[S](?:eason)?\s*(\d{1,3})\s*[E](?:pisode)?\s*(\d{1,3})`)

	// Year requires delimiters so episode numbers and dates don't match.
	yearParenPattern = regexp.MustCompile(`[\(\[]([12]\d{3})[\)\]]`)
	yearLoosePattern = regexp.MustCompile(`(?:^|[\s._(-])([12]\d{3})(?:[\s._)-]|$)`)

	// Trailing scene release group: "...x264-SPARKS".
	releaseGroupPattern = regexp.MustCompile(`-([A-Za-z0-9]+)$`)

	bracketPattern = regexp.MustCompile(`[\[{][^\]}]*[\]}]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// garbageTokens are junk tokens stripped from the title portion of a
// filename: codecs, sources, resolutions, and release tags.
var garbageTokens = buildTokenSet(
	// Video codecs
	"x264", "x265", "h264", "h265", "hevc", "avc", "av1", "divx", "xvid",
	"vp9", "mpeg2", "mpeg4", "10bit", "8bit",
	// Audio
	"aac", "ac3", "eac3", "dts", "dtshd", "truehd", "atmos", "flac", "mp3",
	"opus", "ddp", "dd51", "51", "71", "20",
	// Resolutions
	"480p", "480i", "576p", "720p", "720i", "1080p", "1080i", "2160p",
	"4k", "uhd", "hd", "sd",
	// Sources
	"bluray", "bdrip", "brrip", "bdremux", "remux", "hdrip", "dvd", "dvdrip",
	"webrip", "webdl", "web", "hdtv", "pdtv", "cam", "screener", "telesync",
	// Release tags
	"proper", "repack", "internal", "limited", "extended", "unrated",
	"theatrical", "remastered", "multi", "subbed", "dubbed", "subs", "hdr",
	"hdr10", "dv", "dovi", "imax",
	// Containers appearing as tokens
	"mkv", "mp4", "avi",
)

func buildTokenSet(tokens ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Parse extracts a ParsedName from a file path. It never fails; when nothing
// recognizable is found the cleaned base name becomes the title with type
// unknown.
func Parse(path string) media.ParsedName {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}

	// Strict library-style names first.
	if m := tvPattern.FindStringSubmatch(base); m != nil {
		season, _ := strconv.Atoi(m[2])
		episode, _ := strconv.Atoi(m[3])
		return media.ParsedName{
			Title:     collapse(m[1]),
			Season:    season,
			Episode:   episode,
			MediaType: media.TypeTV,
		}
	}
	if m := moviePattern.FindStringSubmatch(base); m != nil {
		year, _ := strconv.Atoi(m[2])
		if plausibleYear(year) {
			return media.ParsedName{
				Title:     collapse(m[1]),
				Year:      year,
				MediaType: media.TypeMovie,
			}
		}
	}

	return parseSceneName(base)
}

func parseSceneName(base string) media.ParsedName {
	var parsed media.ParsedName
	working := base

	parsed.ReleaseGroup = extractReleaseGroup(working)
	if parsed.ReleaseGroup != "" {
		working = strings.TrimSuffix(working, "-"+parsed.ReleaseGroup)
	}

	season, episode, episodeAt := extractEpisode(working)
	if season > 0 {
		parsed.Season = season
		parsed.Episode = episode
		parsed.MediaType = media.TypeTV
		// Everything after the episode marker is release junk.
		working = working[:episodeAt]
	}

	year, yearAt := extractYear(working)
	if year > 0 {
		parsed.Year = year
		if parsed.MediaType == "" {
			parsed.MediaType = media.TypeMovie
		}
		if yearAt > 0 {
			working = working[:yearAt]
		}
	}

	parsed.Title = cleanTitle(working)
	if parsed.MediaType == "" {
		parsed.MediaType = media.TypeUnknown
	}
	if parsed.Title == "" {
		parsed.Title = collapse(strings.NewReplacer(".", " ", "_", " ").Replace(base))
		parsed.MediaType = media.TypeUnknown
	}
	return parsed
}

func extractReleaseGroup(name string) string {
	m := releaseGroupPattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	group := m[1]
	// A trailing garbage token ("...-x264") is not a group name.
	if _, junk := garbageTokens[strings.ToLower(group)]; junk {
		return ""
	}
	// Years and pure numbers are never groups.
	if _, err := strconv.Atoi(group); err == nil {
		return ""
	}
	return group
}

func extractEpisode(name string) (season, episode, at int) {
	if m := episodeSEPattern.FindStringSubmatchIndex(name); m != nil {
		season, _ = strconv.Atoi(name[m[2]:m[3]])
		episode, _ = strconv.Atoi(name[m[4]:m[5]])
		return season, episode, m[0]
	}
	if m := episodeXPattern.FindStringSubmatchIndex(name); m != nil {
		season, _ = strconv.Atoi(name[m[2]:m[3]])
		episode, _ = strconv.Atoi(name[m[4]:m[5]])
		return season, episode, m[0]
	}
	if m := episodeWordPattern.FindStringSubmatchIndex(name); m != nil {
		season, _ = strconv.Atoi(name[m[2]:m[3]])
		episode, _ = strconv.Atoi(name[m[4]:m[5]])
		return season, episode, m[0]
	}
	return 0, 0, 0
}

func extractYear(name string) (year, at int) {
	if m := yearParenPattern.FindStringSubmatchIndex(name); m != nil {
		year, _ = strconv.Atoi(name[m[2]:m[3]])
		if plausibleYear(year) {
			return year, m[0]
		}
	}
	// Loose delimited year: prefer the last match so titles containing a
	// year ("2001 A Space Odyssey 1968") keep the title part intact.
	matches := yearLoosePattern.FindAllStringSubmatchIndex(name, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		candidate, _ := strconv.Atoi(name[m[2]:m[3]])
		if plausibleYear(candidate) {
			return candidate, m[0]
		}
	}
	return 0, 0
}

func plausibleYear(year int) bool {
	return year >= 1900 && year <= 2100
}

func cleanTitle(name string) string {
	name = bracketPattern.ReplaceAllString(name, " ")
	name = strings.NewReplacer(".", " ", "_", " ").Replace(name)

	var kept []string
	for _, token := range strings.Fields(name) {
		token = strings.Trim(token, "-–()[]{}+,;")
		if token == "" {
			continue
		}
		normalized := strings.ToLower(strings.ReplaceAll(token, ".", ""))
		if _, junk := garbageTokens[normalized]; junk {
			// Junk marks the start of the release tail; stop here.
			break
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}

func collapse(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
