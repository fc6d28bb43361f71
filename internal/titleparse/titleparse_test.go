package titleparse

import (
	"testing"

	"mediavault/internal/media"
)

func TestParseLibraryStyleNames(t *testing.T) {
	tests := []struct {
		path    string
		title   string
		year    int
		season  int
		episode int
		mtype   media.Type
	}{
		{"/media/movies/Blade Runner (1982).mkv", "Blade Runner", 1982, 0, 0, media.TypeMovie},
		{"/media/movies/2001 A Space Odyssey (1968).mp4", "2001 A Space Odyssey", 1968, 0, 0, media.TypeMovie},
		{"/media/tv/Severance - S02E05.mkv", "Severance", 0, 2, 5, media.TypeTV},
		{"/media/tv/The Wire - S01E01.avi", "The Wire", 0, 1, 1, media.TypeTV},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := Parse(tt.path)
			if got.Title != tt.title {
				t.Errorf("title = %q, want %q", got.Title, tt.title)
			}
			if got.Year != tt.year {
				t.Errorf("year = %d, want %d", got.Year, tt.year)
			}
			if got.Season != tt.season || got.Episode != tt.episode {
				t.Errorf("episode = S%dE%d, want S%dE%d", got.Season, got.Episode, tt.season, tt.episode)
			}
			if got.MediaType != tt.mtype {
				t.Errorf("type = %q, want %q", got.MediaType, tt.mtype)
			}
		})
	}
}

func TestParseSceneNames(t *testing.T) {
	tests := []struct {
		path    string
		title   string
		year    int
		season  int
		episode int
		group   string
		mtype   media.Type
	}{
		{
			path:  "/dl/The.Matrix.1999.1080p.BluRay.x264-SPARKS.mkv",
			title: "The Matrix", year: 1999, group: "SPARKS", mtype: media.TypeMovie,
		},
		{
			path:  "/dl/Dune.Part.Two.2024.2160p.WEB-DL.HDR.HEVC.mkv",
			title: "Dune Part Two", year: 2024, mtype: media.TypeMovie,
		},
		{
			path:  "/dl/severance.s01e03.720p.webrip.x265-GGEZ.mkv",
			title: "severance", season: 1, episode: 3, group: "GGEZ", mtype: media.TypeTV,
		},
		{
			path:  "/dl/Breaking.Bad.1x07.HDTV.mkv",
			title: "Breaking Bad", season: 1, episode: 7, mtype: media.TypeTV,
		},
		{
			path:  "/dl/Some.Movie.2020.REPACK.mkv",
			title: "Some Movie", year: 2020, mtype: media.TypeMovie,
		},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := Parse(tt.path)
			if got.Title != tt.title {
				t.Errorf("title = %q, want %q", got.Title, tt.title)
			}
			if got.Year != tt.year {
				t.Errorf("year = %d, want %d", got.Year, tt.year)
			}
			if got.Season != tt.season || got.Episode != tt.episode {
				t.Errorf("episode = S%dE%d, want S%dE%d", got.Season, got.Episode, tt.season, tt.episode)
			}
			if got.ReleaseGroup != tt.group {
				t.Errorf("group = %q, want %q", got.ReleaseGroup, tt.group)
			}
			if got.MediaType != tt.mtype {
				t.Errorf("type = %q, want %q", got.MediaType, tt.mtype)
			}
		})
	}
}

func TestParseBracketedJunkStripped(t *testing.T) {
	got := Parse("/dl/Akira [1988] [Criterion] {tmdb-149}.mkv")
	if got.Title != "Akira" {
		t.Errorf("title = %q, want Akira", got.Title)
	}
	if got.Year != 1988 {
		t.Errorf("year = %d, want 1988", got.Year)
	}
}

func TestParseUnrecognizedFallsBack(t *testing.T) {
	got := Parse("/dl/home_video_clip.mkv")
	if got.MediaType != media.TypeUnknown {
		t.Errorf("type = %q, want unknown", got.MediaType)
	}
	if got.Title == "" {
		t.Error("expected non-empty fallback title")
	}
}

func TestParseGarbageTokenIsNotReleaseGroup(t *testing.T) {
	got := Parse("/dl/Old.Film.1950.DVDRip-XviD.avi")
	if got.ReleaseGroup != "" {
		t.Errorf("expected no release group, got %q", got.ReleaseGroup)
	}
	if got.Year != 1950 {
		t.Errorf("year = %d, want 1950", got.Year)
	}
}

func TestEpisodicHelper(t *testing.T) {
	parsed := Parse("/media/tv/Show - S03E09.mkv")
	if !parsed.Episodic() {
		t.Fatal("expected episodic")
	}
	movie := Parse("/media/movies/Heat (1995).mkv")
	if movie.Episodic() {
		t.Fatal("movie should not be episodic")
	}
}
