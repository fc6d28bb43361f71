package dedupe

import "testing"

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "AKIRA", "akira"},
		{"strips punctuation", "Blade Runner: The Final Cut", "blade runner the final cut"},
		{"drops leading the", "The Matrix", "matrix"},
		{"drops leading a", "A Quiet Place", "quiet place"},
		{"drops leading an", "An American Tail", "american tail"},
		{"article alone survives", "The", "the"},
		{"collapses whitespace", "  Spirited   Away ", "spirited away"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeTitle(tc.in); got != tc.want {
				t.Fatalf("NormalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTokenSortRatio(t *testing.T) {
	if got := TokenSortRatio("blade runner", "blade runner"); got != 1 {
		t.Fatalf("identical titles scored %v, want 1", got)
	}
	if got := TokenSortRatio("runner blade", "blade runner"); got != 1 {
		t.Fatalf("reordered tokens scored %v, want 1", got)
	}
	if got := TokenSortRatio("blade runner", "blade runer"); got < 0.9 {
		t.Fatalf("near match scored %v, want >= 0.9", got)
	}
	if got := TokenSortRatio("matrix", "inception"); got >= 0.5 {
		t.Fatalf("dissimilar titles scored %v, want < 0.5", got)
	}
	if got := TokenSortRatio("", "matrix"); got != 0 {
		t.Fatalf("empty title scored %v, want 0", got)
	}
}
