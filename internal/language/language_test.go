package language

import (
	"reflect"
	"testing"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"xx", "xx"},
		{"eng", "en"},
		{"fra", "fr"},
		{"fre", "fr"},
		{"deu", "de"},
		{"ger", "de"},
		{"zho", "zh"},
		{"chi", "zh"},
		{"english", "en"},
		{"Japanese", "ja"},
		{"und", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestToISO3(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "eng"},
		{"fr", "fra"},
		{"fre", "fra"},
		{"qqq", "qqq"},
		{"", "und"},
		{"zz", "und"},
	}
	for _, tt := range tests {
		if got := ToISO3(tt.input); got != tt.expected {
			t.Errorf("ToISO3(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestIsEnglish(t *testing.T) {
	for _, code := range []string{"en", "EN", "eng", "english"} {
		if !IsEnglish(code) {
			t.Errorf("IsEnglish(%q) = false, want true", code)
		}
	}
	for _, code := range []string{"", "fr", "fra", "und"} {
		if IsEnglish(code) {
			t.Errorf("IsEnglish(%q) = true, want false", code)
		}
	}
}

func TestExtractFromTags(t *testing.T) {
	tests := []struct {
		name     string
		tags     map[string]string
		expected string
	}{
		{"nil tags", nil, ""},
		{"lowercase key", map[string]string{"language": "eng"}, "eng"},
		{"uppercase key", map[string]string{"LANGUAGE": "FRA"}, "fra"},
		{"ietf key", map[string]string{"language_ietf": "en-US"}, "en-us"},
		{"whitespace stripped", map[string]string{"language": "eng "}, "eng"},
		{"nul padding stripped", map[string]string{"language": "eng\u0000\u0000"}, "eng"},
		{"nul-only value skipped", map[string]string{"language": "\u0000"}, ""},
		{"no language keys", map[string]string{"title": "Director Commentary"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractFromTags(tt.tags); got != tt.expected {
				t.Errorf("ExtractFromTags() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"empty", nil, nil},
		{"dedupes mixed forms", []string{"eng", "en", "EN"}, []string{"en"}},
		{"preserves order", []string{"jpn", "eng", "fre"}, []string{"ja", "en", "fr"}},
		{"keeps unknown long codes", []string{"tlh"}, []string{"tlh"}},
		{"skips blanks", []string{"", "  ", "eng"}, []string{"en"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeList(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("NormalizeList(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
