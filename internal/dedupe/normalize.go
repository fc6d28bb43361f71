package dedupe

import (
	"regexp"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/cases"
)

var (
	punctPattern = regexp.MustCompile(`[^\pL\pN\s]+`)
	spacePattern = regexp.MustCompile(`\s+`)
)

var leadingArticles = []string{"the ", "a ", "an "}

// NormalizeTitle reduces a parsed title to a comparison key: case-folded,
// punctuation stripped, whitespace collapsed, leading article removed.
func NormalizeTitle(title string) string {
	folded := cases.Fold().String(title)
	folded = punctPattern.ReplaceAllString(folded, " ")
	folded = strings.TrimSpace(spacePattern.ReplaceAllString(folded, " "))
	for _, article := range leadingArticles {
		if strings.HasPrefix(folded, article) && len(folded) > len(article) {
			folded = folded[len(article):]
			break
		}
	}
	return folded
}

// TokenSortRatio scores the similarity of two normalized titles in [0,1].
// Tokens are sorted before comparison so word order does not matter.
func TokenSortRatio(a, b string) float64 {
	sa := sortTokens(a)
	sb := sortTokens(b)
	if sa == sb {
		return 1
	}
	longest := len(sa)
	if len(sb) > longest {
		longest = len(sb)
	}
	if longest == 0 {
		return 0
	}
	distance := matchr.Levenshtein(sa, sb)
	return 1 - float64(distance)/float64(longest)
}

func sortTokens(value string) string {
	tokens := strings.Fields(value)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
