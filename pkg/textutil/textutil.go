package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// Closest returns the candidate most similar to name by Jaro-Winkler distance over the
// normalized names, or false if none reaches the threshold.
func Closest(name string, candidates []string, threshold float64) (string, bool) {
	normalized := NormalizeName(name)

	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		score := matchr.JaroWinkler(normalized, NormalizeName(c), false)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	if bestScore < threshold {
		return "", false
	}
	return best, true
}
