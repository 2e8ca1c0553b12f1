package textutil

import (
	"regexp"
	"strings"
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

var whitespaceRuns = regexp.MustCompile(`\s\s+`)

// CollapseRuns replaces every run of two or more whitespace characters
// with a single newline.
func CollapseRuns(s string) string {
	return whitespaceRuns.ReplaceAllString(s, "\n")
}

var wordChars = regexp.MustCompile(`[\-_0-9A-Za-z]`)

// FilterBlankLines drops lines that contain no word characters.
func FilterBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if wordChars.MatchString(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
