package scenario

import (
	"regexp"
	"strings"
)

// compilePatterns turns user-entered matcher strings into case-insensitive
// regexes. Blank entries and patterns that fail to compile are dropped rather
// than failing the whole scenario; if nothing survives, fallback is used.
func compilePatterns(patterns []string, fallback []*regexp.Regexp) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + trimmed)
		if err != nil {
			continue
		}
		compiled = append(compiled, re)
	}
	if len(compiled) == 0 {
		return fallback
	}
	return compiled
}

func anyMatch(patterns []*regexp.Regexp, name string) bool {
	for _, re := range patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

var defaultRentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)rent`),
	regexp.MustCompile(`(?i)lease`),
}
