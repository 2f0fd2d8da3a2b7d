package analysis

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// splitPasses run in order; each pass splits every piece the previous one produced.
var splitPasses = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+and\s+`),
	regexp.MustCompile(`,\s*`),
	regexp.MustCompile(`;\s*`),
	regexp.MustCompile(`(?i)\s+then\s+`),
	regexp.MustCompile(`(?i)\s+also\s+`),
	regexp.MustCompile(`[•·▪◦‣⁃]`),
	regexp.MustCompile(`(?:^|\s+)\d+[.)]\s+`),
	regexp.MustCompile(`\s+[-–—]\s+`),
}

var (
	connectors   = map[string]bool{"and": true, "then": true, "also": true, "or": true}
	markerPrefix = regexp.MustCompile(`^[-*•\d.)\s]+`)
)

// SplitMultipleTodos breaks a compound entry such as "buy milk, walk dog"
// into separate task texts. Input that does not yield at least two
// candidates comes back unchanged apart from trimming.
func SplitMultipleTodos(text string) []string {
	trimmed := strings.TrimSpace(text)
	pieces := []string{trimmed}
	for _, re := range splitPasses {
		var next []string
		for _, p := range pieces {
			next = append(next, re.Split(p, -1)...)
		}
		pieces = next
	}

	var out []string
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if len(p) <= 2 || connectors[strings.ToLower(p)] {
			continue
		}
		p = strings.TrimSpace(markerPrefix.ReplaceAllString(p, ""))
		if p == "" {
			continue
		}
		out = append(out, capitalize(p))
	}

	if len(out) < 2 {
		return []string{trimmed}
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
