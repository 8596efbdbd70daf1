// Package textnorm turns arbitrary query input into a canonical string
// suitable for embedding. Cleaning is a pure function: same input, same
// canonical text.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	// MaxQueryChars bounds embedding cost. Input beyond the budget is cut
	// at a whitespace boundary, never inside a token.
	MaxQueryChars = 8000

	// MinQueryChars is the minimum usable canonical length. Anything
	// shorter is treated as degenerate input by the orchestrator.
	MinQueryChars = 20
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Normalize cleans and truncates raw input into canonical query text.
func Normalize(raw string) string {
	return Truncate(Clean(raw), MaxQueryChars)
}

// Usable reports whether canonical text is long enough to embed.
func Usable(canonical string) bool {
	return len([]rune(canonical)) >= MinQueryChars
}

// Clean strips markup and control characters and collapses whitespace.
func Clean(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, " ", " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Truncate shortens s to at most limit runes, cutting at the last whitespace
// boundary before the limit so no token is split.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		// single token longer than the whole budget; keep the hard limit
		cut = limit
	}

	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
}

// Patterns like "within 30 minutes", "under 45 min", "no more than 60".
var durationHintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*min`),
	regexp.MustCompile(`(?i)(\d+)\s*minute`),
	regexp.MustCompile(`(?i)less than\s*(\d+)`),
	regexp.MustCompile(`(?i)within\s*(\d+)`),
	regexp.MustCompile(`(?i)under\s*(\d+)`),
	regexp.MustCompile(`(?i)max.*?(\d+)\s*min`),
	regexp.MustCompile(`(?i)maximum.*?(\d+)\s*min`),
	regexp.MustCompile(`(?i)no more than\s*(\d+)`),
}

// MaxDurationHint extracts an implicit time constraint from query text
// ("complete within 30 minutes"). Returns false when the text states none.
func MaxDurationHint(s string) (int, bool) {
	for _, p := range durationHintPatterns {
		m := p.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		minutes, err := strconv.Atoi(m[1])
		if err != nil || minutes <= 0 {
			continue
		}
		return minutes, true
	}
	return 0, false
}
