package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/talentsift/assessrec/internal/catalog"
)

var (
	hourPattern   = regexp.MustCompile(`(?i)(\d+)\s*hour`)
	minutePattern = regexp.MustCompile(`(\d+)`)
	slugPattern   = regexp.MustCompile(`[^a-z0-9]+`)
)

// ParseDuration turns a catalog duration label ("30 minutes", "1 hour",
// "Varies") into minutes. Labels without a number become the untimed
// sentinel.
func ParseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return catalog.DurationUntimed
	}

	if m := hourPattern.FindStringSubmatch(s); m != nil {
		hours, err := strconv.Atoi(m[1])
		if err == nil && hours >= 0 {
			return hours * 60
		}
	}

	if m := minutePattern.FindStringSubmatch(s); m != nil {
		minutes, err := strconv.Atoi(m[1])
		if err == nil && minutes >= 0 {
			return minutes
		}
	}

	return catalog.DurationUntimed
}

// ParseYesNo interprets catalog yes/no markers.
func ParseYesNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	default:
		return false
	}
}

// Slugify derives a stable catalog key from an assessment name.
// ("Verify G+ Cognitive Test" -> "verify-g-cognitive-test")
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}
