package catalog

import "strings"

// DurationUntimed marks assessments without a fixed time limit. Untimed
// assessments stay eligible for any max-duration filter unless the caller
// excludes them explicitly.
const DurationUntimed = -1

// TestType is the fixed classification of an assessment.
type TestType string

const (
	TestTypeCognitive   TestType = "Cognitive"
	TestTypePersonality TestType = "Personality"
	TestTypeSkill       TestType = "Skill"
	TestTypeSituational TestType = "Situational Judgment"
	TestTypeUnknown     TestType = "Unknown"
)

// EmbeddingStatus tracks whether a record carries a usable embedding.
type EmbeddingStatus string

const (
	EmbeddingStatusReady  EmbeddingStatus = "READY"
	EmbeddingStatusFailed EmbeddingStatus = "FAILED"
)

// AssessmentRecord is a single catalog entry. Records are immutable once
// ingested; the in-memory snapshot and all request handlers treat them as
// read-only.
type AssessmentRecord struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	URL             string          `json:"url,omitempty"`
	Description     string          `json:"description,omitempty"`
	TestType        TestType        `json:"test_type"`
	DurationMinutes int             `json:"duration_minutes"`
	RemoteTesting   bool            `json:"remote_testing"`
	AdaptiveTesting bool            `json:"adaptive_testing"`
	Embedding       []float32       `json:"-"`
	EmbeddingStatus EmbeddingStatus `json:"-"`
}

// Untimed reports whether the assessment has no fixed duration.
func (r *AssessmentRecord) Untimed() bool {
	return r.DurationMinutes == DurationUntimed
}

// Searchable reports whether the record may participate in ranking. Records
// whose embedding computation failed are kept for observability but never
// ranked.
func (r *AssessmentRecord) Searchable() bool {
	return r.EmbeddingStatus == EmbeddingStatusReady && len(r.Embedding) > 0
}

// EmbeddingText is the text representation sent to the embedding provider.
// Name and description together carry the semantic content of a record.
func (r *AssessmentRecord) EmbeddingText() string {
	return strings.TrimSpace(r.Name + " " + r.Description)
}

// ParseTestType maps a free-form test type label to the fixed enumeration.
func ParseTestType(s string) TestType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cognitive":
		return TestTypeCognitive
	case "personality":
		return TestTypePersonality
	case "skill":
		return TestTypeSkill
	case "situational judgment", "situational-judgment", "situational":
		return TestTypeSituational
	default:
		return TestTypeUnknown
	}
}

// InferTestType guesses the test type from descriptive text when the source
// data does not state one.
func InferTestType(text string) TestType {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "cognitive", "reasoning", "intelligence", "aptitude"):
		return TestTypeCognitive
	case containsAny(lower, "personality", "behavior", "behaviour", "preference"):
		return TestTypePersonality
	case containsAny(lower, "skill", "coding", "technical", "programming"):
		return TestTypeSkill
	case containsAny(lower, "situation", "judgment", "judgement", "scenario"):
		return TestTypeSituational
	default:
		return TestTypeUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
