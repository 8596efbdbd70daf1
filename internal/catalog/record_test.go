package catalog

import "testing"

func TestParseTestType(t *testing.T) {
	cases := []struct {
		in   string
		want TestType
	}{
		{"Cognitive", TestTypeCognitive},
		{" personality ", TestTypePersonality},
		{"SKILL", TestTypeSkill},
		{"situational judgment", TestTypeSituational},
		{"situational-judgment", TestTypeSituational},
		{"something else", TestTypeUnknown},
		{"", TestTypeUnknown},
	}

	for _, tc := range cases {
		if got := ParseTestType(tc.in); got != tc.want {
			t.Errorf("ParseTestType(%q) = %q, expected %q", tc.in, got, tc.want)
		}
	}
}

func TestInferTestType(t *testing.T) {
	cases := []struct {
		in   string
		want TestType
	}{
		{"Measures numerical reasoning ability", TestTypeCognitive},
		{"Workplace personality and preference profile", TestTypePersonality},
		{"Hands-on coding exercise in Python", TestTypeSkill},
		{"Workplace scenario judgment exercise", TestTypeSituational},
		{"An assessment", TestTypeUnknown},
	}

	for _, tc := range cases {
		if got := InferTestType(tc.in); got != tc.want {
			t.Errorf("InferTestType(%q) = %q, expected %q", tc.in, got, tc.want)
		}
	}
}

func TestRecordHelpers(t *testing.T) {
	timed := &AssessmentRecord{ID: "a", DurationMinutes: 30, Embedding: []float32{1}, EmbeddingStatus: EmbeddingStatusReady}
	untimed := &AssessmentRecord{ID: "b", DurationMinutes: DurationUntimed, EmbeddingStatus: EmbeddingStatusFailed}

	if timed.Untimed() {
		t.Error("record with a fixed duration reported as untimed")
	}
	if !untimed.Untimed() {
		t.Error("untimed record not reported as untimed")
	}
	if !timed.Searchable() {
		t.Error("ready record with embedding must be searchable")
	}
	if untimed.Searchable() {
		t.Error("failed record must not be searchable")
	}
}

func TestEmbeddingText(t *testing.T) {
	r := &AssessmentRecord{Name: "Verify Numerical", Description: "Numerical reasoning under time pressure."}
	want := "Verify Numerical Numerical reasoning under time pressure."
	if got := r.EmbeddingText(); got != want {
		t.Errorf("EmbeddingText() = %q, expected %q", got, want)
	}

	empty := &AssessmentRecord{Name: "Bare"}
	if got := empty.EmbeddingText(); got != "Bare" {
		t.Errorf("EmbeddingText() without description = %q", got)
	}
}
