package filtering

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/talentsift/assessrec/internal/catalog"
)

func candidates() []*catalog.AssessmentRecord {
	return []*catalog.AssessmentRecord{
		{ID: "verify-numerical", TestType: catalog.TestTypeCognitive, DurationMinutes: 25, RemoteTesting: true, AdaptiveTesting: true},
		{ID: "verify-verbal", TestType: catalog.TestTypeCognitive, DurationMinutes: 90, RemoteTesting: true},
		{ID: "opq32", TestType: catalog.TestTypePersonality, DurationMinutes: catalog.DurationUntimed, RemoteTesting: true},
		{ID: "coding-java", TestType: catalog.TestTypeSkill, DurationMinutes: 60},
	}
}

func TestApplyNoFiltersKeepsEverything(t *testing.T) {
	records := candidates()

	kept, step := Filters{}.Apply(records)
	if len(kept) != len(records) {
		t.Fatalf("expected all %d records, got %d", len(records), len(kept))
	}
	if step.Dropped != 0 || step.Left != len(records) {
		t.Errorf("unexpected step counters: %+v", step)
	}
}

func TestApplyMaxDurationKeepsUntimed(t *testing.T) {
	f := Filters{MaxDurationMinutes: 60}

	kept, step := f.Apply(candidates())

	ids := idsOf(kept)
	want := []string{"verify-numerical", "opq32", "coding-java"}
	if !equalIDs(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
	if step.Dropped != 1 {
		t.Errorf("expected 1 dropped record, got %d", step.Dropped)
	}
}

func TestApplyMaxDurationExcludingUntimed(t *testing.T) {
	f := Filters{MaxDurationMinutes: 60, ExcludeUntimed: true}

	kept, _ := f.Apply(candidates())

	ids := idsOf(kept)
	want := []string{"verify-numerical", "coding-java"}
	if !equalIDs(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestApplyExcludeUntimedWithoutDurationCap(t *testing.T) {
	f := Filters{ExcludeUntimed: true}

	kept, _ := f.Apply(candidates())
	for _, r := range kept {
		if r.Untimed() {
			t.Errorf("untimed record %s kept", r.ID)
		}
	}
	if len(kept) != 3 {
		t.Errorf("expected 3 records, got %d", len(kept))
	}
}

func TestApplyConjunction(t *testing.T) {
	f := Filters{
		TestTypes:             []catalog.TestType{catalog.TestTypeCognitive, catalog.TestTypeSkill},
		MaxDurationMinutes:    30,
		RemoteTestingRequired: true,
	}

	kept, _ := f.Apply(candidates())

	ids := idsOf(kept)
	want := []string{"verify-numerical"}
	if !equalIDs(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestApplyAdaptiveRequired(t *testing.T) {
	kept, _ := Filters{AdaptiveTestingRequired: true}.Apply(candidates())

	if len(kept) != 1 || kept[0].ID != "verify-numerical" {
		t.Errorf("expected only the adaptive record, got %v", idsOf(kept))
	}
}

func TestApplyPreservesInputOrder(t *testing.T) {
	records := candidates()

	kept, _ := Filters{RemoteTestingRequired: true}.Apply(records)

	want := []string{"verify-numerical", "verify-verbal", "opq32"}
	if !equalIDs(idsOf(kept), want) {
		t.Errorf("filtering must preserve input order: got %v", idsOf(kept))
	}
}

func TestActive(t *testing.T) {
	if (Filters{}).Active() {
		t.Error("empty filters must be inactive")
	}
	if !(Filters{MaxDurationMinutes: 10}).Active() {
		t.Error("duration cap must mark filters active")
	}
	if !(Filters{ExcludeUntimed: true}).Active() {
		t.Error("untimed exclusion must mark filters active")
	}
}

func TestParseTestTypes(t *testing.T) {
	types, err := ParseTestTypes("Cognitive, skill")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(types) != 2 || types[0] != catalog.TestTypeCognitive || types[1] != catalog.TestTypeSkill {
		t.Errorf("unexpected types: %v", types)
	}

	if _, err := ParseTestTypes("Cognitive,bogus"); err == nil {
		t.Error("expected an error for an unknown test type")
	}

	types, err = ParseTestTypes("  ")
	if err != nil || types != nil {
		t.Errorf("blank input must parse to nil, got (%v, %v)", types, err)
	}
}

// TestMatchesConjunctionProperty checks Matches against an independently
// composed predicate over randomly generated record/filter pairs: a record
// passes exactly when every active condition passes on its own.
func TestMatchesConjunctionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	allTypes := []catalog.TestType{
		catalog.TestTypeCognitive,
		catalog.TestTypePersonality,
		catalog.TestTypeSkill,
		catalog.TestTypeSituational,
	}

	randomRecord := func() *catalog.AssessmentRecord {
		duration := rng.Intn(121)
		if rng.Intn(4) == 0 {
			duration = catalog.DurationUntimed
		}
		return &catalog.AssessmentRecord{
			ID:              fmt.Sprintf("rec-%04d", rng.Intn(10000)),
			TestType:        allTypes[rng.Intn(len(allTypes))],
			DurationMinutes: duration,
			RemoteTesting:   rng.Intn(2) == 0,
			AdaptiveTesting: rng.Intn(2) == 0,
		}
	}

	randomFilters := func() Filters {
		var f Filters
		for _, tt := range allTypes {
			if rng.Intn(3) == 0 {
				f.TestTypes = append(f.TestTypes, tt)
			}
		}
		if rng.Intn(2) == 0 {
			f.MaxDurationMinutes = 1 + rng.Intn(120)
		}
		f.ExcludeUntimed = rng.Intn(2) == 0
		f.RemoteTestingRequired = rng.Intn(2) == 0
		f.AdaptiveTestingRequired = rng.Intn(2) == 0
		return f
	}

	typeOK := func(f Filters, r *catalog.AssessmentRecord) bool {
		if len(f.TestTypes) == 0 {
			return true
		}
		for _, tt := range f.TestTypes {
			if r.TestType == tt {
				return true
			}
		}
		return false
	}
	durationOK := func(f Filters, r *catalog.AssessmentRecord) bool {
		if r.Untimed() {
			return !f.ExcludeUntimed
		}
		return f.MaxDurationMinutes == 0 || r.DurationMinutes <= f.MaxDurationMinutes
	}
	remoteOK := func(f Filters, r *catalog.AssessmentRecord) bool {
		return !f.RemoteTestingRequired || r.RemoteTesting
	}
	adaptiveOK := func(f Filters, r *catalog.AssessmentRecord) bool {
		return !f.AdaptiveTestingRequired || r.AdaptiveTesting
	}

	for i := 0; i < 2000; i++ {
		f := randomFilters()
		r := randomRecord()

		want := typeOK(f, r) && durationOK(f, r) && remoteOK(f, r) && adaptiveOK(f, r)
		if got := f.Matches(r); got != want {
			t.Fatalf("iteration %d: Matches = %v, reference = %v\nfilters: %+v\nrecord: %+v", i, got, want, f, r)
		}
	}
}

func idsOf(records []*catalog.AssessmentRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
