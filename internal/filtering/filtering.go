// Package filtering evaluates structural predicates over catalog records.
// Filters are parsed into a typed value once at the boundary and applied as
// a pure conjunctive predicate, independent of semantic score.
package filtering

import (
	"fmt"
	"strings"

	"github.com/talentsift/assessrec/internal/catalog"
)

// Filters is the validated, immutable filter configuration for one request.
// All active filters combine with AND.
type Filters struct {
	// TestTypes restricts results to the given types. Empty means no
	// restriction.
	TestTypes []catalog.TestType

	// MaxDurationMinutes caps assessment duration. Zero means unset.
	// Untimed assessments always pass unless ExcludeUntimed is set.
	MaxDurationMinutes int

	// ExcludeUntimed drops untimed assessments from duration filtering.
	ExcludeUntimed bool

	// RemoteTestingRequired keeps only records supporting remote delivery.
	RemoteTestingRequired bool

	// AdaptiveTestingRequired keeps only adaptive (IRT) assessments.
	AdaptiveTestingRequired bool
}

// Step describes the outcome of applying filters to a candidate set.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Active reports whether any filter is set.
func (f Filters) Active() bool {
	return len(f.TestTypes) > 0 || f.MaxDurationMinutes > 0 ||
		f.ExcludeUntimed || f.RemoteTestingRequired || f.AdaptiveTestingRequired
}

// Matches reports whether the record satisfies every active filter.
func (f Filters) Matches(r *catalog.AssessmentRecord) bool {
	if len(f.TestTypes) > 0 && !containsType(f.TestTypes, r.TestType) {
		return false
	}

	if f.MaxDurationMinutes > 0 {
		if r.Untimed() {
			if f.ExcludeUntimed {
				return false
			}
		} else if r.DurationMinutes > f.MaxDurationMinutes {
			return false
		}
	} else if f.ExcludeUntimed && r.Untimed() {
		return false
	}

	if f.RemoteTestingRequired && !r.RemoteTesting {
		return false
	}

	if f.AdaptiveTestingRequired && !r.AdaptiveTesting {
		return false
	}

	return true
}

// Apply returns the records passing every active filter, preserving input
// order, together with drop counters for logging.
func (f Filters) Apply(records []*catalog.AssessmentRecord) ([]*catalog.AssessmentRecord, Step) {
	initial := len(records)

	if !f.Active() {
		return records, Step{Initial: initial, Left: initial}
	}

	kept := make([]*catalog.AssessmentRecord, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			kept = append(kept, r)
		}
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}

// ParseTestTypes parses a comma-separated test type list ("Cognitive,Skill")
// into typed values, rejecting unrecognized names.
func ParseTestTypes(csv string) ([]catalog.TestType, error) {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return nil, nil
	}

	var types []catalog.TestType
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t := catalog.ParseTestType(part)
		if t == catalog.TestTypeUnknown {
			return nil, fmt.Errorf("unknown test type: %q", part)
		}
		types = append(types, t)
	}

	return types, nil
}

func containsType(types []catalog.TestType, t catalog.TestType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
