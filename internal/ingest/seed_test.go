package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/talentsift/assessrec/internal/catalog"
)

const seedJSON = `[
  {
    "id": "verify-numerical",
    "name": "Verify Numerical Reasoning",
    "url": "https://example.com/verify-numerical",
    "description": "Measures numerical reasoning ability.",
    "test_type": "Cognitive",
    "duration": "25 minutes",
    "remote_testing": "Yes",
    "adaptive_support": "Yes"
  },
  {
    "name": "OPQ32 Personality Questionnaire",
    "description": "Workplace personality and preference profile.",
    "duration": "Varies",
    "remote_testing": "Yes",
    "adaptive_support": "No"
  }
]`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing seed file: %v", err)
	}
	return path
}

func TestLoadSeedFile(t *testing.T) {
	records, err := LoadSeedFile(writeSeed(t, seedJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	verify := records[0]
	if verify.ID != "verify-numerical" || verify.TestType != catalog.TestTypeCognitive {
		t.Errorf("unexpected first record: %+v", verify)
	}
	if verify.DurationMinutes != 25 || !verify.RemoteTesting || !verify.AdaptiveTesting {
		t.Errorf("normalization failed: %+v", verify)
	}

	opq := records[1]
	if opq.ID != "opq32-personality-questionnaire" {
		t.Errorf("missing id must be derived from the name, got %q", opq.ID)
	}
	if opq.TestType != catalog.TestTypePersonality {
		t.Errorf("test type must be inferred from text, got %q", opq.TestType)
	}
	if !opq.Untimed() {
		t.Errorf("'Varies' must map to the untimed sentinel, got %d", opq.DurationMinutes)
	}
	if opq.AdaptiveTesting {
		t.Error("adaptive_support No must map to false")
	}
}

func TestLoadSeedFileRejectsNamelessRecords(t *testing.T) {
	if _, err := LoadSeedFile(writeSeed(t, `[{"description": "anonymous"}]`)); err == nil {
		t.Fatal("expected an error for a record without a name")
	}
}

func TestLoadSeedFileRejectsBadJSON(t *testing.T) {
	if _, err := LoadSeedFile(writeSeed(t, `{"not": "a list"}`)); err == nil {
		t.Fatal("expected an error for non-array json")
	}
}

func TestLoadSeedFileMissingFile(t *testing.T) {
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
