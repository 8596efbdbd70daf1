package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"

	"github.com/talentsift/assessrec/internal/catalog"
)

// seedRecord mirrors the loosely-typed JSON export format the catalog has
// historically been distributed in. Fields use the source's string
// conventions ("Yes"/"No", "30 minutes") and are normalized on load.
type seedRecord struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	URL             string `json:"url"`
	Description     string `json:"description"`
	TestType        string `json:"test_type"`
	Duration        string `json:"duration"`
	RemoteTesting   string `json:"remote_testing"`
	AdaptiveSupport string `json:"adaptive_support"`
}

// LoadSeedFile reads assessment records from a JSON seed file.
func LoadSeedFile(path string) ([]*catalog.AssessmentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	var seeds []seedRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &seeds,
		TagName: "json",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode seed records: %w", err)
	}

	records := make([]*catalog.AssessmentRecord, 0, len(seeds))
	for _, s := range seeds {
		rec, err := normalizeSeed(s)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func normalizeSeed(s seedRecord) (*catalog.AssessmentRecord, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("seed record without a name")
	}

	id := s.ID
	if id == "" {
		id = Slugify(s.Name)
	}

	testType := catalog.ParseTestType(s.TestType)
	if testType == catalog.TestTypeUnknown {
		testType = catalog.InferTestType(s.Name + " " + s.Description)
	}

	return &catalog.AssessmentRecord{
		ID:              id,
		Name:            s.Name,
		URL:             s.URL,
		Description:     s.Description,
		TestType:        testType,
		DurationMinutes: ParseDuration(s.Duration),
		RemoteTesting:   ParseYesNo(s.RemoteTesting),
		AdaptiveTesting: ParseYesNo(s.AdaptiveSupport),
	}, nil
}
