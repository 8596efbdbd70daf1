package catalog

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable, versioned view of the catalog. A request works
// against exactly one snapshot for its whole lifetime, so a concurrent
// refresh never changes results mid-flight.
type Snapshot struct {
	version   string
	createdAt time.Time
	records   []*AssessmentRecord
	byID      map[string]*AssessmentRecord
}

// NewSnapshot builds a snapshot from the given records. Records are ordered
// by ascending ID so that every consumer sees the same deterministic order.
func NewSnapshot(records []*AssessmentRecord) *Snapshot {
	sorted := make([]*AssessmentRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[string]*AssessmentRecord, len(sorted))
	for _, r := range sorted {
		byID[r.ID] = r
	}

	return &Snapshot{
		version:   uuid.NewString(),
		createdAt: time.Now().UTC(),
		records:   sorted,
		byID:      byID,
	}
}

func (s *Snapshot) Version() string      { return s.version }
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }
func (s *Snapshot) Len() int             { return len(s.records) }

// Records returns all records in ascending ID order. Callers must not
// mutate the returned slice or its elements.
func (s *Snapshot) Records() []*AssessmentRecord { return s.records }

// Searchable returns the records eligible for ranking, in ascending ID order.
func (s *Snapshot) Searchable() []*AssessmentRecord {
	out := make([]*AssessmentRecord, 0, len(s.records))
	for _, r := range s.records {
		if r.Searchable() {
			out = append(out, r)
		}
	}
	return out
}

// Get returns the record with the given ID, or nil.
func (s *Snapshot) Get(id string) *AssessmentRecord { return s.byID[id] }

// Store holds the current catalog snapshot. Refreshes swap the snapshot
// atomically; in-flight requests keep using the snapshot they started with,
// so no locking is needed on the read path.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store holding an empty snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(NewSnapshot(nil))
	return s
}

// Snapshot returns the current catalog snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Swap publishes a new snapshot and returns the previous one.
func (s *Store) Swap(next *Snapshot) *Snapshot {
	return s.current.Swap(next)
}
