package record

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore keeps verification history in a slice. Append-only by
// construction; list operations copy so callers never alias internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.nextID++
	s.records = append(s.records, r)
	return nil
}

func (s *InMemoryStore) ListByAddressExcluding(_ context.Context, address string, excludePrincipalID int64, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if r.Address == address && r.PrincipalID != excludePrincipalID {
			out = append(out, r)
		}
	}
	return sortAndCap(out, limit), nil
}

func (s *InMemoryStore) ListByAddress(_ context.Context, address string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if r.Address == address {
			out = append(out, r)
		}
	}
	return sortAndCap(out, limit), nil
}

func sortAndCap(records []Record, limit int) []Record {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}
