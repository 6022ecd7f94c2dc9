package cache

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory. It is the default backend
// and the reference for the others' behavior.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Save(_ context.Context, record Record) (Record, error) {
	record = stamp(record)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = record
	s.evictLocked()
	return record, nil
}

func (s *MemoryStore) GetLatest(_ context.Context, repositoryFullName string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Record
	for _, record := range s.records {
		if record.RepositoryFullName != repositoryFullName {
			continue
		}
		if latest == nil || record.Timestamp > latest.Timestamp {
			r := record
			latest = &r
		}
	}
	return latest, nil
}

func (s *MemoryStore) GetAll(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Record)
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Count: len(s.records)}
	for _, record := range s.records {
		stats.TotalTokens += record.TokenCount
		stats.TotalCost += record.Cost
		if stats.OldestTimestamp == 0 || record.Timestamp < stats.OldestTimestamp {
			stats.OldestTimestamp = record.Timestamp
		}
		if record.Timestamp > stats.NewestTimestamp {
			stats.NewestTimestamp = record.Timestamp
		}
	}
	return stats, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// sortedLocked returns all records newest first. Caller holds the lock.
func (s *MemoryStore) sortedLocked() []Record {
	out := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// evictLocked drops the oldest records beyond the ceiling. Caller holds
// the lock.
func (s *MemoryStore) evictLocked() {
	if len(s.records) <= MaxRecords {
		return
	}
	all := s.sortedLocked()
	for _, record := range all[MaxRecords:] {
		delete(s.records, record.ID)
	}
}
