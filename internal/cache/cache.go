// Package cache stores completed analyses so repeat lookups cost nothing.
// The cache holds at most MaxRecords entries globally; every save evicts
// the oldest entries beyond the ceiling, regardless of repository.
package cache

import (
	"context"
	"fmt"
	"time"

	"starscope/internal/registry"
)

const (
	// SchemaVersion is stamped on every record for forward invalidation.
	SchemaVersion = 1

	// MaxRecords is the global ceiling across all repositories.
	MaxRecords = 50

	// staleAfter is the age beyond which a cached analysis is worth
	// refreshing. Stale records are still returned.
	staleAfter = 7 * 24 * time.Hour
)

// Record is one cached analysis.
type Record struct {
	ID                 string      `json:"id" db:"id"`
	RepositoryFullName string      `json:"repository_full_name" db:"repository_full_name"`
	RepositoryURL      string      `json:"repository_url" db:"repository_url"`
	Analysis           string      `json:"analysis" db:"analysis"`
	Model              string      `json:"model" db:"model"`
	Provider           registry.ID `json:"provider" db:"provider"`
	TokenCount         int         `json:"token_count" db:"token_count"`
	Cost               float64     `json:"cost" db:"cost"`
	Timestamp          int64       `json:"timestamp" db:"timestamp"` // unix milliseconds
	Version            int         `json:"version" db:"version"`
}

// IsStale reports whether the record is old enough that a caller should
// consider re-running the analysis.
func (r Record) IsStale() bool {
	age := time.Since(time.UnixMilli(r.Timestamp))
	return age > staleAfter
}

// Stats summarizes cache contents. Timestamps are zero when the cache is
// empty.
type Stats struct {
	Count           int     `json:"count"`
	TotalTokens     int     `json:"total_tokens"`
	TotalCost       float64 `json:"total_cost"`
	OldestTimestamp int64   `json:"oldest_timestamp"`
	NewestTimestamp int64   `json:"newest_timestamp"`
}

// Store is the cache contract shared by the memory, Redis and Postgres
// backends. GetLatest returns (nil, nil) on a miss: absence is a normal
// outcome, not an error.
type Store interface {
	// Save persists the record, assigning its id, timestamp and schema
	// version, and enforces the global ceiling. The stored record is
	// returned.
	Save(ctx context.Context, record Record) (Record, error)
	// GetLatest returns the most recent record for a repository.
	GetLatest(ctx context.Context, repositoryFullName string) (*Record, error)
	// GetAll returns every record, newest first.
	GetAll(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// stamp fills in the synthetic id, timestamp and schema version ahead of
// a save. Records arriving with a timestamp keep it.
func stamp(record Record) Record {
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().UnixMilli()
	}
	record.ID = fmt.Sprintf("%s_%d", record.RepositoryFullName, record.Timestamp)
	record.Version = SchemaVersion
	return record
}
