package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"starscope/internal/utils"
)

const analysesSchema = `
CREATE TABLE IF NOT EXISTS analyses (
	id                   TEXT PRIMARY KEY,
	repository_full_name TEXT NOT NULL,
	repository_url       TEXT NOT NULL DEFAULT '',
	analysis             TEXT NOT NULL,
	model                TEXT NOT NULL,
	provider             TEXT NOT NULL,
	token_count          INTEGER NOT NULL DEFAULT 0,
	cost                 DOUBLE PRECISION NOT NULL DEFAULT 0,
	timestamp            BIGINT NOT NULL,
	version              INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_repository ON analyses (repository_full_name);
CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses (timestamp);
`

// PostgresStore keeps records in a single analyses table with the same
// two logical indexes the other backends maintain.
type PostgresStore struct {
	db     *sqlx.DB
	logger *utils.Logger
}

// OpenPostgres connects and prepares the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store := NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, logger: utils.NewLogger("cache")}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, analysesSchema); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, record Record) (Record, error) {
	record = stamp(record)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const insert = `
		INSERT INTO analyses (id, repository_full_name, repository_url, analysis,
			model, provider, token_count, cost, timestamp, version)
		VALUES (:id, :repository_full_name, :repository_url, :analysis,
			:model, :provider, :token_count, :cost, :timestamp, :version)
		ON CONFLICT (id) DO UPDATE SET
			analysis = EXCLUDED.analysis,
			model = EXCLUDED.model,
			provider = EXCLUDED.provider,
			token_count = EXCLUDED.token_count,
			cost = EXCLUDED.cost,
			version = EXCLUDED.version`
	if _, err := tx.NamedExecContext(ctx, insert, record); err != nil {
		return Record{}, fmt.Errorf("failed to insert record: %w", err)
	}

	const evict = `
		DELETE FROM analyses WHERE id IN (
			SELECT id FROM analyses ORDER BY timestamp DESC, id DESC OFFSET $1
		)`
	if _, err := tx.ExecContext(ctx, evict, MaxRecords); err != nil {
		return Record{}, fmt.Errorf("failed to evict old records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("failed to commit: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) GetLatest(ctx context.Context, repositoryFullName string) (*Record, error) {
	const query = `
		SELECT * FROM analyses
		WHERE repository_full_name = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`

	var record Record
	err := s.db.GetContext(ctx, &record, query, repositoryFullName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch record: %w", err)
	}
	return &record, nil
}

func (s *PostgresStore) GetAll(ctx context.Context) ([]Record, error) {
	records := []Record{}
	const query = `SELECT * FROM analyses ORDER BY timestamp DESC, id DESC`
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analyses`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	const query = `
		SELECT COUNT(*) AS count,
			COALESCE(SUM(token_count), 0) AS total_tokens,
			COALESCE(SUM(cost), 0) AS total_cost,
			COALESCE(MIN(timestamp), 0) AS oldest_timestamp,
			COALESCE(MAX(timestamp), 0) AS newest_timestamp
		FROM analyses`

	var stats Stats
	row := s.db.QueryRowxContext(ctx, query)
	if err := row.Scan(&stats.Count, &stats.TotalTokens, &stats.TotalCost,
		&stats.OldestTimestamp, &stats.NewestTimestamp); err != nil {
		return Stats{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
