package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"starscope/internal/utils"
)

// RedisStore keeps records in Redis: the record body as a JSON string, a
// global sorted set scored by timestamp for eviction and newest-first
// listing, and one sorted set per repository for latest-lookup.
type RedisStore struct {
	client *redis.Client
	logger *utils.Logger
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "starscope:analyses"
	}
	return &RedisStore{
		client: client,
		logger: utils.NewLogger("cache"),
		prefix: prefix,
	}
}

func (s *RedisStore) recordKey(id string) string {
	return s.prefix + ":record:" + id
}

func (s *RedisStore) repoKey(repositoryFullName string) string {
	return s.prefix + ":repo:" + repositoryFullName
}

func (s *RedisStore) byTimeKey() string {
	return s.prefix + ":by-time"
}

func (s *RedisStore) Save(ctx context.Context, record Record) (Record, error) {
	record = stamp(record)

	data, err := json.Marshal(record)
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal record: %w", err)
	}

	member := redis.Z{Score: float64(record.Timestamp), Member: record.ID}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.recordKey(record.ID), data, 0)
	pipe.ZAdd(ctx, s.byTimeKey(), member)
	pipe.ZAdd(ctx, s.repoKey(record.RepositoryFullName), member)
	if _, err := pipe.Exec(ctx); err != nil {
		return Record{}, fmt.Errorf("failed to save record: %w", err)
	}

	if err := s.evict(ctx); err != nil {
		return Record{}, err
	}
	return record, nil
}

func (s *RedisStore) GetLatest(ctx context.Context, repositoryFullName string) (*Record, error) {
	ids, err := s.client.ZRevRange(ctx, s.repoKey(repositoryFullName), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query repository index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	data, err := s.client.Get(ctx, s.recordKey(ids[0])).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}

func (s *RedisStore) GetAll(ctx context.Context) ([]Record, error) {
	ids, err := s.client.ZRevRange(ctx, s.byTimeKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query time index: %w", err)
	}
	if len(ids) == 0 {
		return []Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	records := make([]Record, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue // index entry without a body, skip
		}
		var record Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			s.logger.Warn("skipping undecodable record", "error", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.remove(ctx, id)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	records, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for _, record := range records {
		pipe.Del(ctx, s.recordKey(record.ID))
		pipe.Del(ctx, s.repoKey(record.RepositoryFullName))
	}
	pipe.Del(ctx, s.byTimeKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	records, err := s.GetAll(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Count: len(records)}
	for _, record := range records {
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

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// evict trims the global index down to the ceiling, oldest first.
func (s *RedisStore) evict(ctx context.Context) error {
	count, err := s.client.ZCard(ctx, s.byTimeKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to size time index: %w", err)
	}
	if count <= MaxRecords {
		return nil
	}

	oldest, err := s.client.ZRange(ctx, s.byTimeKey(), 0, count-MaxRecords-1).Result()
	if err != nil {
		return fmt.Errorf("failed to list eviction candidates: %w", err)
	}
	for _, id := range oldest {
		if err := s.remove(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// remove deletes one record and its index entries.
func (s *RedisStore) remove(ctx context.Context, id string) error {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to fetch record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.recordKey(id))
	pipe.ZRem(ctx, s.byTimeKey(), id)
	if err == nil {
		var record Record
		if jsonErr := json.Unmarshal(data, &record); jsonErr == nil {
			pipe.ZRem(ctx, s.repoKey(record.RepositoryFullName), id)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
