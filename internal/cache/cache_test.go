package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starscope/internal/registry"
)

// runStoreSuite exercises the Store contract. Every backend must pass it.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	record := func(repo string, ts int64) Record {
		return Record{
			RepositoryFullName: repo,
			RepositoryURL:      "https://github.com/" + repo,
			Analysis:           "analysis of " + repo,
			Model:              "gpt-4-turbo",
			Provider:           registry.OpenAI,
			TokenCount:         100,
			Cost:               0.01,
			Timestamp:          ts,
		}
	}

	t.Run("save stamps id and version", func(t *testing.T) {
		store := newStore(t)
		saved, err := store.Save(ctx, record("acme/widget", 1700000000000))
		require.NoError(t, err)
		assert.Equal(t, "acme/widget_1700000000000", saved.ID)
		assert.Equal(t, SchemaVersion, saved.Version)
	})

	t.Run("save without timestamp uses now", func(t *testing.T) {
		store := newStore(t)
		before := time.Now().UnixMilli()
		saved, err := store.Save(ctx, record("acme/widget", 0))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, saved.Timestamp, before)
		assert.Equal(t, fmt.Sprintf("acme/widget_%d", saved.Timestamp), saved.ID)
	})

	t.Run("get latest picks the newest per repository", func(t *testing.T) {
		store := newStore(t)
		for _, ts := range []int64{3000, 1000, 2000} {
			_, err := store.Save(ctx, record("acme/widget", ts))
			require.NoError(t, err)
		}
		_, err := store.Save(ctx, record("other/repo", 9000))
		require.NoError(t, err)

		latest, err := store.GetLatest(ctx, "acme/widget")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, int64(3000), latest.Timestamp)
	})

	t.Run("get latest miss is nil without error", func(t *testing.T) {
		store := newStore(t)
		latest, err := store.GetLatest(ctx, "nobody/nothing")
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("get all returns newest first", func(t *testing.T) {
		store := newStore(t)
		for i, ts := range []int64{500, 2500, 1500} {
			_, err := store.Save(ctx, record(fmt.Sprintf("repo/n%d", i), ts))
			require.NoError(t, err)
		}

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, int64(2500), all[0].Timestamp)
		assert.Equal(t, int64(1500), all[1].Timestamp)
		assert.Equal(t, int64(500), all[2].Timestamp)
	})

	t.Run("ceiling evicts oldest across repositories", func(t *testing.T) {
		store := newStore(t)
		for i := 0; i < MaxRecords+5; i++ {
			_, err := store.Save(ctx, record(fmt.Sprintf("repo/n%d", i), int64(1000+i)))
			require.NoError(t, err)
		}

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, MaxRecords)

		// The five oldest are gone; the newest survive.
		assert.Equal(t, int64(1000+MaxRecords+4), all[0].Timestamp)
		assert.Equal(t, int64(1005), all[len(all)-1].Timestamp)

		evicted, err := store.GetLatest(ctx, "repo/n0")
		require.NoError(t, err)
		assert.Nil(t, evicted)
	})

	t.Run("delete removes one record", func(t *testing.T) {
		store := newStore(t)
		saved, err := store.Save(ctx, record("acme/widget", 4000))
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, saved.ID))

		latest, err := store.GetLatest(ctx, "acme/widget")
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("clear empties the cache", func(t *testing.T) {
		store := newStore(t)
		for i := 0; i < 3; i++ {
			_, err := store.Save(ctx, record(fmt.Sprintf("repo/n%d", i), int64(100+i)))
			require.NoError(t, err)
		}
		require.NoError(t, store.Clear(ctx))

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("stats aggregate totals and bounds", func(t *testing.T) {
		store := newStore(t)
		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, Stats{}, stats)

		for _, ts := range []int64{100, 300, 200} {
			_, err := store.Save(ctx, record("acme/widget", ts))
			require.NoError(t, err)
		}

		stats, err = store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Count)
		assert.Equal(t, 300, stats.TotalTokens)
		assert.InDelta(t, 0.03, stats.TotalCost, 1e-9)
		assert.Equal(t, int64(100), stats.OldestTimestamp)
		assert.Equal(t, int64(300), stats.NewestTimestamp)
	})
}

func TestRecordIsStale(t *testing.T) {
	fresh := Record{Timestamp: time.Now().Add(-6 * 24 * time.Hour).UnixMilli()}
	assert.False(t, fresh.IsStale())

	stale := Record{Timestamp: time.Now().Add(-8 * 24 * time.Hour).UnixMilli()}
	assert.True(t, stale.IsStale())
}
