package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestMemoryStoreCachedThenRefreshed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.Save(ctx, Record{
		RepositoryFullName: "acme/widget",
		Analysis:           "first pass",
		Timestamp:          1000,
	})
	require.NoError(t, err)

	hit, err := store.GetLatest(ctx, "acme/widget")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "first pass", hit.Analysis)

	// A re-analysis lands as a new record and becomes the latest; the
	// earlier one stays until the ceiling pushes it out.
	second, err := store.Save(ctx, Record{
		RepositoryFullName: "acme/widget",
		Analysis:           "second pass",
		Timestamp:          2000,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	hit, err = store.GetLatest(ctx, "acme/widget")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "second pass", hit.Analysis)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
