package history

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starscope/internal/cache"
)

type fakeUploader struct {
	mu      sync.Mutex
	batches [][]cache.Record
}

func (u *fakeUploader) WriteBatch(_ context.Context, records []cache.Record) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	batch := make([]cache.Record, len(records))
	copy(batch, records)
	u.batches = append(u.batches, batch)
	return fmt.Sprintf("batch-%d", len(u.batches)), nil
}

func (u *fakeUploader) total() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, b := range u.batches {
		n += len(b)
	}
	return n
}

func TestBatchSinkFlushesFullBatches(t *testing.T) {
	uploader := &fakeUploader{}
	sink := NewBatchSink(uploader, 3, time.Hour)

	for i := 0; i < 3; i++ {
		require.NoError(t, sink.Enqueue(cache.Record{ID: fmt.Sprintf("r%d", i)}))
	}

	require.Eventually(t, func() bool {
		return uploader.total() == 3
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sink.Shutdown(context.Background()))
}

func TestBatchSinkShutdownDrains(t *testing.T) {
	uploader := &fakeUploader{}
	sink := NewBatchSink(uploader, 100, time.Hour)

	for i := 0; i < 7; i++ {
		require.NoError(t, sink.Enqueue(cache.Record{ID: fmt.Sprintf("r%d", i)}))
	}

	require.NoError(t, sink.Shutdown(context.Background()))
	assert.Equal(t, 7, uploader.total())

	// After shutdown, new records are refused.
	assert.ErrorIs(t, sink.Enqueue(cache.Record{ID: "late"}), ErrSinkClosed)

	// A second shutdown is a no-op.
	assert.NoError(t, sink.Shutdown(context.Background()))
}

func TestNoopSink(t *testing.T) {
	sink := NewNoopSink()
	assert.NoError(t, sink.Enqueue(cache.Record{ID: "r1"}))
	assert.NoError(t, sink.Shutdown(context.Background()))
}
