// Package history exports completed analyses for offline consumption,
// batching records into JSON Lines objects.
package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"starscope/internal/cache"
	"starscope/internal/utils"
)

var (
	ErrSinkClosed = errors.New("history sink is closed")
	ErrBufferFull = errors.New("history sink buffer is full")
)

// Sink receives completed analyses. Enqueue must not block the analysis
// path; a full buffer is reported, not waited on.
type Sink interface {
	Enqueue(record cache.Record) error
	Shutdown(ctx context.Context) error
}

// NoopSink discards records. Used when no export target is configured.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (s *NoopSink) Enqueue(cache.Record) error {
	return nil
}

func (s *NoopSink) Shutdown(context.Context) error {
	return nil
}

// BatchUploader writes one batch to the export target.
type BatchUploader interface {
	WriteBatch(ctx context.Context, records []cache.Record) (string, error)
}

// BatchSink buffers records and flushes them as batches, either when the
// batch fills or on a timer. A background goroutine owns the buffer.
type BatchSink struct {
	uploader      BatchUploader
	logger        *utils.Logger
	batchSize     int
	flushInterval time.Duration

	recordCh chan cache.Record
	doneCh   chan struct{}
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewBatchSink(uploader BatchUploader, batchSize int, flushInterval time.Duration) *BatchSink {
	if batchSize <= 0 {
		batchSize = 25
	}
	if flushInterval <= 0 {
		flushInterval = 30 * time.Second
	}

	s := &BatchSink{
		uploader:      uploader,
		logger:        utils.NewLogger("history"),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		recordCh:      make(chan cache.Record, batchSize*4),
		doneCh:        make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *BatchSink) Enqueue(record cache.Record) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSinkClosed
	}
	s.mu.Unlock()

	select {
	case s.recordCh <- record:
		return nil
	default:
		return ErrBufferFull
	}
}

// Shutdown stops intake, drains buffered records and flushes the final
// batch. The context bounds the wait.
func (s *BatchSink) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.doneCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *BatchSink) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]cache.Record, 0, s.batchSize)
	for {
		select {
		case record := <-s.recordCh:
			batch = append(batch, record)
			if len(batch) >= s.batchSize {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-s.doneCh:
			// Drain whatever made it into the channel before the close.
			for {
				select {
				case record := <-s.recordCh:
					batch = append(batch, record)
				default:
					if len(batch) > 0 {
						s.flush(batch)
					}
					return
				}
			}
		}
	}
}

func (s *BatchSink) flush(batch []cache.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key, err := s.uploader.WriteBatch(ctx, batch)
	if err != nil {
		// Export is best-effort: a failed batch is logged and dropped.
		s.logger.Error("failed to export batch", "count", len(batch), "error", err)
		return
	}
	s.logger.Debug("exported batch", "key", key, "count", len(batch))
}
