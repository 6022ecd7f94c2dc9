package analysis

import (
	"context"
	"time"
)

const (
	simulatedChunkSize  = 5
	simulatedChunkDelay = 10 * time.Millisecond
)

// chunkAndDelay replays a fully-received text through the sink in small
// slices so that non-streaming providers render the same way streaming ones
// do. A zero delay degrades to a plain chunked replay, which batch consumers
// can use to skip the pacing entirely.
func chunkAndDelay(ctx context.Context, text string, sink Sink, delay time.Duration) error {
	runes := []rune(text)
	for i := 0; i < len(runes); i += simulatedChunkSize {
		end := i + simulatedChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		sink.OnToken(string(runes[i:end]))

		if delay <= 0 {
			continue
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
