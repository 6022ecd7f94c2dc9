package analysis

import (
	"bufio"
	"bytes"
	"io"
)

// streamReader reads server-sent events from a streaming response body and
// yields the payload of each "data:" line.
type streamReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

func newStreamReader(r io.ReadCloser) *streamReader {
	return &streamReader{
		scanner: bufio.NewScanner(r),
		closer:  r,
	}
}

// Next returns the next data payload. done is true when the stream ended,
// either via the [DONE] marker or EOF.
func (s *streamReader) Next() (data []byte, done bool, err error) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()

		// Skip blank separators and non-data fields (event:, id:, ...).
		if len(line) == 0 || !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}

		payload := bytes.TrimPrefix(line, []byte("data: "))
		if bytes.Equal(payload, []byte("[DONE]")) {
			return nil, true, nil
		}
		return payload, false, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, false, err
	}
	return nil, true, nil
}

func (s *streamReader) Close() error {
	return s.closer.Close()
}
