package client

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/yo2158/break/stream"
)

// sseReader decodes the server's event stream: one JSON envelope per
// "data:" line, blank-line delimited, comment lines (heartbeats) skipped.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseReader{scanner: sc}
}

// Next returns the next event on the stream. io.EOF means the server
// closed the stream.
func (r *sseReader) Next() (stream.Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		switch {
		case len(line) == 0, line[0] == ':':
			continue
		case bytes.HasPrefix(line, []byte("data:")):
			payload := bytes.TrimSpace(line[len("data:"):])
			var ev stream.Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				return stream.Event{}, fmt.Errorf("decode stream event: %w", err)
			}
			return ev, nil
		}
	}
	if err := r.scanner.Err(); err != nil {
		return stream.Event{}, err
	}
	return stream.Event{}, io.EOF
}
