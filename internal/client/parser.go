package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/covergrid/search-service/internal/domain"
)

// eventParser decodes NDJSON chunks into stream events. A trailing partial
// line is buffered until the next chunk, so chunk boundaries may fall
// anywhere, including mid-object.
type eventParser struct {
	buf []byte
}

// feed appends chunk and returns every complete event now available.
func (p *eventParser) feed(chunk []byte) ([]domain.StreamEvent, error) {
	p.buf = append(p.buf, chunk...)

	var events []domain.StreamEvent
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			return events, nil
		}
		line := bytes.TrimSpace(p.buf[:i])
		p.buf = append([]byte(nil), p.buf[i+1:]...)

		if len(line) == 0 {
			continue
		}
		var ev domain.StreamEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return events, fmt.Errorf("malformed stream line: %w", err)
		}
		events = append(events, ev)
	}
}
