package indexing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// JSONLinesSink writes one JSON object per line
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesSink creates a sink writing to w
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

// Write encodes the record as a single line
func (s *JSONLinesSink) Write(ctx context.Context, record map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(record); err != nil {
		return fmt.Errorf("encode record %v: %w", record["objectID"], err)
	}
	return nil
}
