package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// TypeWriter identifies publishers that emit JSON lines to a stream.
const TypeWriter = "writer"

type writerPublisher struct {
	id  string
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterPublisher returns a publisher that writes each event as one JSON
// line to w. Writes are serialized.
func NewWriterPublisher(id string, w io.Writer) Publisher {
	return &writerPublisher{id: id, enc: json.NewEncoder(w)}
}

func (w *writerPublisher) ID() string   { return w.id }
func (w *writerPublisher) Type() string { return TypeWriter }

func (w *writerPublisher) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(evt); err != nil {
		return fmt.Errorf("write event %s: %w", evt.ID, err)
	}
	return nil
}
