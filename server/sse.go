// Server-sent event stream - writes chat events to an HTTP client as
// they happen, in arrival order.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/richinex/webpilot/chat"
)

const defaultHeartbeat = 25 * time.Second

// sseStream wraps SSE frame writing for one response.
type sseStream struct {
	w         io.Writer
	flush     func()
	heartbeat time.Duration
	mu        sync.Mutex
}

func newSSEStream(w http.ResponseWriter) *sseStream {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")

	var flushFn func()
	if f, ok := w.(http.Flusher); ok {
		flushFn = f.Flush
	}

	return &sseStream{
		w:         w,
		flush:     flushFn,
		heartbeat: defaultHeartbeat,
	}
}

// streamEvents drains the channel into SSE frames. Event order on the
// channel is the order on the wire.
func (s *sseStream) streamEvents(ctx context.Context, events <-chan chat.Event) error {
	var ticker *time.Ticker
	var heartbeat <-chan time.Time
	if s.heartbeat > 0 {
		ticker = time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.send(event); err != nil {
				return err
			}
		case <-heartbeat:
			if err := s.write([]byte(fmt.Sprintf(": ping %d\n\n", time.Now().Unix()))); err != nil {
				return err
			}
		}
	}
}

// send writes a single event frame.
func (s *sseStream) send(event chat.Event) error {
	body, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal SSE payload: %w", err)
	}
	frame := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, body)
	return s.write([]byte(frame))
}

func (s *sseStream) write(data []byte) error {
	if s.w == nil {
		return errors.New("stream writer not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(data); err != nil {
		return err
	}
	if s.flush != nil {
		s.flush()
	}
	return nil
}
