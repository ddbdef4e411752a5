package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/richinex/webpilot/chat"
	"github.com/richinex/webpilot/model"
	"github.com/richinex/webpilot/storage"
)

// fakeStreamer replays a fixed event script.
type fakeStreamer struct {
	events []chat.Event
	err    error
}

func (f *fakeStreamer) Stream(ctx context.Context, conv *model.Conversation, userText string, events chan<- chat.Event) error {
	for _, e := range f.events {
		select {
		case events <- e:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

type fakeShots struct {
	uri string
	err error
}

func (f *fakeShots) Screenshot(ctx context.Context) (string, error) {
	return f.uri, f.err
}

func newTestServer(t *testing.T, streamer Streamer, shots Screenshotter, uploader storage.Uploader, ledger *storage.Ledger) *Server {
	t.Helper()
	cfg := Config{Addr: "127.0.0.1:0", RateRPS: 1000, RateBurst: 1000}
	return New(cfg, streamer, shots, uploader, ledger)
}

func TestChatStreamsEventsInOrder(t *testing.T) {
	streamer := &fakeStreamer{events: []chat.Event{
		{Type: chat.EventTextDelta, Data: chat.TextDeltaData{Text: "Hello"}},
		{Type: chat.EventToolCallStarted, Data: chat.ToolCallStartedData{ID: "call_1", Name: "navigate", Arguments: json.RawMessage(`{}`)}},
		{Type: chat.EventToolCallFinished, Data: chat.ToolCallFinishedData{ID: "call_1", Name: "navigate", Result: json.RawMessage(`{"ok":true}`)}},
		{Type: chat.EventDone, Data: chat.DoneData{}},
	}}
	srv := newTestServer(t, streamer, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"open example.com"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type: %s", got)
	}

	body := rec.Body.String()
	order := []string{"event: text-delta", "event: tool-call-started", "event: tool-call-finished", "event: done"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(body, marker)
		if idx < 0 {
			t.Fatalf("missing %q in body:\n%s", marker, body)
		}
		if idx < last {
			t.Errorf("%q out of order in body:\n%s", marker, body)
		}
		last = idx
	}
	if !strings.Contains(body, `"text":"Hello"`) {
		t.Errorf("delta payload missing: %s", body)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	srv := newTestServer(t, &fakeStreamer{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestScreenshotOffloadsToURL(t *testing.T) {
	uploader, err := storage.NewFSUploader(t.TempDir(), "https://blob.test")
	if err != nil {
		t.Fatalf("uploader: %v", err)
	}
	shots := &fakeShots{uri: "data:image/png;base64,AAAA"}
	srv := newTestServer(t, &fakeStreamer{}, shots, uploader, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/screenshot", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if !strings.HasPrefix(resp["screenshot"], "https://blob.test/uploads/") {
		t.Errorf("expected offloaded URL, got %q", resp["screenshot"])
	}
}

func TestScreenshotUnavailableService(t *testing.T) {
	shots := &fakeShots{err: fmt.Errorf("boom")}
	srv := newTestServer(t, &fakeStreamer{}, shots, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/screenshot", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestUploadsListing(t *testing.T) {
	ledger, err := storage.NewLedgerInMemory()
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	defer ledger.Close()

	obj := storage.UploadedObject{Key: "uploads/x/file.png", URL: "https://blob.test/uploads/x/file.png", MIMEType: "image/png", Size: 4}
	if err := ledger.Record(context.Background(), obj); err != nil {
		t.Fatalf("record: %v", err)
	}

	srv := newTestServer(t, &fakeStreamer{}, nil, nil, ledger)

	req := httptest.NewRequest(http.MethodGet, "/api/uploads?limit=10", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "uploads/x/file.png") {
		t.Errorf("listing missing entry: %s", rec.Body.String())
	}
}

func TestRateLimiting(t *testing.T) {
	cfg := Config{Addr: "127.0.0.1:0", RateRPS: 0.001, RateBurst: 1}
	srv := New(cfg, &fakeStreamer{events: []chat.Event{{Type: chat.EventDone}}}, nil, nil, nil)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("first request: %d", rec.Code)
		}
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("second request should be limited, got %d", rec.Code)
		}
	}
}
