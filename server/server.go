// Package server exposes the chat pipeline over HTTP: a streaming chat
// endpoint, a screenshot endpoint, upload listings, and static serving
// of locally stored payloads.
//
// Information Hiding:
// - Routing and middleware assembly
// - SSE framing (delegated to sseStream)

package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/richinex/webpilot/chat"
	"github.com/richinex/webpilot/model"
	"github.com/richinex/webpilot/offload"
	"github.com/richinex/webpilot/storage"
)

// Streamer runs one chat exchange, writing events to the channel.
// *chat.Session satisfies it.
type Streamer interface {
	Stream(ctx context.Context, conv *model.Conversation, userText string, events chan<- chat.Event) error
}

var _ Streamer = (*chat.Session)(nil)

// Screenshotter captures the current browser page as a data URI.
// *browser.Client satisfies it.
type Screenshotter interface {
	Screenshot(ctx context.Context) (string, error)
}

// Config holds the server's listening and limiting knobs.
type Config struct {
	Addr      string
	RateRPS   float64
	RateBurst int
	// FilesDir, when set, is served under /files/ so locally stored
	// payloads resolve.
	FilesDir string
}

// Server wires the chat session, browser service, and storage into an
// HTTP API.
type Server struct {
	cfg      Config
	streamer Streamer
	shots    Screenshotter
	pipeline *offload.Pipeline
	ledger   *storage.Ledger
	router   *mux.Router
}

// New assembles the server. shots and ledger may be nil; their routes
// then answer 404.
func New(cfg Config, streamer Streamer, shots Screenshotter, uploader storage.Uploader, ledger *storage.Ledger) *Server {
	s := &Server{
		cfg:      cfg,
		streamer: streamer,
		shots:    shots,
		ledger:   ledger,
	}
	if uploader != nil {
		s.pipeline = offload.NewPipeline(uploader, offload.ConversationWidth)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)
	r.Use(newLimiterPool(s.cfg.RateRPS, s.cfg.RateBurst).middleware)

	r.HandleFunc("/api/chat", s.handleChat).Methods(http.MethodPost)
	if s.shots != nil {
		r.HandleFunc("/api/screenshot", s.handleScreenshot).Methods(http.MethodGet)
	}
	if s.ledger != nil {
		r.HandleFunc("/api/uploads", s.handleUploads).Methods(http.MethodGet)
	}
	if s.cfg.FilesDir != "" {
		r.PathPrefix("/files/").Handler(
			http.StripPrefix("/files/", http.FileServer(http.Dir(s.cfg.FilesDir))))
	}
	return r
}

// Handler returns the assembled HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server: listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Printf("server: %s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
