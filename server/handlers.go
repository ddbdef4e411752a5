// HTTP handlers for the chat, screenshot, and upload endpoints.

package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/richinex/webpilot/chat"
	"github.com/richinex/webpilot/model"
)

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Message string        `json:"message"`
	History []chatHistory `json:"history,omitempty"`
}

// chatHistory is one prior turn resubmitted by the client.
type chatHistory struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// handleChat streams one exchange to the client as server-sent events.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, &chat.Error{Code: "bad_request", Message: "invalid JSON body"})
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, &chat.Error{Code: "bad_request", Message: "message is required"})
		return
	}

	// Each request owns its conversation; resubmitted turns seed it.
	conv := &model.Conversation{}
	for _, h := range req.History {
		var role model.Role
		switch h.Role {
		case "user":
			role = model.RoleUser
		case "assistant":
			role = model.RoleAssistant
		default:
			continue
		}
		conv.Append(model.Message{
			Role:    role,
			Content: []model.ContentBlock{model.TextBlock(h.Content)},
		})
	}

	stream := newSSEStream(w)
	events := make(chan chat.Event, 64)

	go func() {
		defer close(events)
		if err := s.streamer.Stream(r.Context(), conv, req.Message, events); err != nil {
			log.Printf("server: exchange ended with error: %v", err)
		}
	}()

	if err := stream.streamEvents(r.Context(), events); err != nil {
		// Client went away; the exchange goroutine drains on its own
		// and any in-flight uploads still finish.
		log.Printf("server: client stream closed: %v", err)
		for range events {
		}
	}
}

// handleScreenshot captures the current page and offloads it to storage,
// answering with a URL. If offloading fails the data URI comes back
// inline.
func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	uri, err := s.shots.Screenshot(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, chat.Classify(err))
		return
	}

	screenshot := uri
	if s.pipeline != nil {
		structure := map[string]interface{}{"screenshot": uri}
		rewritten, _, err := s.pipeline.Offload(r.Context(), structure)
		if err == nil {
			if m, ok := rewritten.(map[string]interface{}); ok {
				if v, ok := m["screenshot"].(string); ok {
					screenshot = v
				}
			}
		} else {
			log.Printf("server: screenshot offload failed, answering inline: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"screenshot": screenshot})
}

// handleUploads lists recent upload ledger entries.
func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, &chat.Error{Code: "bad_request", Message: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := s.ledger.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("server: ledger query failed: %v", err)
		writeError(w, http.StatusInternalServerError, &chat.Error{Code: "ledger_failed", Message: "could not list uploads"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"uploads": entries})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: response encoding failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, chatErr *chat.Error) {
	writeJSON(w, status, map[string]interface{}{"error": chatErr})
}
