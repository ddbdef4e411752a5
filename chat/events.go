// Chat stream events - the typed events a client receives while an
// exchange is in flight. Event order on the channel is the order the
// client must see.

package chat

import (
	"encoding/json"

	"github.com/richinex/webpilot/llm"
)

// EventType names an event on the chat stream.
type EventType string

const (
	// EventTextDelta carries a fragment of assistant text.
	EventTextDelta EventType = "text-delta"
	// EventToolCallStarted announces a tool call with its final
	// (payload-offloaded) arguments.
	EventToolCallStarted EventType = "tool-call-started"
	// EventToolCallFinished carries a tool call's finalized result.
	// Emission waits for result offloading to settle, so clients never
	// see a partially rewritten result.
	EventToolCallFinished EventType = "tool-call-finished"
	// EventWarning carries a soft failure that did not stop the
	// exchange, such as a payload upload failure.
	EventWarning EventType = "warning"
	// EventError carries a fatal error; the stream ends after it.
	EventError EventType = "error"
	// EventDone marks a completed exchange.
	EventDone EventType = "done"
)

// Event is one entry on the chat stream.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// TextDeltaData is the payload of a text-delta event.
type TextDeltaData struct {
	Text string `json:"text"`
}

// ToolCallStartedData is the payload of a tool-call-started event.
type ToolCallStartedData struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolCallFinishedData is the payload of a tool-call-finished event.
type ToolCallFinishedData struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Result json.RawMessage `json:"result"`
	IsErr  bool            `json:"is_error,omitempty"`
}

// DoneData is the payload of a done event.
type DoneData struct {
	Usage *llm.TokenUsage `json:"usage,omitempty"`
}

func textDelta(text string) Event {
	return Event{Type: EventTextDelta, Data: TextDeltaData{Text: text}}
}

func warning(err *Error) Event {
	return Event{Type: EventWarning, Data: err}
}

func fatal(err *Error) Event {
	return Event{Type: EventError, Data: err}
}
