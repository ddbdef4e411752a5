// Chat error taxonomy - stable machine-readable codes for everything a
// client can observe on the event stream.
//
// Information Hiding:
// - Internal error causes (endpoints, file paths) never reach clients
// - Code assignment rules live here, not in the transport

package chat

import (
	"errors"
	"fmt"

	"github.com/richinex/webpilot/browser"
	"github.com/richinex/webpilot/storage"
)

// Machine-readable error codes carried on error and warning events.
// Clients branch on the code; the message is for display only.
const (
	// CodeStorageFailed marks a failed payload upload. Soft: the
	// payload stays inline and the conversation continues.
	CodeStorageFailed = "storage_failed"
	// CodeToolError marks a tool that ran and failed. The failure is
	// shown to the model and the client; the stream continues.
	CodeToolError = "tool_error"
	// CodeModelStream marks a broken model stream. Fatal for the
	// current exchange.
	CodeModelStream = "model_stream_error"
	// CodeBrowserUnavailable marks an unreachable browser service. The
	// message never includes the service endpoint.
	CodeBrowserUnavailable = "browser_unavailable"
)

// Error is an error with a stable machine code, safe to serialize to
// clients.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Classify maps an internal error to its client-facing form. Unknown
// errors become model stream errors with their message intact, except
// browser connectivity failures which get a fixed message so internal
// topology cannot leak through wrapped error text.
func Classify(err error) *Error {
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr
	}

	if errors.Is(err, browser.ErrUnavailable) {
		return &Error{Code: CodeBrowserUnavailable, Message: "browser service unavailable"}
	}

	var toolErr *browser.ToolError
	if errors.As(err, &toolErr) {
		return &Error{Code: CodeToolError, Message: toolErr.Error()}
	}

	var storageErr *storage.StorageError
	if errors.As(err, &storageErr) {
		return &Error{Code: CodeStorageFailed, Message: storageErr.Error()}
	}

	return &Error{Code: CodeModelStream, Message: err.Error()}
}
