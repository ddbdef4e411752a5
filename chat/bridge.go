// Tool-call bridge - runs each model-requested tool call through the
// payload offloading pipeline on the way out (arguments) and on the way
// back (results).
//
// Information Hiding:
// - Where payloads go (delegated to the offload pipeline)
// - How tool failures are converted to model-visible results

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/richinex/webpilot/browser"
	"github.com/richinex/webpilot/llm"
	"github.com/richinex/webpilot/offload"
	"github.com/richinex/webpilot/storage"
)

// Executor runs one tool call against the browser service.
// *browser.Client satisfies it.
type Executor interface {
	CallTool(ctx context.Context, name string, arguments json.RawMessage) (json.RawMessage, error)
}

var _ Executor = (*browser.Client)(nil)

// Bridge intercepts tool calls between the model and the executor. Both
// directions pass through the offload pipeline, so neither the tool nor
// the model ever sees a half-rewritten structure.
//
// Uploads always run on a context detached from the caller's, so a
// client that disconnects mid-exchange does not abort storage writes
// already in flight.
type Bridge struct {
	executor Executor
	pipeline *offload.Pipeline
}

// NewBridge creates a bridge over the given executor, offloading
// payloads through the given uploader at conversation width.
func NewBridge(executor Executor, uploader storage.Uploader) *Bridge {
	return &Bridge{
		executor: executor,
		pipeline: offload.NewPipeline(uploader, offload.ConversationWidth),
	}
}

// Outcome is the settled result of one bridged tool call.
type Outcome struct {
	// Arguments are the offloaded arguments actually sent to the tool.
	Arguments json.RawMessage
	// Result is the finalized result to show the model and the client.
	// On tool failure it holds an error payload and IsErr is set.
	Result json.RawMessage
	IsErr  bool
	// Warnings holds soft failures (upload errors) from either
	// direction.
	Warnings []*Error
}

// OffloadArguments offloads payloads embedded in the call's arguments
// and returns the rewritten arguments plus the per-payload results.
func (b *Bridge) OffloadArguments(ctx context.Context, call llm.ToolCall) (json.RawMessage, []offload.UploadResult) {
	return b.offloadJSON(context.WithoutCancel(ctx), call.Arguments)
}

// Execute runs the tool with already-offloaded arguments. A tool that
// ran and failed comes back as an error payload with isErr set; the
// returned error is reserved for failures that must stop the exchange,
// such as an unreachable service.
func (b *Bridge) Execute(ctx context.Context, name string, args json.RawMessage) (raw json.RawMessage, isErr bool, err error) {
	raw, err = b.executor.CallTool(ctx, name, args)
	if err != nil {
		var toolErr *browser.ToolError
		if errors.As(err, &toolErr) {
			// Shown to the model so it can react, and to the client.
			payload, _ := json.Marshal(map[string]string{"error": toolErr.Message})
			return payload, true, nil
		}
		return nil, false, err
	}
	return raw, false, nil
}

// FinalizeResult offloads payloads embedded in a raw tool result and
// returns the finalized result plus the per-payload results.
func (b *Bridge) FinalizeResult(ctx context.Context, raw json.RawMessage) (json.RawMessage, []offload.UploadResult) {
	return b.offloadJSON(context.WithoutCancel(ctx), raw)
}

// Run executes one tool call end to end: offload arguments, execute,
// finalize the result.
func (b *Bridge) Run(ctx context.Context, call llm.ToolCall) (Outcome, error) {
	args, argResults := b.OffloadArguments(ctx, call)
	outcome := Outcome{Arguments: args, Warnings: uploadWarnings(argResults)}

	raw, isErr, err := b.Execute(ctx, call.Name, args)
	if err != nil {
		return outcome, err
	}
	if isErr {
		outcome.Result = raw
		outcome.IsErr = true
		return outcome, nil
	}

	result, resultResults := b.FinalizeResult(ctx, raw)
	outcome.Result = result
	outcome.Warnings = append(outcome.Warnings, uploadWarnings(resultResults)...)
	return outcome, nil
}

// uploadWarnings converts failed upload results to client-facing soft
// warnings.
func uploadWarnings(results []offload.UploadResult) []*Error {
	var warnings []*Error
	for _, r := range results {
		if r.Succeeded() {
			continue
		}
		warnings = append(warnings, &Error{
			Code:    CodeStorageFailed,
			Message: fmt.Sprintf("upload of %s failed; payload kept inline", r.Path),
		})
	}
	return warnings
}

// offloadJSON runs raw JSON through the offload pipeline and returns
// the rewritten bytes plus the per-payload upload results. Any pipeline
// problem falls open: the original bytes come back untouched.
func (b *Bridge) offloadJSON(ctx context.Context, raw json.RawMessage) (json.RawMessage, []offload.UploadResult) {
	if len(raw) == 0 {
		return raw, nil
	}

	var structure interface{}
	if err := json.Unmarshal(raw, &structure); err != nil {
		log.Printf("bridge: skipping offload of non-JSON payload: %v", err)
		return raw, nil
	}

	rewritten, results, err := b.pipeline.Offload(ctx, structure)
	if err != nil {
		log.Printf("bridge: offload failed, keeping payload inline: %v", err)
		return raw, nil
	}

	if len(results) == 0 {
		return raw, nil
	}
	encoded, err := json.Marshal(rewritten)
	if err != nil {
		log.Printf("bridge: re-encoding rewritten structure failed: %v", err)
		return raw, results
	}
	return encoded, results
}
