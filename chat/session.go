// Chat session - drives one user exchange: stream the model, bridge its
// tool calls through the browser service, feed results back, repeat
// until the model answers in plain text.
//
// Information Hiding:
// - The tool loop and its round limit
// - How provider stream events map to client-facing events
// - Conversation record keeping

package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/richinex/webpilot/llm"
	"github.com/richinex/webpilot/model"
	"github.com/richinex/webpilot/offload"
)

// maxToolRounds bounds how many model turns one exchange may take.
const maxToolRounds = 8

// Session runs exchanges against one provider with one tool catalog.
// A Session holds no per-request state; each exchange owns its
// Conversation.
type Session struct {
	provider llm.Provider
	bridge   *Bridge
	tools    []llm.ToolDefinition
	system   string
}

// NewSession creates a session over the given provider and bridge.
func NewSession(provider llm.Provider, bridge *Bridge, tools []llm.ToolDefinition, system string) *Session {
	return &Session{
		provider: provider,
		bridge:   bridge,
		tools:    tools,
		system:   system,
	}
}

// Stream runs one exchange, writing events to the channel in the order
// the client must see them. The user's message and everything the
// exchange produces are appended to conv, which the caller owns for the
// lifetime of its request. The caller also owns the events channel and
// closes it after Stream returns.
//
// Text deltas are forwarded as they arrive. Each tool call is announced
// with its offloaded arguments, executed, and its finalized result
// emitted only once result offloading has settled. A failed upload
// surfaces as a warning event; the exchange continues with the payload
// inline. A broken model stream or unreachable browser service emits an
// error event and ends the exchange.
func (s *Session) Stream(ctx context.Context, conv *model.Conversation, userText string, events chan<- Event) error {
	emit := func(e Event) error {
		select {
		case events <- e:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	conv.Append(model.Message{
		Role:    model.RoleUser,
		Content: []model.ContentBlock{model.TextBlock(userText)},
	})

	var messages []llm.ChatMessage
	if s.system != "" {
		messages = append(messages, llm.SystemMessage(s.system))
	}
	messages = append(messages, providerMessages(conv)...)

	var usage *llm.TokenUsage

	for round := 0; round < maxToolRounds; round++ {
		outcome, err := s.streamRound(ctx, conv, messages, emit)
		if outcome.usage != nil {
			usage = outcome.usage
		}
		if err != nil {
			if emitErr := emit(fatal(Classify(err))); emitErr != nil {
				return emitErr
			}
			return err
		}

		if len(outcome.toolCalls) == 0 {
			conv.Append(model.Message{
				Role:    model.RoleAssistant,
				Content: []model.ContentBlock{model.TextBlock(outcome.text)},
			})
			return emit(Event{Type: EventDone, Data: DoneData{Usage: usage}})
		}

		messages = append(messages, llm.ChatMessage{
			Role:      "assistant",
			Content:   outcome.text,
			ToolCalls: outcome.toolCalls,
		})
		messages = append(messages, outcome.toolResults...)
	}

	err := &Error{Code: CodeModelStream, Message: fmt.Sprintf("exchange exceeded %d tool rounds", maxToolRounds)}
	if emitErr := emit(fatal(err)); emitErr != nil {
		return emitErr
	}
	return err
}

// roundOutcome collects what one model turn produced.
type roundOutcome struct {
	text        string
	toolCalls   []llm.ToolCall
	toolResults []llm.ChatMessage
	usage       *llm.TokenUsage
}

// streamRound streams one model turn, bridging tool calls inline so
// event order matches arrival order.
func (s *Session) streamRound(ctx context.Context, conv *model.Conversation, messages []llm.ChatMessage, emit func(Event) error) (roundOutcome, error) {
	streamEvents := make(chan llm.StreamEvent, 16)

	var usage *llm.TokenUsage
	var streamErr error
	go func() {
		defer close(streamEvents)
		usage, streamErr = s.provider.StreamChatWithTools(ctx, messages, s.tools, streamEvents)
	}()

	// On an early exit the provider goroutine must not be left blocked
	// on a send.
	drain := func() {
		for range streamEvents {
		}
	}

	var text strings.Builder
	outcome := roundOutcome{}
	fail := func(err error) (roundOutcome, error) {
		drain()
		outcome.text = text.String()
		outcome.usage = usage
		return outcome, err
	}

	for streamEvent := range streamEvents {
		switch streamEvent.Kind {
		case llm.StreamTextDelta:
			if err := emit(textDelta(streamEvent.Text)); err != nil {
				return fail(err)
			}
			text.WriteString(streamEvent.Text)

		case llm.StreamToolCall:
			call := *streamEvent.ToolCall
			log.Printf("session: tool call %s (%s)", call.Name, call.ID)

			args, argResults := s.bridge.OffloadArguments(ctx, call)
			call.Arguments = args
			for _, w := range uploadWarnings(argResults) {
				if err := emit(warning(w)); err != nil {
					return fail(err)
				}
			}
			started := Event{Type: EventToolCallStarted, Data: ToolCallStartedData{
				ID:        call.ID,
				Name:      call.Name,
				Arguments: args,
			}}
			if err := emit(started); err != nil {
				return fail(err)
			}

			raw, isErr, err := s.bridge.Execute(ctx, call.Name, args)
			if err != nil {
				return fail(err)
			}

			result := raw
			var resolved []model.ContentBlock
			if !isErr {
				var resultResults []offload.UploadResult
				result, resultResults = s.bridge.FinalizeResult(ctx, raw)
				for _, w := range uploadWarnings(resultResults) {
					if err := emit(warning(w)); err != nil {
						return fail(err)
					}
				}
				resolved = resolvedBlocks(resultResults)
			}

			finished := Event{Type: EventToolCallFinished, Data: ToolCallFinishedData{
				ID:     call.ID,
				Name:   call.Name,
				Result: result,
				IsErr:  isErr,
			}}
			if err := emit(finished); err != nil {
				return fail(err)
			}

			// Record the settled result; resolved refs stay external
			// for the rest of the conversation.
			record := model.Message{
				Role:       model.RoleTool,
				ToolCallID: call.ID,
				Content:    append([]model.ContentBlock{model.TextBlock(string(result))}, resolved...),
			}
			conv.Append(record)

			outcome.toolCalls = append(outcome.toolCalls, call)
			outcome.toolResults = append(outcome.toolResults, llm.ToolResultMessage(call.ID, string(result)))
		}
	}

	outcome.text = text.String()
	outcome.usage = usage
	if streamErr != nil {
		return outcome, fmt.Errorf("model stream failed: %w", streamErr)
	}
	return outcome, nil
}
