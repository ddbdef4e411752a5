// Package llm provides shared data models for LLM providers.
package llm

import "encoding/json"

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For assistant messages with tool calls
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool result messages
}

// ToolCall represents a tool call from the LLM.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition defines a tool that the LLM can call.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// ToolResultMessage creates a tool result message for a tool call.
func ToolResultMessage(toolCallID, content string) ChatMessage {
	return ChatMessage{Role: "tool", Content: content, ToolCallID: toolCallID}
}

// LLMResponse represents a complete response from an LLM provider.
type LLMResponse struct {
	Content   string
	ToolCalls []ToolCall // Tool calls requested by the LLM
	Usage     *TokenUsage
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// StreamEventKind tags incremental events on a completion stream.
type StreamEventKind string

const (
	// StreamTextDelta carries a fragment of assistant text.
	StreamTextDelta StreamEventKind = "text_delta"
	// StreamToolCall carries one fully assembled tool call request.
	StreamToolCall StreamEventKind = "tool_call"
)

// StreamEvent is one incremental event from a streaming completion.
// Providers emit events in arrival order; consumers must preserve it.
type StreamEvent struct {
	Kind     StreamEventKind
	Text     string
	ToolCall *ToolCall
}

// Options holds sampling parameters passed through opaquely to the
// provider. Nil pointer fields use the provider's defaults.
type Options struct {
	Model            string
	MaxTokens        uint32
	Temperature      *float32
	TopP             *float32
	FrequencyPenalty *float32
}

// maxTokensOrDefault applies the package default when unset.
func (o Options) maxTokensOrDefault() uint32 {
	if o.MaxTokens == 0 {
		return 4096
	}
	return o.MaxTokens
}
