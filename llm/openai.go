// OpenAI Provider implementation using go-openai.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Streaming delta accumulation for tool calls
//
// Also serves OpenAI-compatible APIs (DeepSeek) via a custom base URL.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI and
// OpenAI-compatible endpoints.
type OpenAIProvider struct {
	client *openai.Client
	name   string
	opts   Options
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey string, opts Options) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		name:   "openai",
		opts:   opts,
	}
}

// newCompatibleProvider builds a provider against an OpenAI-compatible
// API at a custom base URL.
func newCompatibleProvider(name, apiKey, baseURL string, opts Options) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		name:   name,
		opts:   opts,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Model returns the current model.
func (p *OpenAIProvider) Model() string {
	return p.opts.Model
}

func (p *OpenAIProvider) newRequest(messages []ChatMessage, tools []ToolDefinition) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:     p.opts.Model,
		Messages:  convertToOpenAIMessages(messages),
		MaxTokens: int(p.opts.maxTokensOrDefault()),
	}
	if p.opts.Temperature != nil {
		req.Temperature = *p.opts.Temperature
	}
	if p.opts.TopP != nil {
		req.TopP = *p.opts.TopP
	}
	if p.opts.FrequencyPenalty != nil {
		req.FrequencyPenalty = *p.opts.FrequencyPenalty
	}
	if len(tools) > 0 {
		req.Tools = convertToOpenAITools(tools)
	}
	return req
}

// ChatWithTools sends a chat completion request with tool definitions.
func (p *OpenAIProvider) ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (LLMResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.newRequest(messages, tools))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return LLMResponse{}, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]

	var toolCalls []ToolCall
	for _, tc := range choice.Message.ToolCalls {
		toolCalls = append(toolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}

	var usage *TokenUsage
	if resp.Usage.TotalTokens > 0 {
		usage = &TokenUsage{
			PromptTokens:     uint32(resp.Usage.PromptTokens),
			CompletionTokens: uint32(resp.Usage.CompletionTokens),
			TotalTokens:      uint32(resp.Usage.TotalTokens),
		}
	}

	return LLMResponse{
		Content:   choice.Message.Content,
		ToolCalls: toolCalls,
		Usage:     usage,
	}, nil
}

// partialToolCall accumulates a tool call streamed as indexed deltas.
type partialToolCall struct {
	id   string
	name string
	args strings.Builder
}

// StreamChatWithTools streams a chat completion. OpenAI streams tool
// calls as indexed fragments; each one is assembled here and emitted as
// a single event once the stream ends.
func (p *OpenAIProvider) StreamChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition, events chan<- StreamEvent) (*TokenUsage, error) {
	req := p.newRequest(messages, tools)
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("stream creation failed: %w", err)
	}
	defer stream.Close()

	var usage *TokenUsage
	pending := make(map[int]*partialToolCall)
	maxIndex := -1

	emit := func(event StreamEvent) error {
		select {
		case events <- event:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	flushToolCalls := func() error {
		for i := 0; i <= maxIndex; i++ {
			partial, ok := pending[i]
			if !ok {
				continue
			}
			args := partial.args.String()
			if args == "" {
				args = "{}"
			}
			err := emit(StreamEvent{
				Kind: StreamToolCall,
				ToolCall: &ToolCall{
					ID:        partial.id,
					Name:      partial.name,
					Arguments: json.RawMessage(args),
				},
			})
			if err != nil {
				return err
			}
		}
		pending = make(map[int]*partialToolCall)
		maxIndex = -1
		return nil
	}

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return usage, fmt.Errorf("stream receive failed: %w", err)
		}

		if response.Usage != nil && response.Usage.TotalTokens > 0 {
			usage = &TokenUsage{
				PromptTokens:     uint32(response.Usage.PromptTokens),
				CompletionTokens: uint32(response.Usage.CompletionTokens),
				TotalTokens:      uint32(response.Usage.TotalTokens),
			}
		}
		if len(response.Choices) == 0 {
			continue
		}

		delta := response.Choices[0].Delta
		if delta.Content != "" {
			if err := emit(StreamEvent{Kind: StreamTextDelta, Text: delta.Content}); err != nil {
				return usage, err
			}
		}
		for _, tc := range delta.ToolCalls {
			index := 0
			if tc.Index != nil {
				index = *tc.Index
			}
			partial, ok := pending[index]
			if !ok {
				partial = &partialToolCall{}
				pending[index] = partial
			}
			if index > maxIndex {
				maxIndex = index
			}
			if tc.ID != "" {
				partial.id = tc.ID
			}
			if tc.Function.Name != "" {
				partial.name = tc.Function.Name
			}
			partial.args.WriteString(tc.Function.Arguments)
		}

		if response.Choices[0].FinishReason == openai.FinishReasonToolCalls {
			if err := flushToolCalls(); err != nil {
				return usage, err
			}
		}
	}

	// Some compatible endpoints omit the finish reason.
	if err := flushToolCalls(); err != nil {
		return usage, err
	}

	return usage, nil
}

// convertToOpenAIMessages converts our ChatMessage history, including
// tool calls and tool results, to OpenAI format.
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		m := openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		if msg.ToolCallID != "" {
			m.ToolCallID = msg.ToolCallID
		}
		result[i] = m
	}
	return result
}

// convertToOpenAITools converts tool definitions to OpenAI format.
func convertToOpenAITools(tools []ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
