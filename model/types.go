// Package model provides domain types shared across packages.
package model

import (
	"time"
)

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// BlockType identifies the kind of a content block.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
	BlockFile  BlockType = "file"
)

// Ref points at binary content, either inline or offloaded to object storage.
// Once a ref has been resolved to a URL it is never reverted to inline form
// within the same conversation.
type Ref struct {
	URL      string     `json:"url,omitempty"`
	Data     []byte     `json:"data,omitempty"`
	MIMEType string     `json:"mime_type"`
	Expiry   *time.Time `json:"expiry,omitempty"`
}

// Inline reports whether the ref still carries raw bytes.
func (r Ref) Inline() bool {
	return r.URL == "" && len(r.Data) > 0
}

// InlineRef creates an inline ref from raw bytes.
func InlineRef(data []byte, mimeType string) Ref {
	return Ref{Data: data, MIMEType: mimeType}
}

// ExternalRef creates a resolved ref pointing at object storage.
func ExternalRef(url, mimeType string, expiry time.Time) Ref {
	return Ref{URL: url, MIMEType: mimeType, Expiry: &expiry}
}

// ContentBlock is a tagged variant: text, image or file.
type ContentBlock struct {
	Type BlockType `json:"type"`
	Text string    `json:"text,omitempty"`
	Ref  *Ref      `json:"ref,omitempty"`
}

// TextBlock creates a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ImageBlock creates an image content block.
func ImageBlock(ref Ref) ContentBlock {
	return ContentBlock{Type: BlockImage, Ref: &ref}
}

// FileBlock creates a file content block.
func FileBlock(ref Ref) ContentBlock {
	return ContentBlock{Type: BlockFile, Ref: &ref}
}

// Message is one entry in a conversation. A tool-role message carries the
// ID of the tool invocation that produced it.
type Message struct {
	Role       Role           `json:"role"`
	Content    []ContentBlock `json:"content"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// Conversation is an append-only, causally ordered sequence of messages.
// Each chat request owns its own instance for its lifetime; there is no
// cross-request sharing.
type Conversation struct {
	messages []Message
}

// Append adds a message. Messages are never reordered after being added.
func (c *Conversation) Append(msg Message) {
	c.messages = append(c.messages, msg)
}

// Messages returns the messages in order.
func (c *Conversation) Messages() []Message {
	return c.messages
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}
