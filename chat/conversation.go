// Conversation record keeping - maps the per-request conversation state
// to provider messages, and settled uploads to resolved content blocks.

package chat

import (
	"fmt"
	"strings"

	"github.com/richinex/webpilot/llm"
	"github.com/richinex/webpilot/model"
	"github.com/richinex/webpilot/offload"
)

// providerMessages flattens conversation messages into the text form
// providers accept. Resolved image and file refs appear as their
// retrieval URLs; inline refs never reach the model.
func providerMessages(conv *model.Conversation) []llm.ChatMessage {
	var messages []llm.ChatMessage
	for _, msg := range conv.Messages() {
		var parts []string
		for _, block := range msg.Content {
			switch block.Type {
			case model.BlockText:
				if block.Text != "" {
					parts = append(parts, block.Text)
				}
			case model.BlockImage, model.BlockFile:
				if block.Ref != nil && !block.Ref.Inline() {
					parts = append(parts, fmt.Sprintf("[%s] %s", block.Type, block.Ref.URL))
				}
			}
		}

		content := strings.Join(parts, "\n")
		switch msg.Role {
		case model.RoleUser:
			messages = append(messages, llm.UserMessage(content))
		case model.RoleAssistant:
			messages = append(messages, llm.AssistantMessage(content))
		case model.RoleTool:
			messages = append(messages, llm.ToolResultMessage(msg.ToolCallID, content))
		}
	}
	return messages
}

// resolvedBlocks converts successful upload results to resolved content
// blocks for the conversation record.
func resolvedBlocks(results []offload.UploadResult) []model.ContentBlock {
	var blocks []model.ContentBlock
	for _, r := range results {
		if !r.Succeeded() {
			continue
		}
		ref := model.ExternalRef(r.URL, r.MIMEType, r.Expiry)
		if strings.HasPrefix(r.MIMEType, "image/") {
			blocks = append(blocks, model.ImageBlock(ref))
		} else {
			blocks = append(blocks, model.FileBlock(ref))
		}
	}
	return blocks
}
