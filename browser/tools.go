// Tool catalog conversion - maps the service's tool descriptions to the
// definitions the LLM providers accept.

package browser

import (
	"encoding/json"
	"log"

	"github.com/richinex/webpilot/llm"
)

// ToolDefinitions converts the service's tool catalog to LLM tool
// definitions. Tools with an unparseable schema are skipped rather than
// sent to the model malformed.
func ToolDefinitions(infos []ToolInfo) []llm.ToolDefinition {
	var defs []llm.ToolDefinition
	for _, info := range infos {
		params := map[string]interface{}{"type": "object"}
		if len(info.InputSchema) > 0 {
			if err := json.Unmarshal(info.InputSchema, &params); err != nil {
				log.Printf("browser: skipping tool %s with invalid schema: %v", info.Name, err)
				continue
			}
		}

		description := ""
		if info.Description != nil {
			description = *info.Description
		}

		defs = append(defs, llm.ToolDefinition{
			Name:        info.Name,
			Description: description,
			Parameters:  params,
		})
	}
	return defs
}
