// DeepSeek Provider - an OpenAI-compatible API at a custom base URL.

package llm

const deepseekBaseURL = "https://api.deepseek.com/v1"

// NewDeepSeekProvider creates a new DeepSeek provider. DeepSeek speaks
// the OpenAI chat completions protocol, so the OpenAI provider is
// reused with a different endpoint.
func NewDeepSeekProvider(apiKey string, opts Options) *OpenAIProvider {
	return newCompatibleProvider("deepseek", apiKey, deepseekBaseURL, opts)
}
