package llm

import (
	"context"
	"strings"
)

// Provider is the LLM judge endpoint. The pipeline depends only on Complete
// returning parseable JSON when JSONMode is set.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the model's text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one completion call
type CompletionRequest struct {
	// System is an optional system instruction (role prompt)
	System string

	// Prompt is the user message
	Prompt string

	// Temperature controls sampling; zero uses the provider default
	Temperature float64

	// MaxTokens limits the response length; zero uses Config.MaxTokens
	MaxTokens int

	// JSONMode asks the provider for a single JSON object
	JSONMode bool

	// Model overrides Config.Model for this call
	Model string
}

// CompletionResponse contains the model output
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (Ollama, OpenAI-compatible servers)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature used when a request does not set one
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     30,
		MaxTokens:   2048,
		Temperature: 0.7,
	}
}

// jsonInstruction is appended to prompts in JSON mode. Providers without a
// native JSON mode rely on it alone; OpenAI requires the word "JSON" in the
// conversation when response_format is json_object.
const jsonInstruction = "\n\nRespond with valid JSON only. Do not wrap it in markdown."

func withJSONInstruction(prompt string, jsonMode bool) string {
	if !jsonMode || strings.Contains(prompt, strings.TrimSpace(jsonInstruction)) {
		return prompt
	}
	return prompt + jsonInstruction
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}

func (c Config) temperature(req CompletionRequest) float64 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	return c.Temperature
}
