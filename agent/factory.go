package agent

import (
	"strings"

	"github.com/vinayprograms/speckit/errors"
)

// defaultMaxTokens bounds a single model reply when the caller does not say.
const defaultMaxTokens = 8192

// Options selects and configures a provider-backed invoker.
type Options struct {
	// Provider is one of "anthropic", "openai", "gemini". Empty means
	// infer from Model.
	Provider string

	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// New creates an invoker for the configured provider. When Provider is
// empty it is inferred from the model name.
func New(o Options) (Invoker, error) {
	if o.Provider == "" && o.Model != "" {
		o.Provider = InferProvider(o.Model)
		if o.Provider == "" {
			return nil, errors.InvalidInput("cannot determine provider for model " + o.Model + "; set provider explicitly")
		}
	}

	switch o.Provider {
	case "anthropic":
		return NewAnthropicInvoker(AnthropicOptions{
			APIKey:    o.APIKey,
			BaseURL:   o.BaseURL,
			Model:     o.Model,
			MaxTokens: o.MaxTokens,
		})
	case "openai":
		return NewOpenAIInvoker(OpenAIOptions{
			APIKey:    o.APIKey,
			BaseURL:   o.BaseURL,
			Model:     o.Model,
			MaxTokens: o.MaxTokens,
		})
	case "gemini", "google":
		return NewGeminiInvoker(GeminiOptions{
			APIKey:    o.APIKey,
			Model:     o.Model,
			MaxTokens: o.MaxTokens,
		})
	default:
		return nil, errors.InvalidInput("unsupported provider: " + o.Provider)
	}
}

// InferProvider returns the provider name for a model name, or empty when
// the pattern is unrecognized.
func InferProvider(model string) string {
	model = strings.ToLower(model)

	if strings.HasPrefix(model, "claude") {
		return "anthropic"
	}
	if strings.HasPrefix(model, "gpt-") ||
		strings.HasPrefix(model, "o1") ||
		strings.HasPrefix(model, "o3") ||
		strings.HasPrefix(model, "chatgpt") {
		return "openai"
	}
	if strings.HasPrefix(model, "gemini") ||
		strings.HasPrefix(model, "gemma") {
		return "gemini"
	}
	return ""
}
