package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quoterag/internal/domain"
)

// OpenAI-compatible providers and their base URLs.
var openAICompatibleProviders = map[string]string{
	"zhipu":    "https://open.bigmodel.cn/api/paas/v4",
	"deepseek": "https://api.deepseek.com/v1",
	"groq":     "https://api.groq.com/openai/v1",
	"mistral":  "https://api.mistral.ai/v1",
	"together": "https://api.together.xyz/v1",
	"kimi":     "https://api.moonshot.ai/v1",
}

var defaultModels = map[string]string{
	"openai":   "gpt-4o-mini",
	"zhipu":    "glm-4-flash",
	"deepseek": "deepseek-chat",
	"kimi":     "kimi-k2-0711-preview",
	"ollama":   "qwen2:0.5b",
}

// Config selects a provider. APIKey is the resolved secret, not an env name.
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// New builds the oracle for cfg.Provider.
func New(cfg Config) (domain.Oracle, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModels[cfg.Provider]
	}
	switch cfg.Provider {
	case "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("claude oracle: missing API key")
		}
		return newClaude(cfg.APIKey, model), nil
	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return newOpenAICompatible(cfg.APIKey, baseURL, model, cfg.MaxTokens, cfg.Timeout), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		// Ollama's OpenAI-compatible endpoint
		return newOpenAICompatible("ollama", strings.TrimRight(baseURL, "/")+"/v1", model, cfg.MaxTokens, cfg.Timeout), nil
	default:
		if baseURL, ok := openAICompatibleProviders[cfg.Provider]; ok {
			if cfg.BaseURL != "" {
				baseURL = cfg.BaseURL
			}
			if model == "" {
				return nil, fmt.Errorf("%s oracle: model is required", cfg.Provider)
			}
			return newOpenAICompatible(cfg.APIKey, baseURL, model, cfg.MaxTokens, cfg.Timeout), nil
		}
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.Provider)
	}
}

// KnownProviders returns all known provider IDs.
func KnownProviders() []string {
	providers := []string{"claude", "openai", "ollama"}
	for p := range openAICompatibleProviders {
		providers = append(providers, p)
	}
	return providers
}

// Func adapts a plain function to the oracle interface. Tests use it to
// script replies.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
