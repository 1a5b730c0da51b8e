package genai

import (
	"context"
	"log/slog"

	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/metrics"
)

// CreateResponder builds the fallback chain from configuration: providers
// in cfg.Providers order, each expanded to its model list. Providers without
// a key are skipped. It returns nil when nothing is configured.
func CreateResponder(ctx context.Context, cfg config.LLMConfig, m *metrics.Metrics) (*FallbackResponder, error) {
	var chain []Responder

	for _, name := range cfg.Providers {
		provider := Provider(name)
		key := cfg.APIKey(name)
		if key == "" {
			continue
		}
		models := cfg.Models(name)
		if len(models) == 0 {
			models = DefaultModels(provider)
		}

		for _, model := range models {
			var (
				r   Responder
				err error
			)
			switch {
			case provider == ProviderGemini:
				var g *geminiResponder
				g, err = newGeminiResponder(ctx, key, model)
				if g != nil {
					r = g
				}
			case provider.IsOpenAICompatible():
				baseURL := ""
				if provider == ProviderOpenAI {
					baseURL = cfg.OpenAIBaseURL
				}
				var o *openaiResponder
				o, err = newOpenAIResponder(provider, key, model, baseURL)
				if o != nil {
					r = o
				}
			default:
				slog.WarnContext(ctx, "unknown LLM provider", "provider", name)
				continue
			}
			if err != nil {
				slog.WarnContext(ctx, "failed to create responder", "provider", name, "model", model, "error", err)
				continue
			}
			if r != nil {
				chain = append(chain, r)
			}
		}
	}

	if len(chain) == 0 {
		slog.InfoContext(ctx, "no LLM provider configured")
		return nil, nil
	}

	slog.InfoContext(ctx, "responder configured",
		"primary", chain[0].Provider(),
		"chainSize", len(chain))

	return NewFallbackResponder(RetryConfigFrom(cfg), m, chain...), nil
}

// RetryConfigFrom derives the retry policy from configuration.
func RetryConfigFrom(cfg config.LLMConfig) RetryConfig {
	return RetryConfig{
		MaxAttempts:  cfg.MaxRetries + 1,
		InitialDelay: config.LLMRetryInitial,
		MaxDelay:     config.LLMRetryMax,
	}
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}
