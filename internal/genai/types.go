// Package genai answers free-form questions through external language models.
//
// Architecture:
//   - Gemini: google.golang.org/genai (official SDK)
//   - Groq, Cerebras, OpenAI: github.com/openai/openai-go/v3 (OpenAI-compatible API)
//
// Fallback strategy:
//  1. Model retry: the same model is retried with full-jitter backoff
//  2. Model chain: next model in the provider's model list
//  3. Provider chain: next provider in AULABOT_LLM_PROVIDERS
package genai

import (
	"context"
	"time"

	"github.com/garyellow/aulabot-go/internal/session"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderGemini is Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderGroq is Groq's OpenAI-compatible API.
	ProviderGroq Provider = "groq"
	// ProviderCerebras is Cerebras's OpenAI-compatible API.
	ProviderCerebras Provider = "cerebras"
	// ProviderOpenAI is OpenAI or any endpoint given by AULABOT_OPENAI_BASE_URL.
	ProviderOpenAI Provider = "openai"
)

// ProviderEndpoint defines the base URL for OpenAI-compatible providers.
// ProviderOpenAI uses the SDK default unless a base URL is configured.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq:     "https://api.groq.com/openai/v1/",
	ProviderCerebras: "https://api.cerebras.ai/v1/",
}

// IsOpenAICompatible reports whether the provider speaks the OpenAI chat API.
func (p Provider) IsOpenAICompatible() bool {
	return p == ProviderGroq || p == ProviderCerebras || p == ProviderOpenAI
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Request is one question for the model.
type Request struct {
	// Question is the user's message as typed.
	Question string
	// Context holds retrieved reference snippets, possibly empty.
	Context string
	// History holds the most recent exchanges, oldest first.
	History []session.Turn
}

// Responder produces a free-form answer for a request.
// Implementations include Gemini (native) and OpenAI-compatible providers.
type Responder interface {
	// Answer returns the model's reply. An empty reply is an ErrMalformed error.
	Answer(ctx context.Context, req Request) (string, error)
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Close releases any resources held by the responder.
	Close() error
}

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
}

// Default model chains. First element is primary, the rest are fallbacks.
var (
	DefaultGeminiModels   = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}
	DefaultGroqModels     = []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}
	DefaultCerebrasModels = []string{"llama-3.3-70b", "llama-3.1-8b"}
	DefaultOpenAIModels   = []string{"gpt-4o-mini"}

	// DefaultProviders is the default provider order for fallback.
	DefaultProviders = []Provider{ProviderGemini, ProviderGroq, ProviderCerebras, ProviderOpenAI}
)

// DefaultModels returns the default model chain of a provider.
func DefaultModels(p Provider) []string {
	switch p {
	case ProviderGemini:
		return DefaultGeminiModels
	case ProviderGroq:
		return DefaultGroqModels
	case ProviderCerebras:
		return DefaultCerebrasModels
	case ProviderOpenAI:
		return DefaultOpenAIModels
	default:
		return nil
	}
}

// Retry configuration defaults
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 4 * time.Second
)

// Generation settings shared by every provider.
const (
	answerTemperature = 0.4
	answerMaxTokens   = 512
)
