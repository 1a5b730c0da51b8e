package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiResponder answers through one model of an OpenAI-compatible API
// (Groq, Cerebras, OpenAI or a custom base URL).
type openaiResponder struct {
	client   openai.Client
	model    string
	provider Provider
}

// newOpenAIResponder returns nil when apiKey is empty. baseURL overrides
// the provider's endpoint; ProviderOpenAI without one uses the SDK default.
func newOpenAIResponder(provider Provider, apiKey, model, baseURL string) (*openaiResponder, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // disabled without a key
	}
	if !provider.IsOpenAICompatible() {
		return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
	}
	if baseURL == "" {
		baseURL = ProviderEndpoint[provider]
	}
	if model == "" {
		models := DefaultModels(provider)
		if len(models) == 0 {
			return nil, fmt.Errorf("no default model for provider: %s", provider)
		}
		model = models[0]
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiResponder{
		client:   openai.NewClient(opts...),
		model:    model,
		provider: provider,
	}, nil
}

// openaiMessages renders system prompt, history and question.
func openaiMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2*len(req.History)+2)
	msgs = append(msgs, openai.SystemMessage(SystemPrompt))
	for _, turn := range req.History {
		msgs = append(msgs, openai.UserMessage(turn.User), openai.AssistantMessage(turn.Bot))
	}
	return append(msgs, openai.UserMessage(userPrompt(req)))
}

func (r *openaiResponder) Answer(ctx context.Context, req Request) (string, error) {
	if r == nil {
		return "", ErrDisabled
	}

	params := openai.ChatCompletionNewParams{
		Model:       r.model,
		Messages:    openaiMessages(req),
		Temperature: openai.Float(answerTemperature),
		MaxTokens:   openai.Int(answerMaxTokens),
	}

	start := time.Now()
	resp, err := r.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "answer API call failed",
			"provider", r.provider,
			"model", r.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		status := 0
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return "", WrapError(fmt.Errorf("chat completion failed: %w", err), r.provider, status)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformed)
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: empty content", ErrMalformed)
	}

	if resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "answer completed",
			"provider", r.provider,
			"model", r.model,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"duration_ms", duration.Milliseconds())
	}
	return answer, nil
}

func (r *openaiResponder) Provider() Provider {
	if r == nil {
		return ""
	}
	return r.provider
}

// Close is a no-op; the openai-go client doesn't require cleanup.
func (r *openaiResponder) Close() error {
	return nil
}
