package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiResponder answers through one Gemini model.
type geminiResponder struct {
	client *genai.Client
	model  string
}

// newGeminiResponder returns nil when apiKey is empty.
func newGeminiResponder(ctx context.Context, apiKey, model string) (*geminiResponder, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // disabled without a key
	}
	if model == "" {
		model = DefaultGeminiModels[0]
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiResponder{client: client, model: model}, nil
}

// geminiContents maps the history and prompt onto alternating user/model turns.
func geminiContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, 2*len(req.History)+1)
	for _, turn := range req.History {
		contents = append(contents,
			genai.NewContentFromText(turn.User, genai.RoleUser),
			genai.NewContentFromText(turn.Bot, genai.RoleModel),
		)
	}
	return append(contents, genai.NewContentFromText(userPrompt(req), genai.RoleUser))
}

func (r *geminiResponder) Answer(ctx context.Context, req Request) (string, error) {
	if r == nil || r.client == nil {
		return "", ErrDisabled
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](answerTemperature),
		MaxOutputTokens:   answerMaxTokens,
	}

	start := time.Now()
	resp, err := r.client.Models.GenerateContent(ctx, r.model, geminiContents(req), config)
	duration := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "answer API call failed",
			"provider", ProviderGemini,
			"model", r.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", WrapError(fmt.Errorf("generate content failed: %w", err), ProviderGemini, geminiStatus(err))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates", ErrMalformed)
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return "", fmt.Errorf("%w: empty text", ErrMalformed)
	}

	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "answer completed",
			"provider", ProviderGemini,
			"model", r.model,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"duration_ms", duration.Milliseconds())
	}
	return answer, nil
}

// geminiStatus extracts the HTTP status from an SDK error, or 0.
func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func (r *geminiResponder) Provider() Provider {
	return ProviderGemini
}

// Close is a no-op; the genai client holds no resources to release.
func (r *geminiResponder) Close() error {
	return nil
}
