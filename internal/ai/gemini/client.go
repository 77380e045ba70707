package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-screener/internal/ai"
)

const generateAction = "generateContent"

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
type Generator struct {
	models     contentModels
	listModels func(ctx context.Context) ([]string, error)
	logger     *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		models: client.Models,
		listModels: func(ctx context.Context) ([]string, error) {
			return listGenerateModels(ctx, client.Models)
		},
		logger: logger,
	}, nil
}

func (g *Generator) Provider() string {
	return ai.ProviderGemini
}

// Generate sends the prompt to the given model and returns the joined text parts.
func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		return "", ai.NewFailure(ai.ProviderGemini, model, ai.Permanent, errors.New("model must not be empty"))
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ai.NewFailure(ai.ProviderGemini, model, ai.Permanent, errors.New("prompt must not be empty"))
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	}

	resp, err := g.models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", ai.NewFailure(ai.ProviderGemini, model, classify(err), fmt.Errorf("generate content: %w", err))
	}

	output := responseText(resp)
	g.logger.Debug("generate content response",
		zap.String("ai_model", model),
		zap.Int("response_length", len(output)),
	)
	if output == "" {
		return "", ai.NewFailure(ai.ProviderGemini, model, ai.Transient, errors.New("gemini api returned empty response"))
	}

	return output, nil
}

// ListModels returns the models supporting content generation.
func (g *Generator) ListModels(ctx context.Context) ([]string, error) {
	if g == nil || g.listModels == nil {
		return nil, errors.New("gemini generator is not initialized")
	}
	return g.listModels(ctx)
}

func listGenerateModels(ctx context.Context, models *genai.Models) ([]string, error) {
	var names []string
	for model, err := range models.All(ctx) {
		if err != nil {
			return nil, ai.NewFailure(ai.ProviderGemini, "", classify(err), fmt.Errorf("list models: %w", err))
		}
		if model == nil || !supports(model.SupportedActions, generateAction) {
			continue
		}
		names = append(names, strings.TrimPrefix(model.Name, "models/"))
	}
	return names, nil
}

func supports(actions []string, action string) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

// classify maps API errors onto failure kinds. Bad or forbidden keys fail every
// model, everything else may succeed on another one.
func classify(err error) ai.FailureKind {
	code, message, ok := apiError(err)
	if !ok {
		return ai.Transient
	}

	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.Permanent
	case http.StatusBadRequest:
		if strings.Contains(strings.ToLower(message), "api key") {
			return ai.Permanent
		}
	}
	return ai.Transient
}

func apiError(err error) (int, string, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value.Code, value.Message, true
	}
	var pointer *genai.APIError
	if errors.As(err, &pointer) && pointer != nil {
		return pointer.Code, pointer.Message, true
	}
	return 0, "", false
}
