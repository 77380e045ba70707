package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"

	systemPrompt = "You are a helpful assistant that outputs JSON."
)

// Generator calls the chat completions endpoint of an OpenAI compatible API.
type Generator struct {
	client *resty.Client
	logger *zap.Logger
}

// NewGenerator creates a Generator authenticated with apiKey. An empty baseURL
// selects the public OpenAI API.
func NewGenerator(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Generator{client: client, logger: logger}, nil
}

func (g *Generator) Provider() string {
	return ai.ProviderOpenAI
}

// Generate sends the prompt as a single user message and returns the first choice content.
func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("openai generator is not initialized")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		return "", ai.NewFailure(ai.ProviderOpenAI, model, ai.Permanent, errors.New("model must not be empty"))
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ai.NewFailure(ai.ProviderOpenAI, model, ai.Permanent, errors.New("prompt must not be empty"))
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model": model,
			"messages": []map[string]string{
				{"role": "system", "content": systemPrompt},
				{"role": "user", "content": prompt},
			},
			"temperature": 0,
		}).
		Post("/chat/completions")
	if err != nil {
		return "", ai.NewFailure(ai.ProviderOpenAI, model, ai.Transient, fmt.Errorf("chat completion request: %w", err))
	}

	g.logger.Debug("chat completion response",
		zap.String("ai_model", model),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)

	body := resp.String()
	if resp.IsError() {
		return "", ai.NewFailure(ai.ProviderOpenAI, model, classify(resp.StatusCode()), fmt.Errorf("chat completion: status %d: %s", resp.StatusCode(), errorMessage(body)))
	}

	text := strings.TrimSpace(gjson.Get(body, "choices.0.message.content").String())
	if text == "" {
		return "", ai.NewFailure(ai.ProviderOpenAI, model, ai.Transient, errors.New("openai api returned empty response"))
	}

	return text, nil
}

// ListModels returns the model ids visible to the credential.
func (g *Generator) ListModels(ctx context.Context) ([]string, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("openai generator is not initialized")
	}

	resp, err := g.client.R().SetContext(ctx).Get("/models")
	if err != nil {
		return nil, ai.NewFailure(ai.ProviderOpenAI, "", ai.Transient, fmt.Errorf("list models request: %w", err))
	}

	body := resp.String()
	if resp.IsError() {
		return nil, ai.NewFailure(ai.ProviderOpenAI, "", classify(resp.StatusCode()), fmt.Errorf("list models: status %d: %s", resp.StatusCode(), errorMessage(body)))
	}

	var names []string
	for _, id := range gjson.Get(body, "data.#.id").Array() {
		if name := strings.TrimSpace(id.String()); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names, nil
}

func classify(status int) ai.FailureKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.Permanent
	default:
		return ai.Transient
	}
}

func errorMessage(body string) string {
	if msg := gjson.Get(body, "error.message").String(); msg != "" {
		return msg
	}
	return strings.TrimSpace(body)
}
