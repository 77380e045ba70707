package scoring

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/config"
)

func TestDetectProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		credential string
		fallback   string
		expect     string
	}{
		{credential: "AIzaSyExample", fallback: "openai", expect: ai.ProviderGemini},
		{credential: "sk-proj-123", fallback: "gemini", expect: ai.ProviderOpenAI},
		{credential: "custom-token", fallback: "Gemini", expect: ai.ProviderGemini},
		{credential: "custom-token", fallback: "", expect: ai.ProviderOpenAI},
	}

	for _, tt := range tests {
		if got := DetectProvider(tt.credential, tt.fallback); got != tt.expect {
			t.Fatalf("DetectProvider(%q, %q) = %q, want %q", tt.credential, tt.fallback, got, tt.expect)
		}
	}
}

func TestSelectorSelect(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()

	var gotProvider string
	factory := func(_ context.Context, provider, _ string, _ *config.Config, _ *zap.Logger) (ai.Generator, error) {
		gotProvider = provider
		return &stubGenerator{}, nil
	}
	selector := NewSelector(cfg, zap.NewNop()).WithGeneratorFactory(factory)

	if s := selector.Select(context.Background(), "  "); s.Name() != "keyword" {
		t.Fatalf("expected keyword scorer for empty credential, got %s", s.Name())
	}

	s := selector.Select(context.Background(), "AIzaKey")
	if _, ok := s.(*JudgeScorer); !ok {
		t.Fatalf("expected judge scorer, got %T", s)
	}
	if gotProvider != ai.ProviderGemini {
		t.Fatalf("factory called with provider %q", gotProvider)
	}
}

func TestSelectorFallsBackWhenClientFails(t *testing.T) {
	t.Parallel()

	factory := func(context.Context, string, string, *config.Config, *zap.Logger) (ai.Generator, error) {
		return nil, errors.New("no network")
	}
	s := NewSelector(config.Defaults(), zap.NewNop()).WithGeneratorFactory(factory).Select(context.Background(), "sk-test")
	if s.Name() != "keyword" {
		t.Fatalf("expected keyword scorer, got %s", s.Name())
	}
}

func TestPreferredModels(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.LLM.Model = "gpt-test"
	cfg.LLM.OpenAI.FallbackModels = []string{"gpt-fallback"}
	cfg.LLM.Gemini.Model = "gemini-test"
	cfg.LLM.Gemini.FallbackModels = nil

	if got := PreferredModels(cfg, ai.ProviderOpenAI); !reflect.DeepEqual(got, []string{"gpt-test", "gpt-fallback"}) {
		t.Fatalf("openai models = %v", got)
	}
	if got := PreferredModels(cfg, ai.ProviderGemini); !reflect.DeepEqual(got, []string{"gemini-test"}) {
		t.Fatalf("gemini models = %v", got)
	}
}
