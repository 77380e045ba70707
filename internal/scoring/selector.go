package scoring

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/ai/gemini"
	"github.com/spigell/resume-screener/internal/ai/openai"
	"github.com/spigell/resume-screener/internal/config"
)

const (
	geminiKeyPrefix = "AIza"
	openAIKeyPrefix = "sk-"
)

// GeneratorFactory builds a generator for provider authenticated by credential.
type GeneratorFactory func(ctx context.Context, provider, credential string, cfg *config.Config, log *zap.Logger) (ai.Generator, error)

// Selector picks the scoring strategy for a run.
type Selector struct {
	cfg          *config.Config
	logger       *zap.Logger
	newGenerator GeneratorFactory
}

func NewSelector(cfg *config.Config, log *zap.Logger) *Selector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Selector{cfg: cfg, logger: log, newGenerator: NewGenerator}
}

// WithGeneratorFactory swaps the generator constructor.
func (s *Selector) WithGeneratorFactory(f GeneratorFactory) *Selector {
	s.newGenerator = f
	return s
}

// Select returns the keyword scorer when credential is empty and a judge
// otherwise. A judge that cannot be constructed degrades to keywords.
func (s *Selector) Select(ctx context.Context, credential string) Scorer {
	keyword := NewKeywordScorer(Thresholds{
		Red:   s.cfg.Scoring.RedThreshold,
		Green: s.cfg.Scoring.GreenThreshold,
	}, s.cfg.Scoring.BonusWeights)

	credential = strings.TrimSpace(credential)
	if credential == "" {
		s.logger.Info("no LLM credential, using keyword scorer")
		return keyword
	}

	provider := DetectProvider(credential, s.cfg.LLM.Provider)
	generator, err := s.newGenerator(ctx, provider, credential, s.cfg, s.logger)
	if err != nil {
		s.logger.Warn("cannot create LLM client, using keyword scorer",
			zap.String("ai_provider", provider), zap.Error(err))
		return keyword
	}

	judge := NewJudgeScorer(generator, JudgeConfig{
		Models:         PreferredModels(s.cfg, provider),
		Discover:       provider == ai.ProviderGemini && s.cfg.LLM.Gemini.Discover,
		MaxAttempts:    s.cfg.LLM.MaxAttempts,
		RetryDelay:     s.cfg.LLM.RetryDelay,
		RequestTimeout: s.cfg.LLM.RequestTimeout,
		TotalTimeout:   s.cfg.LLM.TotalTimeout,
		MaxLogLength:   s.cfg.LLM.MaxLogLength,
	}, s.logger)

	s.logger.Info("using LLM judge", zap.String("scorer", judge.Name()))
	return judge
}

// DetectProvider infers the provider from the credential prefix and falls back
// to the configured one.
func DetectProvider(credential, fallback string) string {
	credential = strings.TrimSpace(credential)
	switch {
	case strings.HasPrefix(credential, geminiKeyPrefix):
		return ai.ProviderGemini
	case strings.HasPrefix(credential, openAIKeyPrefix):
		return ai.ProviderOpenAI
	}

	if p := strings.ToLower(strings.TrimSpace(fallback)); p != "" {
		return p
	}
	return ai.ProviderOpenAI
}

// PreferredModels is the configured model list for provider, preferred first.
func PreferredModels(cfg *config.Config, provider string) []string {
	switch provider {
	case ai.ProviderGemini:
		return append([]string{cfg.LLM.Gemini.Model}, cfg.LLM.Gemini.FallbackModels...)
	default:
		return append([]string{cfg.LLM.Model}, cfg.LLM.OpenAI.FallbackModels...)
	}
}

// NewGenerator is the default GeneratorFactory.
func NewGenerator(ctx context.Context, provider, credential string, cfg *config.Config, log *zap.Logger) (ai.Generator, error) {
	switch provider {
	case ai.ProviderGemini:
		return gemini.NewGenerator(ctx, credential, log)
	case ai.ProviderOpenAI:
		return openai.NewGenerator(credential, cfg.LLM.OpenAI.BaseURL, cfg.LLM.RequestTimeout, log)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
