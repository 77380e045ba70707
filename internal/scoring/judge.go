package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	maxJobDescriptionRunes = 2000
	maxResumeRunes         = 4000

	defaultMaxLogLength = 200
)

var requiredFields = []string{"score", "status", "reasoning", "matched_keywords"}

// JudgeConfig controls how the judge walks its model list.
type JudgeConfig struct {
	// Models is the preference order. Discovered models are appended after it.
	Models []string
	// Discover lists the provider models once when the generator supports it.
	Discover bool
	// MaxAttempts caps how many models are tried for one resume.
	MaxAttempts int
	// RetryDelay is the pause after a transient failure before the next model.
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	TotalTimeout   time.Duration
	MaxLogLength   int
}

// JudgeScorer delegates the evaluation to a remote language model.
type JudgeScorer struct {
	generator ai.Generator
	cfg       JudgeConfig
	logger    *zap.Logger

	discoverOnce sync.Once

	mu     sync.Mutex
	models []string
	sticky string
}

// NewJudgeScorer builds a judge on top of generator.
func NewJudgeScorer(generator ai.Generator, cfg JudgeConfig, log *zap.Logger) *JudgeScorer {
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	return &JudgeScorer{
		generator: generator,
		cfg:       cfg,
		logger:    logger.WithCommonFields(log, generator.Provider(), ""),
		models:    dedupeModels(cfg.Models),
	}
}

func (j *JudgeScorer) Name() string {
	return "judge/" + j.generator.Provider()
}

// Score never returns an error: any failure yields score 0, Red and an
// "LLM Error" reasoning.
func (j *JudgeScorer) Score(ctx context.Context, resumeText, jobDescription string) Result {
	result, err := j.evaluate(ctx, resumeText, jobDescription)
	if err != nil {
		j.logger.Warn("judge evaluation failed, using fail-safe result", zap.Error(err))
		return failSafe(err)
	}
	return result
}

func (j *JudgeScorer) evaluate(ctx context.Context, resumeText, jobDescription string) (Result, error) {
	if j.cfg.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.cfg.TotalTimeout)
		defer cancel()
	}

	prompt := BuildPrompt(jobDescription, resumeText)

	raw, model, err := j.generate(ctx, prompt)
	if err != nil {
		return Result{}, err
	}

	log := logger.WithCommonFields(j.logger, "", model)
	log.Debug("judge response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, j.cfg.MaxLogLength)),
	)

	result, err := ParseJudgement(raw)
	if err != nil {
		return Result{}, fmt.Errorf("model %q: %w", model, err)
	}
	return result, nil
}

// generate tries the candidate models in order until one answers. A permanent
// failure ends the walk.
func (j *JudgeScorer) generate(ctx context.Context, prompt string) (string, string, error) {
	models := j.candidates(ctx)
	if len(models) == 0 {
		return "", "", errors.New("no models configured")
	}
	if len(models) > j.cfg.MaxAttempts {
		models = models[:j.cfg.MaxAttempts]
	}

	var lastErr error
	for attempt, model := range models {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}

		log := logger.WithCommonFields(j.logger, "", model)
		log.Debug("judge request",
			zap.Int("attempt", attempt+1),
			zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
			zap.String("prompt_preview", utils.TruncateForLog(prompt, j.cfg.MaxLogLength)),
		)

		raw, err := j.call(ctx, model, prompt)
		if err == nil {
			j.stick(model)
			return raw, model, nil
		}

		lastErr = err
		if ai.IsPermanent(err) {
			log.Warn("judge model failed permanently", zap.Error(err))
			break
		}
		log.Info("judge model failed, trying next", zap.Error(err))

		if attempt < len(models)-1 {
			if err := utils.WaitFor(ctx, j.cfg.RetryDelay); err != nil {
				break
			}
		}
	}

	return "", "", fmt.Errorf("no model answered: %w", lastErr)
}

func (j *JudgeScorer) call(ctx context.Context, model, prompt string) (string, error) {
	if j.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.cfg.RequestTimeout)
		defer cancel()
	}
	return j.generator.Generate(ctx, model, prompt)
}

// candidates returns the sticky model first, followed by the rest of the list.
func (j *JudgeScorer) candidates(ctx context.Context) []string {
	j.discoverOnce.Do(func() { j.discover(ctx) })

	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]string, 0, len(j.models))
	if j.sticky != "" {
		out = append(out, j.sticky)
	}
	for _, m := range j.models {
		if m != j.sticky {
			out = append(out, m)
		}
	}
	return out
}

func (j *JudgeScorer) stick(model string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.sticky != model {
		j.logger.Debug("judge model selected", zap.String(logger.FieldModel, model))
	}
	j.sticky = model
}

func (j *JudgeScorer) discover(ctx context.Context) {
	if !j.cfg.Discover {
		return
	}
	lister, ok := j.generator.(ai.ModelLister)
	if !ok {
		return
	}

	if j.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.cfg.RequestTimeout)
		defer cancel()
	}

	found, err := lister.ListModels(ctx)
	if err != nil {
		j.logger.Warn("model discovery failed, using configured models", zap.Error(err))
		return
	}

	ranked := RankModels(found)

	j.mu.Lock()
	j.models = dedupeModels(append(j.models, ranked...))
	j.mu.Unlock()

	j.logger.Debug("models discovered", zap.Strings("models", ranked))
}

// RankModels orders model names by preference: flash 1.5, flash, pro 1.5, pro,
// then everything else. The order within a tier is kept.
func RankModels(models []string) []string {
	out := append([]string(nil), models...)
	sort.SliceStable(out, func(a, b int) bool {
		return modelTier(out[a]) < modelTier(out[b])
	})
	return out
}

func modelTier(name string) int {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "flash") && strings.Contains(n, "1.5"):
		return 0
	case strings.Contains(n, "flash"):
		return 1
	case strings.Contains(n, "pro") && strings.Contains(n, "1.5"):
		return 2
	case strings.Contains(n, "pro"):
		return 3
	default:
		return 4
	}
}

func dedupeModels(models []string) []string {
	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// BuildPrompt renders the judge prompt with truncated inputs.
func BuildPrompt(jobDescription, resumeText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job Description:\n{{JOB_DESCRIPTION}}\n\nResume Content:\n{{RESUME}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{JOB_DESCRIPTION}}", truncateRunes(jobDescription, maxJobDescriptionRunes))
	return strings.ReplaceAll(prompt, "{{RESUME}}", truncateRunes(resumeText, maxResumeRunes))
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

type judgement struct {
	Score           float64  `mapstructure:"score"`
	Status          string   `mapstructure:"status"`
	Reasoning       string   `mapstructure:"reasoning"`
	MatchedKeywords []string `mapstructure:"matched_keywords"`
}

// ParseJudgement decodes a judge answer. Code fences around the JSON are
// ignored. Missing fields or an unknown status are errors.
func ParseJudgement(raw string) (Result, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return Result{}, fmt.Errorf("parse judge response: %w", err)
	}

	var missing []string
	for _, key := range requiredFields {
		if data[key] == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Result{}, fmt.Errorf("judge response is missing fields: %s", strings.Join(missing, ", "))
	}

	var decoded judgement
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &decoded,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return Result{}, fmt.Errorf("decode judge response: %w", err)
	}

	status, ok := candidate.ParseStatus(decoded.Status)
	if !ok || !judgeStatus(status) {
		return Result{}, fmt.Errorf("judge response has unknown status %q", decoded.Status)
	}

	keywords := make([]string, 0, len(decoded.MatchedKeywords))
	for _, k := range decoded.MatchedKeywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}

	return Result{
		Score:           decoded.Score,
		Status:          status,
		Reasoning:       strings.TrimSpace(decoded.Reasoning),
		MatchedKeywords: keywords,
	}.Clamp(), nil
}

func judgeStatus(s candidate.Status) bool {
	return s == candidate.StatusGreen || s == candidate.StatusYellow || s == candidate.StatusRed
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	// Some models wrap the object in prose.
	if !strings.HasPrefix(raw, "{") {
		start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}")
		if start != -1 && end > start {
			raw = raw[start : end+1]
		}
	}
	return raw
}
