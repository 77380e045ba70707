package scoring

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/candidate"
)

type stubAnswer struct {
	text string
	err  error
}

type stubGenerator struct {
	mu      sync.Mutex
	answers map[string][]stubAnswer
	calls   []string
	prompts []string
	listed  []string
	listErr error
	lists   int
}

func (g *stubGenerator) Provider() string { return "stub" }

func (g *stubGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, model)
	g.prompts = append(g.prompts, prompt)

	queue := g.answers[model]
	if len(queue) == 0 {
		return "", ai.NewFailure("stub", model, ai.Transient, errors.New("no answer"))
	}
	answer := queue[0]
	if len(queue) > 1 {
		g.answers[model] = queue[1:]
	}
	return answer.text, answer.err
}

type listingGenerator struct {
	*stubGenerator
}

func (g listingGenerator) ListModels(context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lists++
	return g.listed, g.listErr
}

// hangingGenerator blocks on the listed models until the call context ends.
type hangingGenerator struct {
	*stubGenerator
	hang map[string]bool
}

func (g hangingGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	if !g.hang[model] {
		return g.stubGenerator.Generate(ctx, model, prompt)
	}
	g.mu.Lock()
	g.calls = append(g.calls, model)
	g.mu.Unlock()

	<-ctx.Done()
	return "", ctx.Err()
}

const validAnswer = `{"score": 82, "status": "green", "reasoning": "Strong Go background", "matched_keywords": ["go", "kubernetes"]}`

func newJudge(gen ai.Generator, models ...string) *JudgeScorer {
	return NewJudgeScorer(gen, JudgeConfig{Models: models, MaxAttempts: 5}, zap.NewNop())
}

func TestParseJudgement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		expect  Result
		wantErr string
	}{
		{
			name:   "plain json",
			raw:    validAnswer,
			expect: Result{Score: 82, Status: candidate.StatusGreen, Reasoning: "Strong Go background", MatchedKeywords: []string{"go", "kubernetes"}},
		},
		{
			name:   "fenced json with string score",
			raw:    "```json\n{\"score\": \"55\", \"status\": \"Yellow\", \"reasoning\": \"ok\", \"matched_keywords\": []}\n```",
			expect: Result{Score: 55, Status: candidate.StatusYellow, Reasoning: "ok", MatchedKeywords: []string{}},
		},
		{
			name:   "prose around object and clamped score",
			raw:    "Here you go: {\"score\": 130, \"status\": \"RED\", \"reasoning\": \"x\", \"matched_keywords\": [\"a\"]} thanks",
			expect: Result{Score: 100, Status: candidate.StatusRed, Reasoning: "x", MatchedKeywords: []string{"a"}},
		},
		{
			name:    "missing field",
			raw:     `{"score": 50, "status": "Yellow", "reasoning": "no keywords"}`,
			wantErr: "missing fields: matched_keywords",
		},
		{
			name:    "null field",
			raw:     `{"score": null, "status": "Yellow", "reasoning": "r", "matched_keywords": []}`,
			wantErr: "missing fields: score",
		},
		{
			name:    "unknown status",
			raw:     `{"score": 50, "status": "Purple", "reasoning": "r", "matched_keywords": []}`,
			wantErr: "unknown status",
		},
		{
			name:    "duplicate is not a judge status",
			raw:     `{"score": 50, "status": "Duplicate", "reasoning": "r", "matched_keywords": []}`,
			wantErr: "unknown status",
		},
		{
			name:    "not json",
			raw:     "I cannot evaluate this resume.",
			wantErr: "parse judge response",
		},
		{
			name:    "non numeric score",
			raw:     `{"score": "high", "status": "Green", "reasoning": "r", "matched_keywords": []}`,
			wantErr: "decode judge response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseJudgement(tt.raw)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("ParseJudgement() = %+v, want %+v", got, tt.expect)
			}
		})
	}
}

func TestJudgeScore(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answers: map[string][]stubAnswer{"m1": {{text: validAnswer}}}}
	res := newJudge(gen, "m1").Score(context.Background(), "resume text", "job description")

	if res.Score != 82 || res.Status != candidate.StatusGreen {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(gen.prompts[0], "resume text") || !strings.Contains(gen.prompts[0], "job description") {
		t.Fatalf("prompt does not embed inputs: %q", gen.prompts[0])
	}
}

func TestJudgeFallsBackToNextModel(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answers: map[string][]stubAnswer{
		"m1": {{err: ai.NewFailure("stub", "m1", ai.Transient, errors.New("quota exceeded"))}},
		"m2": {{text: validAnswer}},
	}}
	judge := newJudge(gen, "m1", "m2")

	if res := judge.Score(context.Background(), "r", "jd"); res.Status != candidate.StatusGreen {
		t.Fatalf("unexpected result: %+v", res)
	}
	// m2 answered, so it is tried first from now on.
	judge.Score(context.Background(), "r", "jd")

	want := []string{"m1", "m2", "m2"}
	if !reflect.DeepEqual(gen.calls, want) {
		t.Fatalf("calls = %v, want %v", gen.calls, want)
	}
}

func TestJudgeStopsOnPermanentFailure(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answers: map[string][]stubAnswer{
		"m1": {{err: ai.NewFailure("stub", "m1", ai.Permanent, errors.New("invalid api key"))}},
		"m2": {{text: validAnswer}},
	}}

	res := newJudge(gen, "m1", "m2").Score(context.Background(), "r", "jd")
	if res.Score != 0 || res.Status != candidate.StatusRed {
		t.Fatalf("expected fail-safe result, got %+v", res)
	}
	if !strings.HasPrefix(res.Reasoning, "LLM Error: ") || !strings.Contains(res.Reasoning, "invalid api key") {
		t.Fatalf("unexpected reasoning: %q", res.Reasoning)
	}
	if !reflect.DeepEqual(gen.calls, []string{"m1"}) {
		t.Fatalf("expected a single call, got %v", gen.calls)
	}
}

func TestJudgeMalformedAnswerIsFailSafe(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answers: map[string][]stubAnswer{"m1": {{text: `{"score": 90}`}}}}
	res := newJudge(gen, "m1").Score(context.Background(), "r", "jd")

	if res.Score != 0 || res.Status != candidate.StatusRed || len(res.MatchedKeywords) != 0 {
		t.Fatalf("expected fail-safe result, got %+v", res)
	}
	if !strings.HasPrefix(res.Reasoning, "LLM Error: ") {
		t.Fatalf("unexpected reasoning: %q", res.Reasoning)
	}
}

func TestJudgeMaxAttempts(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answers: map[string][]stubAnswer{}}
	judge := NewJudgeScorer(gen, JudgeConfig{Models: []string{"a", "b", "c", "d"}, MaxAttempts: 2}, zap.NewNop())

	judge.Score(context.Background(), "r", "jd")
	if !reflect.DeepEqual(gen.calls, []string{"a", "b"}) {
		t.Fatalf("calls = %v", gen.calls)
	}
}

func TestJudgeCancelledContext(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answers: map[string][]stubAnswer{"a": {{text: validAnswer}}}}
	judge := NewJudgeScorer(gen, JudgeConfig{Models: []string{"a", "b"}, MaxAttempts: 5, TotalTimeout: time.Minute}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := judge.Score(ctx, "r", "jd")
	if res.Status != candidate.StatusRed || !strings.HasPrefix(res.Reasoning, "LLM Error: ") {
		t.Fatalf("expected fail-safe result, got %+v", res)
	}
	if len(gen.calls) != 0 {
		t.Fatalf("expected no calls after cancellation, got %v", gen.calls)
	}
}

func TestJudgeRequestTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		models    []string
		status    candidate.Status
		reasoning string
		calls     []string
	}{
		{
			name:   "next model answers",
			models: []string{"slow", "fast"},
			status: candidate.StatusGreen,
			calls:  []string{"slow", "fast"},
		},
		{
			name:      "only model hangs",
			models:    []string{"slow"},
			status:    candidate.StatusRed,
			reasoning: "LLM Error: no model answered: context deadline exceeded",
			calls:     []string{"slow"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := hangingGenerator{
				stubGenerator: &stubGenerator{answers: map[string][]stubAnswer{"fast": {{text: validAnswer}}}},
				hang:          map[string]bool{"slow": true},
			}
			judge := NewJudgeScorer(gen, JudgeConfig{
				Models:         tt.models,
				MaxAttempts:    5,
				RequestTimeout: 50 * time.Millisecond,
				TotalTimeout:   time.Minute,
			}, zap.NewNop())

			res := judge.Score(context.Background(), "r", "jd")
			if res.Status != tt.status {
				t.Fatalf("unexpected result: %+v", res)
			}
			if tt.reasoning != "" && res.Reasoning != tt.reasoning {
				t.Fatalf("reasoning = %q, want %q", res.Reasoning, tt.reasoning)
			}
			if !reflect.DeepEqual(gen.calls, tt.calls) {
				t.Fatalf("calls = %v, want %v", gen.calls, tt.calls)
			}
		})
	}
}

func TestJudgeDiscoversModelsOnce(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{
		answers: map[string][]stubAnswer{"gemini-1.5-flash": {{text: validAnswer}}},
		listed:  []string{"gemini-pro", "gemini-1.5-flash", "configured"},
	}
	gen := listingGenerator{stub}
	judge := NewJudgeScorer(gen, JudgeConfig{Models: []string{"configured"}, MaxAttempts: 5, Discover: true}, zap.NewNop())

	for i := 0; i < 3; i++ {
		if res := judge.Score(context.Background(), "r", "jd"); res.Status != candidate.StatusGreen {
			t.Fatalf("unexpected result: %+v", res)
		}
	}
	if stub.lists != 1 {
		t.Fatalf("expected one discovery call, got %d", stub.lists)
	}
	want := []string{"configured", "gemini-1.5-flash", "gemini-1.5-flash", "gemini-1.5-flash"}
	if !reflect.DeepEqual(stub.calls, want) {
		t.Fatalf("calls = %v, want %v", stub.calls, want)
	}
}

func TestJudgeDiscoveryFailureIsLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	stub := &stubGenerator{
		answers: map[string][]stubAnswer{"configured": {{text: validAnswer}}},
		listErr: errors.New("boom"),
	}
	judge := NewJudgeScorer(listingGenerator{stub}, JudgeConfig{Models: []string{"configured"}, MaxAttempts: 1, Discover: true}, zap.New(core))

	if res := judge.Score(context.Background(), "r", "jd"); res.Status != candidate.StatusGreen {
		t.Fatalf("unexpected result: %+v", res)
	}
	if logs.FilterMessage("model discovery failed, using configured models").Len() != 1 {
		t.Fatalf("expected discovery warning, got %v", logs.All())
	}
}

func TestRankModels(t *testing.T) {
	t.Parallel()

	got := RankModels([]string{"gemini-ultra", "gemini-pro", "gemini-1.5-pro", "gemini-2.0-flash", "gemini-1.5-flash"})
	want := []string{"gemini-1.5-flash", "gemini-2.0-flash", "gemini-1.5-pro", "gemini-pro", "gemini-ultra"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RankModels() = %v, want %v", got, want)
	}
}

func TestBuildPromptTruncates(t *testing.T) {
	t.Parallel()

	jd := strings.Repeat("j", maxJobDescriptionRunes+50)
	resume := strings.Repeat("é", maxResumeRunes+50)
	prompt := BuildPrompt(jd, resume)

	if strings.Contains(prompt, strings.Repeat("j", maxJobDescriptionRunes+1)) {
		t.Fatal("job description was not truncated")
	}
	if !strings.Contains(prompt, strings.Repeat("é", maxResumeRunes)) || strings.Contains(prompt, strings.Repeat("é", maxResumeRunes+1)) {
		t.Fatal("resume was not truncated to the rune limit")
	}
}
