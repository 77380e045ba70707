package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/spigell/resume-screener/internal/candidate"
)

// Result is what every scoring strategy produces for one resume.
type Result struct {
	Score           float64
	Status          candidate.Status
	Reasoning       string
	MatchedKeywords []string
}

// Clamp returns r with its score bounded to [0, 100].
func (r Result) Clamp() Result {
	r.Score = Clamp(r.Score)
	return r
}

// Scorer evaluates resume text against a job description. Implementations
// never fail: problems are folded into a Red result with an explanation.
type Scorer interface {
	Name() string
	Score(ctx context.Context, resumeText, jobDescription string) Result
}

// ScoringError wraps a remote judge failure. It never leaves the scorer; it
// only ends up in the reasoning of a fail-safe result.
type ScoringError struct {
	Err error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("LLM Error: %v", e.Err)
}

func (e *ScoringError) Unwrap() error {
	return e.Err
}

// Thresholds map a score onto Red, Yellow or Green.
type Thresholds struct {
	Red   float64
	Green float64
}

// Status returns Red below Red, Green at or above Green and Yellow in between.
func (t Thresholds) Status(score float64) candidate.Status {
	switch {
	case score < t.Red:
		return candidate.StatusRed
	case score < t.Green:
		return candidate.StatusYellow
	default:
		return candidate.StatusGreen
	}
}

// Clamp bounds score to [0, 100]. NaN becomes 0.
func Clamp(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Min(100, math.Max(0, score))
}

func failSafe(err error) Result {
	return Result{
		Score:           0,
		Status:          candidate.StatusRed,
		Reasoning:       (&ScoringError{Err: err}).Error(),
		MatchedKeywords: []string{},
	}
}
