package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/resume-screener/internal/candidate"
)

const (
	minKeywordLength = 4
	reasoningSamples = 10
	bonusFactor      = 10.0
)

// KeywordScorer scores by the share of job description words found in the resume.
type KeywordScorer struct {
	thresholds   Thresholds
	bonusWeights map[string]float64
	bonusKeys    []string
}

// NewKeywordScorer creates a deterministic keyword scorer. Bonus weight keys are
// matched case-insensitively.
func NewKeywordScorer(thresholds Thresholds, bonusWeights map[string]float64) *KeywordScorer {
	weights := make(map[string]float64, len(bonusWeights))
	for k, w := range bonusWeights {
		weights[strings.ToLower(strings.TrimSpace(k))] += w - 1.0
	}

	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &KeywordScorer{thresholds: thresholds, bonusWeights: weights, bonusKeys: keys}
}

func (s *KeywordScorer) Name() string {
	return "keyword"
}

func (s *KeywordScorer) Score(_ context.Context, resumeText, jobDescription string) Result {
	keywords := Keywords(jobDescription)
	if len(keywords) == 0 {
		return Result{
			Score:           0,
			Status:          candidate.StatusRed,
			Reasoning:       "No valid keywords in job description",
			MatchedKeywords: []string{},
		}
	}

	resumeLower := strings.ToLower(resumeText)
	matched := make([]string, 0, len(keywords))
	matchedSet := make(map[string]struct{}, len(keywords))
	for _, word := range keywords {
		if strings.Contains(resumeLower, word) {
			matched = append(matched, word)
			matchedSet[word] = struct{}{}
		}
	}

	score := 100 * float64(len(matched)) / float64(len(keywords))
	for _, key := range s.bonusKeys {
		if _, ok := matchedSet[key]; ok {
			score += bonusFactor * s.bonusWeights[key]
		}
	}
	score = Clamp(score)

	return Result{
		Score:           score,
		Status:          s.thresholds.Status(score),
		Reasoning:       keywordReasoning(matched, len(keywords)),
		MatchedKeywords: matched,
	}
}

// Keywords returns the distinct lowercased words of at least four runes in
// order of first appearance.
func Keywords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})

	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) < minKeywordLength {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func keywordReasoning(matched []string, total int) string {
	sample := matched
	suffix := ""
	if len(sample) > reasoningSamples {
		sample = sample[:reasoningSamples]
		suffix = "..."
	}
	return fmt.Sprintf("Matched %d of %d keywords: %s%s", len(matched), total, strings.Join(sample, ", "), suffix)
}
