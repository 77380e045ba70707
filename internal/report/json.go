package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/summary"
)

// Document is the JSON export layout.
type Document struct {
	Summary    summary.Summary     `json:"summary"`
	Candidates []*candidate.Record `json:"candidates"`
}

// NewDocument builds a sanitized, ranked copy of the batch.
func NewDocument(batch *candidate.Batch, sum summary.Summary) Document {
	ranked := batch.Ranked()
	out := make([]*candidate.Record, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, sanitized(r))
	}
	return Document{Summary: sum, Candidates: out}
}

// WriteJSON writes the batch and its summary as indented JSON to path.
func WriteJSON(path string, batch *candidate.Batch, sum summary.Summary) error {
	data, err := json.MarshalIndent(NewDocument(batch, sum), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func sanitized(r *candidate.Record) *candidate.Record {
	c := *r
	c.Filename = Sanitize(r.Filename)
	c.CandidateName = Sanitize(r.CandidateName)
	c.Email = Sanitize(r.Email)
	c.Phone = Sanitize(r.Phone)
	c.Reasoning = Sanitize(r.Reasoning)
	c.Notes = Sanitize(r.Notes)
	c.EmailDraft = Sanitize(r.EmailDraft)
	c.MatchedKeywords = make([]string, len(r.MatchedKeywords))
	for i, k := range r.MatchedKeywords {
		c.MatchedKeywords[i] = Sanitize(k)
	}
	return &c
}
