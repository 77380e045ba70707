// Package summary derives batch statistics.
package summary

import "github.com/spigell/resume-screener/internal/candidate"

// Summary is recomputed from scratch on every call to Summarize.
type Summary struct {
	Total      int     `json:"total"`
	Valid      int     `json:"valid_count"`
	Green      int     `json:"green"`
	Yellow     int     `json:"yellow"`
	Red        int     `json:"red"`
	Duplicates int     `json:"duplicates"`
	Errors     int     `json:"errors"`
	AvgScore   float64 `json:"avg_score"`
}

// Summarize counts statuses and averages the score over every record,
// Duplicate and Error ones included.
func Summarize(records []*candidate.Record) Summary {
	var s Summary
	var total float64
	for _, r := range records {
		if r == nil {
			continue
		}
		s.Total++
		total += r.Score

		switch r.Status {
		case candidate.StatusGreen:
			s.Green++
		case candidate.StatusYellow:
			s.Yellow++
		case candidate.StatusRed:
			s.Red++
		case candidate.StatusDuplicate:
			s.Duplicates++
		case candidate.StatusError:
			s.Errors++
		}
	}

	s.Valid = s.Total - s.Duplicates - s.Errors
	if s.Total > 0 {
		s.AvgScore = total / float64(s.Total)
	}
	return s
}

// Rows renders the summary as label/value pairs in display order.
func (s Summary) Rows() [][2]any {
	return [][2]any{
		{"Total Candidates", s.Total},
		{"Valid Candidates", s.Valid},
		{"Shortlisted (Green)", s.Green},
		{"Under Review (Yellow)", s.Yellow},
		{"Rejected (Red)", s.Red},
		{"Duplicates", s.Duplicates},
		{"Errors", s.Errors},
		{"Average Score", s.AvgScore},
	}
}
