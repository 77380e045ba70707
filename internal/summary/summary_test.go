package summary

import (
	"testing"

	"github.com/spigell/resume-screener/internal/candidate"
)

func rec(score float64, status candidate.Status) *candidate.Record {
	r := candidate.New("f")
	r.Score = score
	r.Status = status
	return r
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records []*candidate.Record
		expect  Summary
	}{
		{
			name:    "mean includes error records",
			records: []*candidate.Record{rec(100, candidate.StatusGreen), rec(0, candidate.StatusError), rec(50, candidate.StatusYellow)},
			expect:  Summary{Total: 3, Valid: 2, Green: 1, Yellow: 1, Errors: 1, AvgScore: 50},
		},
		{
			name:    "duplicates are not valid",
			records: []*candidate.Record{rec(80, candidate.StatusGreen), rec(60, candidate.StatusDuplicate), rec(10, candidate.StatusRed)},
			expect:  Summary{Total: 3, Valid: 2, Green: 1, Red: 1, Duplicates: 1, AvgScore: 50},
		},
		{
			name:   "empty batch",
			expect: Summary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Summarize(tt.records); got != tt.expect {
				t.Fatalf("Summarize() = %+v, want %+v", got, tt.expect)
			}
		})
	}
}

func TestSummarizeIsRederivable(t *testing.T) {
	t.Parallel()

	records := []*candidate.Record{rec(70, candidate.StatusGreen), rec(30, candidate.StatusRed)}
	first := Summarize(records)
	records[1].Status = candidate.StatusDuplicate
	second := Summarize(records)

	if first.Red != 1 || second.Red != 0 || second.Duplicates != 1 {
		t.Fatalf("summary did not follow the batch: %+v then %+v", first, second)
	}
}

func TestRows(t *testing.T) {
	t.Parallel()

	rows := Summary{Total: 2, AvgScore: 12.5}.Rows()
	if len(rows) != 8 {
		t.Fatalf("expected 8 rows, got %d", len(rows))
	}
	if rows[0][0] != "Total Candidates" || rows[0][1] != 2 {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[7][1] != 12.5 {
		t.Fatalf("unexpected average row: %v", rows[7])
	}
}
