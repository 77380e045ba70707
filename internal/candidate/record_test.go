package candidate

import (
	"encoding/json"
	"os"
	"testing"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect Status
		ok     bool
	}{
		{input: "green", expect: StatusGreen, ok: true},
		{input: " YELLOW ", expect: StatusYellow, ok: true},
		{input: "Red", expect: StatusRed, ok: true},
		{input: "duplicate", expect: StatusDuplicate, ok: true},
		{input: "purple", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseStatus(tt.input)
			if ok != tt.ok || got != tt.expect {
				t.Fatalf("ParseStatus(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.expect, tt.ok)
			}
		})
	}
}

func TestMarkFailedResetsScoring(t *testing.T) {
	r := New("broken.pdf")
	r.Score = 80
	r.Status = StatusGreen
	r.MatchedKeywords = []string{"golang"}
	r.Notes = "existing"

	r.MarkFailed("Failed to extract text")

	if !r.ExtractionFailed || r.Status != StatusError || r.Score != 0 {
		t.Fatalf("unexpected failure state: %+v", r)
	}
	if len(r.MatchedKeywords) != 0 {
		t.Fatalf("expected no keywords, got %v", r.MatchedKeywords)
	}
	if r.Notes != "existingFailed to extract text" {
		t.Fatalf("notes must accumulate, got %q", r.Notes)
	}
}

func TestBatchRankedIsStable(t *testing.T) {
	batch := &Batch{Items: []*Record{
		{Filename: "a", Score: 50},
		{Filename: "b", Score: 90},
		{Filename: "c", Score: 50},
	}}

	ranked := batch.Ranked()
	order := []string{ranked[0].Filename, ranked[1].Filename, ranked[2].Filename}
	if order[0] != "b" || order[1] != "a" || order[2] != "c" {
		t.Fatalf("unexpected order: %v", order)
	}

	if batch.Items[0].Filename != "a" {
		t.Fatalf("ranking must not reorder the batch")
	}
}

func TestBatchWithStatus(t *testing.T) {
	batch := &Batch{Items: []*Record{
		{Filename: "a", Status: StatusGreen},
		{Filename: "b", Status: StatusRed},
		{Filename: "c", Status: StatusGreen},
	}}

	if got := batch.WithStatus(StatusGreen); len(got) != 2 {
		t.Fatalf("expected 2 green records, got %d", len(got))
	}
	if got := batch.WithStatus(StatusDuplicate); len(got) != 0 {
		t.Fatalf("expected no duplicates, got %d", len(got))
	}
	if got := batch.WithStatus(StatusGreen); got[0].Filename != "a" || got[1].Filename != "c" {
		t.Fatalf("records must keep batch order, got %s, %s", got[0].Filename, got[1].Filename)
	}
}

func TestDumpToTmpFileOmitsRawText(t *testing.T) {
	batch := &Batch{Items: []*Record{{Filename: "a.txt", RawText: "secret body", Status: StatusRed}}}

	name, err := batch.DumpToTmpFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { os.Remove(name) })

	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}

	var decoded struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	if len(decoded.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(decoded.Items))
	}
	if _, ok := decoded.Items[0]["RawText"]; ok {
		t.Fatalf("raw text must not be dumped")
	}
	if decoded.Items[0]["status"] != "Red" {
		t.Fatalf("unexpected status: %v", decoded.Items[0]["status"])
	}
}
