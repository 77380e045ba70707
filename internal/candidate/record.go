package candidate

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// Status is the outcome bucket assigned to a record.
type Status string

const (
	StatusGreen     Status = "Green"
	StatusYellow    Status = "Yellow"
	StatusRed       Status = "Red"
	StatusDuplicate Status = "Duplicate"
	StatusError     Status = "Error"
)

// Statuses lists every status in report order.
var Statuses = []Status{StatusGreen, StatusYellow, StatusRed, StatusDuplicate, StatusError}

// ParseStatus matches s against the known statuses ignoring case.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, status := range Statuses {
		if strings.EqualFold(string(status), s) {
			return status, true
		}
	}
	return "", false
}

// Key is the lowercase form used for template lookup.
func (s Status) Key() string {
	return strings.ToLower(string(s))
}

const DuplicateNote = " [Duplicate Email]"

// Record holds everything known about one input file.
type Record struct {
	Filename         string   `json:"filename"`
	RawText          string   `json:"-"`
	CandidateName    string   `json:"candidate_name"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	ExtractionFailed bool     `json:"extraction_failed"`
	Score            float64  `json:"score"`
	Status           Status   `json:"status"`
	Reasoning        string   `json:"reasoning"`
	MatchedKeywords  []string `json:"matched_keywords"`
	Notes            string   `json:"notes"`
	EmailDraft       string   `json:"email_draft"`
}

// New creates a record for the given file name.
func New(filename string) *Record {
	return &Record{Filename: filename, MatchedKeywords: []string{}}
}

// MarkFailed puts the record into the extraction failure state.
func (r *Record) MarkFailed(reason string) {
	r.RawText = ""
	r.ExtractionFailed = true
	r.Score = 0
	r.Status = StatusError
	r.MatchedKeywords = []string{}
	r.Reasoning = reason
	r.AppendNote(reason)
}

// AppendNote adds text to the notes without touching what is already there.
func (r *Record) AppendNote(note string) {
	r.Notes += note
}

// Keywords returns the matched keywords joined for display.
func (r *Record) Keywords() string {
	return strings.Join(r.MatchedKeywords, ", ")
}

// Batch is the ordered set of records of a single run.
type Batch struct {
	Items []*Record `json:"items"`
}

func (b *Batch) Len() int {
	return len(b.Items)
}

// WithStatus returns the records carrying the provided status in input order.
func (b *Batch) WithStatus(status Status) []*Record {
	out := make([]*Record, 0)
	for _, r := range b.Items {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// Ranked returns a copy of the records ordered by score, highest first.
// Equal scores keep input order.
func (b *Batch) Ranked() []*Record {
	out := make([]*Record, len(b.Items))
	copy(out, b.Items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// DumpToTmpFile writes the batch as indented JSON into a temp file and returns its name.
func (b *Batch) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "candidates_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return "", err
	}
	return file.Name(), nil
}
