// Package dedupe relabels candidates that share a contact email.
package dedupe

import "github.com/spigell/resume-screener/internal/candidate"

// Resolve groups records by exact non-empty email. In each group the highest
// score keeps its status, the first one on ties. Every other member becomes
// Duplicate and gets the duplicate note. Records already marked Duplicate are
// left alone and Error records never take part. The relabeled records are
// returned in input order.
func Resolve(records []*candidate.Record) []*candidate.Record {
	groups := make(map[string][]*candidate.Record)
	order := make([]string, 0)
	for _, r := range records {
		if r == nil || r.Email == "" || r.Status == candidate.StatusError {
			continue
		}
		if _, ok := groups[r.Email]; !ok {
			order = append(order, r.Email)
		}
		groups[r.Email] = append(groups[r.Email], r)
	}

	losers := make(map[*candidate.Record]struct{})
	for _, email := range order {
		group := groups[email]
		if len(group) < 2 {
			continue
		}

		keeper := group[0]
		for _, r := range group[1:] {
			if r.Score > keeper.Score {
				keeper = r
			}
		}

		for _, r := range group {
			if r != keeper && r.Status != candidate.StatusDuplicate {
				losers[r] = struct{}{}
			}
		}
	}

	changed := make([]*candidate.Record, 0, len(losers))
	for _, r := range records {
		if _, ok := losers[r]; !ok {
			continue
		}
		r.Status = candidate.StatusDuplicate
		r.AppendNote(candidate.DuplicateNote)
		changed = append(changed, r)
	}
	return changed
}
