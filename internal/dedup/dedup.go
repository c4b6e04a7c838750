package dedup

import (
	"job-tracker/internal/domain/application"
)

// IsDuplicate reports whether draft is already tracked: same non-empty URL,
// or the same company and position. Comparison is exact and case-sensitive
// on the normalized values the scrapers produce.
func IsDuplicate(draft application.Draft, records []application.Record) bool {
	_, ok := Find(draft, records)
	return ok
}

// Find returns the first record draft duplicates.
func Find(draft application.Draft, records []application.Record) (application.Record, bool) {
	for _, r := range records {
		if draft.URL != "" && r.URL == draft.URL {
			return r, true
		}
		if r.Company == draft.Company && r.Position == draft.Position {
			return r, true
		}
	}
	return application.Record{}, false
}
