package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// JobPosting is the subset of schema.org/JobPosting the scrapers read.
type JobPosting struct {
	Title              string
	HiringOrganization string
}

// JobPostings parses every application/ld+json block in the document and
// returns the postings found, JobPosting-typed objects first. Blocks that do
// not parse are logged and skipped.
func JobPostings(doc *goquery.Document, logger *zap.Logger) []JobPosting {
	if doc == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	typed := make([]JobPosting, 0)
	loose := make([]JobPosting, 0)

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			logger.Debug("skip malformed json-ld block", zap.Int("index", i), zap.Error(err))
			return
		}

		for _, obj := range flattenLD(data) {
			p, ok := postingFrom(obj)
			if !ok {
				continue
			}
			if isJobPosting(obj["@type"]) {
				typed = append(typed, p)
			} else {
				loose = append(loose, p)
			}
		}
	})

	return append(typed, loose...)
}

// flattenLD handles single objects, top-level arrays and @graph containers.
func flattenLD(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := []map[string]any{t}
		if g, ok := t["@graph"]; ok {
			out = append(out, flattenLD(g)...)
		}
		return out
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			out = append(out, flattenLD(item)...)
		}
		return out
	default:
		return nil
	}
}

func isJobPosting(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, "JobPosting")
	case []any:
		for _, item := range t {
			if isJobPosting(item) {
				return true
			}
		}
	}
	return false
}

func postingFrom(obj map[string]any) (JobPosting, bool) {
	p := JobPosting{
		Title:              stringValue(obj["title"]),
		HiringOrganization: organizationName(obj["hiringOrganization"]),
	}
	if p.Title == "" && p.HiringOrganization == "" {
		return JobPosting{}, false
	}
	return p, true
}

func organizationName(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return stringValue(t["name"])
	case []any:
		for _, item := range t {
			if n := organizationName(item); n != "" {
				return n
			}
		}
	}
	return ""
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
