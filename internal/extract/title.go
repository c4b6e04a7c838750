package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// A hyphen only separates when surrounded by spaces, so "Full-Stack
	// Engineer" survives as one segment.
	titleSepRe = regexp.MustCompile(`\s*\|\s*|\s+[-–—]\s+`)
	atRe       = regexp.MustCompile(`(?i)(?:^|\s)at\s+(.+?)\s*(?:\||\s[-–—]\s|$)`)
)

func PageTitle(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	return Normalize(doc.Find("title").First().Text())
}

// TitleSegments splits a page title on |, - and – separators and drops
// empty pieces.
func TitleSegments(title string) []string {
	title = Normalize(title)
	if title == "" {
		return nil
	}
	parts := titleSepRe.Split(title, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CompanyFromAt reads titles shaped like "Engineer at Acme | LinkedIn".
func CompanyFromAt(title string) string {
	m := atRe.FindStringSubmatch(Normalize(title))
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
