package scraper

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"job-tracker/internal/extract"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

type Site string

const (
	SiteLinkedIn  Site = "linkedin"
	SiteNaukri    Site = "naukri"
	SiteIndeed    Site = "indeed"
	SiteGlassdoor Site = "glassdoor"
	SiteGeneric   Site = "generic"
)

// Field is one cascade: DOM locators first, then fallback steps, in order.
type Field struct {
	Locators  []string
	Fallbacks []Step
}

type Profile struct {
	Site        Site
	Hosts       []string
	Company     Field
	Position    Field
	Location    Field
	Salary      Field
	Description Field
	SkillTags   []string
}

// Page is the document being scraped plus lazily derived views of it.
type Page struct {
	URL    string
	Doc    *goquery.Document
	logger *zap.Logger

	title     *string
	postings  []extract.JobPosting
	ldScanned bool
}

func NewPage(pageURL string, doc *goquery.Document, logger *zap.Logger) *Page {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{URL: pageURL, Doc: doc, logger: logger}
}

func (p *Page) Title() string {
	if p.title == nil {
		t := extract.PageTitle(p.Doc)
		p.title = &t
	}
	return *p.title
}

func (p *Page) Postings() []extract.JobPosting {
	if !p.ldScanned {
		p.postings = extract.JobPostings(p.Doc, p.logger)
		p.ldScanned = true
	}
	return p.postings
}

func (p *Page) Host() string {
	return hostFromURL(p.URL)
}

// Step is a fallback strategy tried after a field's DOM locators miss.
type Step interface {
	Resolve(p *Page) string
}

type JSONLDCompany struct{}

func (JSONLDCompany) Resolve(p *Page) string {
	for _, jp := range p.Postings() {
		if jp.HiringOrganization != "" {
			return jp.HiringOrganization
		}
	}
	return ""
}

type JSONLDTitle struct{}

func (JSONLDTitle) Resolve(p *Page) string {
	for _, jp := range p.Postings() {
		if jp.Title != "" {
			return jp.Title
		}
	}
	return ""
}

// TitleSegment picks one piece of the split page title. Segments that name
// a job site (RejectIfContains, or the page's own domain when RejectHost is
// set) do not count.
type TitleSegment struct {
	Index            int
	MinSegments      int
	RejectIfContains []string
	RejectHost       bool
}

func (s TitleSegment) Resolve(p *Page) string {
	segs := extract.TitleSegments(p.Title())
	if len(segs) <= s.Index || len(segs) < s.MinSegments {
		return ""
	}
	seg := segs[s.Index]
	lower := strings.ToLower(seg)
	for _, r := range s.RejectIfContains {
		if r != "" && strings.Contains(lower, strings.ToLower(r)) {
			return ""
		}
	}
	if s.RejectHost {
		if label := siteLabel(p.Host()); label != "" && strings.Contains(lower, label+".") {
			return ""
		}
	}
	return seg
}

// TitleAtCompany reads "Position at Company | Site" titles.
type TitleAtCompany struct{}

func (TitleAtCompany) Resolve(p *Page) string {
	return extract.CompanyFromAt(p.Title())
}

// LinkText takes the first element matching Selector and uses its text,
// or Attr when the text is empty.
type LinkText struct {
	Selector string
	Attr     string
}

func (s LinkText) Resolve(p *Page) string {
	if p.Doc == nil || !extract.Valid(s.Selector) {
		return ""
	}
	first := p.Doc.Find(s.Selector).First()
	if first.Length() == 0 {
		return ""
	}
	if t := strings.TrimSpace(first.Text()); t != "" {
		return t
	}
	if s.Attr != "" {
		v, _ := first.Attr(s.Attr)
		return strings.TrimSpace(v)
	}
	return ""
}

// URLPattern extracts the first capture group from the page URL and turns
// slug dashes into spaces.
type URLPattern struct {
	Pattern *regexp.Regexp
}

func (s URLPattern) Resolve(p *Page) string {
	if s.Pattern == nil {
		return ""
	}
	m := s.Pattern.FindStringSubmatch(p.URL)
	if len(m) < 2 {
		return ""
	}
	slug := m[1]
	if u, err := url.PathUnescape(slug); err == nil {
		slug = u
	}
	return strings.TrimSpace(strings.ReplaceAll(slug, "-", " "))
}

// MainContent slices the text of a broad container, used as the last
// resort for descriptions.
type MainContent struct {
	Selector string
	Limit    int
}

func (s MainContent) Resolve(p *Page) string {
	if p.Doc == nil || !extract.Valid(s.Selector) {
		return ""
	}
	text := extract.Normalize(p.Doc.Find(s.Selector).First().Text())
	return extract.Truncate(text, s.Limit)
}

func hostFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := u.Host
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return strings.ToLower(h)
	}
	return strings.ToLower(host)
}

// siteLabel returns the second-level label of host: "naukri" for
// www.naukri.com.
func siteLabel(host string) string {
	parts := strings.Split(strings.Trim(host, "."), ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}
