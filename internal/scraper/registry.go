package scraper

import (
	"fmt"
	"io"
	"strings"

	"job-tracker/internal/domain/application"
	"job-tracker/internal/extract"
	"job-tracker/internal/skill"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

type Registry struct {
	profiles []Profile
	generic  Profile
	skills   *skill.Extractor
	logger   *zap.Logger
}

func NewRegistry(skills *skill.Extractor, logger *zap.Logger) *Registry {
	if skills == nil {
		skills = skill.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		profiles: Profiles(),
		generic:  Generic(),
		skills:   skills,
		logger:   logger,
	}
}

// Dispatch names the site profile used for pageURL.
func Dispatch(pageURL string) Site {
	if p, ok := match(Profiles(), pageURL); ok {
		return p.Site
	}
	return SiteGeneric
}

// match checks profiles in order against the URL host, or against the whole
// URL when it has no parseable host.
func match(profiles []Profile, pageURL string) (Profile, bool) {
	host := hostFromURL(pageURL)
	raw := strings.ToLower(pageURL)
	for _, p := range profiles {
		for _, h := range p.Hosts {
			if host != "" && (host == h || strings.HasSuffix(host, "."+h)) {
				return p, true
			}
			if host == "" && strings.Contains(raw, h) {
				return p, true
			}
		}
	}
	return Profile{}, false
}

// Profile returns the profile for pageURL, generic when no site matches.
func (r *Registry) Profile(pageURL string) Profile {
	if p, ok := match(r.profiles, pageURL); ok {
		return p
	}
	return r.generic
}

// Scrape runs the dispatched profile over doc.
func (r *Registry) Scrape(doc *goquery.Document, pageURL string) application.Draft {
	p := r.Profile(pageURL)
	draft := r.Evaluate(p, NewPage(pageURL, doc, r.logger))
	r.logger.Debug("scraped page",
		zap.String("site", string(p.Site)),
		zap.String("url", pageURL),
		zap.String("company", draft.Company),
		zap.String("position", draft.Position),
		zap.Int("skills", len(draft.Skills)),
	)
	return draft
}

func (r *Registry) ScrapeHTML(pageURL string, body io.Reader) (application.Draft, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return application.Draft{}, fmt.Errorf("parse html: %w", err)
	}
	return r.Scrape(doc, pageURL), nil
}

// Evaluate resolves every field of p against page. Text fields are
// whitespace-normalized; the description is cut to DescriptionLimit before
// skills are read from it.
func (r *Registry) Evaluate(p Profile, page *Page) application.Draft {
	description := extract.Truncate(resolve(p.Description, page), extract.DescriptionLimit)

	skills := r.skills.Extract(description)
	if len(p.SkillTags) > 0 {
		skills = r.skills.Merge(skills, extract.All(page.Doc, p.SkillTags...)...)
	}

	return application.Draft{
		Company:     resolve(p.Company, page),
		Position:    resolve(p.Position, page),
		Location:    resolve(p.Location, page),
		Salary:      resolve(p.Salary, page),
		Skills:      skills,
		Description: description,
		URL:         page.URL,
	}
}

func resolve(f Field, page *Page) string {
	if v := extract.Normalize(extract.FirstMatch(page.Doc, f.Locators...)); v != "" {
		return v
	}
	for _, step := range f.Fallbacks {
		if v := extract.Normalize(step.Resolve(page)); v != "" {
			return v
		}
	}
	return ""
}
