package skill

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const DefaultMax = 15

// Term is one vocabulary entry. Pattern is a regular expression fragment;
// when empty the quoted Name is used.
type Term struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern,omitempty"`
}

type compiledTerm struct {
	name string
	re   *regexp.Regexp
}

type Extractor struct {
	terms   []compiledTerm
	aliases map[string]string
	max     int
}

type Option func(*options)

type options struct {
	logger *zap.Logger
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New compiles the vocabulary. Terms whose pattern does not compile are
// logged and left out; they never abort construction.
func New(terms []Term, aliases map[string]string, max int, opts ...Option) *Extractor {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if max <= 0 {
		max = DefaultMax
	}

	e := &Extractor{
		terms:   make([]compiledTerm, 0, len(terms)),
		aliases: make(map[string]string, len(aliases)),
		max:     max,
	}
	for k, v := range aliases {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		e.aliases[k] = v
	}

	for _, t := range terms {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		pat := t.Pattern
		if strings.TrimSpace(pat) == "" {
			pat = regexp.QuoteMeta(name)
		}
		re, err := regexp.Compile(`(?i)(?:^|[^A-Za-z0-9])(` + pat + `)(?:[^A-Za-z0-9]|$)`)
		if err != nil {
			o.logger.Warn("skip skill term with invalid pattern", zap.String("term", name), zap.Error(err))
			continue
		}
		e.terms = append(e.terms, compiledTerm{name: name, re: re})
	}
	return e
}

func (e *Extractor) Max() int {
	if e == nil {
		return 0
	}
	return e.max
}

// Extract scans text once per vocabulary term, in vocabulary order, and
// returns the unique canonical names found, at most Max of them.
func (e *Extractor) Extract(text string) []string {
	out := make([]string, 0)
	if e == nil || strings.TrimSpace(text) == "" {
		return out
	}

	seen := make(map[string]struct{}, e.max)
	for _, t := range e.terms {
		if len(out) >= e.max {
			break
		}
		m := t.re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		name := e.Canonical(m[1], t.name)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Canonical maps a matched spelling through the alias table, falling back
// to the term's own name.
func (e *Extractor) Canonical(matched, fallback string) string {
	if e != nil {
		if v, ok := e.aliases[strings.ToLower(strings.TrimSpace(matched))]; ok {
			return v
		}
	}
	return fallback
}

// Merge appends extra names not already present and caps the result.
func (e *Extractor) Merge(skills []string, extra ...string) []string {
	out := make([]string, 0, len(skills)+len(extra))
	seen := make(map[string]struct{}, len(skills)+len(extra))
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range skills {
		add(s)
	}
	for _, s := range extra {
		add(s)
	}
	if max := e.Max(); max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
