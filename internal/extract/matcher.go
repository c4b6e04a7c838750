package extract

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var (
	compiledMu sync.RWMutex
	compiled   = map[string]compiledLocator{}
)

type compiledLocator struct {
	sel cascadia.Selector
	ok  bool
}

func compile(locator string) (cascadia.Selector, bool) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, false
	}

	compiledMu.RLock()
	c, hit := compiled[locator]
	compiledMu.RUnlock()
	if hit {
		return c.sel, c.ok
	}

	sel, err := cascadia.Compile(locator)
	c = compiledLocator{sel: sel, ok: err == nil}

	compiledMu.Lock()
	compiled[locator] = c
	compiledMu.Unlock()
	return c.sel, c.ok
}

// Valid reports whether locator compiles as a CSS selector.
func Valid(locator string) bool {
	_, ok := compile(locator)
	return ok
}

// FirstMatch returns the trimmed text of the first locator that resolves to
// an element with non-empty text. Invalid locators are skipped.
func FirstMatch(doc *goquery.Document, locators ...string) string {
	s := FirstSelection(doc, locators...)
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.Text())
}

// FirstSelection is FirstMatch returning the element instead of its text.
func FirstSelection(doc *goquery.Document, locators ...string) *goquery.Selection {
	if doc == nil {
		return nil
	}
	for _, loc := range locators {
		sel, ok := compile(loc)
		if !ok {
			continue
		}
		first := doc.FindMatcher(sel).First()
		if first.Length() == 0 {
			continue
		}
		if strings.TrimSpace(first.Text()) == "" {
			continue
		}
		return first
	}
	return nil
}

// All returns the trimmed, non-empty texts of every element matching any of
// the locators, in document order per locator.
func All(doc *goquery.Document, locators ...string) []string {
	if doc == nil {
		return nil
	}
	out := make([]string, 0)
	for _, loc := range locators {
		sel, ok := compile(loc)
		if !ok {
			continue
		}
		doc.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				out = append(out, t)
			}
		})
	}
	return out
}
