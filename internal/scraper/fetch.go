package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// Fetcher loads a job page and returns its parsed document.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)
}

func httpHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "JobTracker/0.1",
		"Accept-Language": "en-US,en;q=0.9",
	}
}

type CollyFetcher struct {
	timeout time.Duration
	delay   time.Duration
}

func NewCollyFetcher(timeout time.Duration) *CollyFetcher {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &CollyFetcher{timeout: timeout, delay: 450 * time.Millisecond}
}

func (f *CollyFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if f == nil {
		return nil, fmt.Errorf("nil fetcher")
	}
	allowed := hostFromURL(pageURL)
	if strings.TrimSpace(allowed) == "" {
		return nil, fmt.Errorf("invalid page url %q", pageURL)
	}
	c := colly.NewCollector(colly.AllowedDomains(sameSite(allowed)...))
	c.SetRequestTimeout(f.timeout)
	_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 2, Delay: f.delay})

	var (
		body   []byte
		reqErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		for k, v := range httpHeaders() {
			r.Headers.Set(k, v)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		reqErr = err
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := c.Visit(pageURL); err != nil {
		return nil, err
	}
	c.Wait()
	if reqErr != nil {
		return nil, reqErr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if body == nil {
		return nil, fmt.Errorf("empty response from %s", pageURL)
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// sameSite lists host with its www twin so redirects such as linkedin.com to
// www.linkedin.com are followed.
func sameSite(host string) []string {
	if host == "localhost" || net.ParseIP(host) != nil {
		return []string{host}
	}
	if bare, ok := strings.CutPrefix(host, "www."); ok && bare != "" {
		return []string{host, bare}
	}
	return []string{host, "www." + host}
}
