package scraper

import (
	"context"
	"fmt"
	"strings"

	"job-tracker/internal/domain/application"
)

type BatchOptions struct {
	Workers int
	// RatePerSecond caps page fetches across all workers; 0 disables it.
	RatePerSecond int
}

// FetchAndScrape loads pageURL with f and runs the dispatched profile.
func (r *Registry) FetchAndScrape(ctx context.Context, f Fetcher, pageURL string) (application.Draft, error) {
	if f == nil {
		return application.Draft{}, fmt.Errorf("nil fetcher")
	}
	doc, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return application.Draft{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return r.Scrape(doc, pageURL), nil
}

// ScrapeAll fetches and scrapes urls concurrently. Results come back in
// input order; a failed page carries its error and leaves the rest intact.
func (r *Registry) ScrapeAll(ctx context.Context, f Fetcher, urls []string, opts BatchOptions) []Result {
	results := make([]Result, len(urls))
	if len(urls) == 0 {
		return results
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(urls) {
		workers = len(urls)
	}

	pool := NewWorkerPool(workers, workers*2)
	pool.SetRateLimit(opts.RatePerSecond)
	out := pool.Run(ctx)

	run := func(ctx context.Context, pageURL string) (application.Draft, error) {
		return r.FetchAndScrape(ctx, f, pageURL)
	}

	pending := make([]bool, len(urls))
	for i, u := range urls {
		results[i] = Result{Index: i, URL: u}
		pending[i] = true
	}

	go func() {
		defer pool.Close()
		for i, u := range urls {
			if !pool.SubmitContext(ctx, Task{Index: i, URL: strings.TrimSpace(u), Run: run}) {
				return
			}
		}
	}()

	for res := range out {
		res.URL = urls[res.Index]
		results[res.Index] = res
		pending[res.Index] = false
	}
	for i := range results {
		if pending[i] {
			results[i].Err = context.Cause(ctx)
			if results[i].Err == nil {
				results[i].Err = context.Canceled
			}
		}
	}
	return results
}
