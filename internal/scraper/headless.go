package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// HeadlessFetcher renders the page in headless Chrome so client-side job
// boards (LinkedIn, Glassdoor) expose their DOM before extraction.
type HeadlessFetcher struct {
	timeout time.Duration
	settle  time.Duration
}

func NewHeadlessFetcher(timeout time.Duration) *HeadlessFetcher {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &HeadlessFetcher{timeout: timeout, settle: 1500 * time.Millisecond}
}

func (f *HeadlessFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if f == nil {
		return nil, fmt.Errorf("nil fetcher")
	}
	if hostFromURL(pageURL) == "" {
		return nil, fmt.Errorf("invalid page url %q", pageURL)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"),
		)...,
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	reqCtx, reqCancel := context.WithTimeout(browserCtx, f.timeout)
	defer reqCancel()

	var html string
	err := chromedp.Run(reqCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("empty document (headless)")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
