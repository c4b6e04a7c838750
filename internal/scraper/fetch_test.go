package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollyFetcher_FetchAndScrape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "missing ua", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Site Reliability Engineer - Initech</title></head>
			<body><h1>Site Reliability Engineer</h1>
			<div class="company-name">Initech</div>
			<div class="job-description">Run Kubernetes and Terraform on AWS.</div></body></html>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	f := NewCollyFetcher(5 * time.Second)
	f.delay = 0
	r := NewRegistry(nil, nil)

	d, err := r.FetchAndScrape(ctx, f, server.URL+"/jobs/1")
	require.NoError(t, err)
	assert.Equal(t, "Initech", d.Company)
	assert.Equal(t, "Site Reliability Engineer", d.Position)
	assert.Equal(t, []string{"AWS", "Kubernetes", "Terraform"}, d.Skills)
	assert.Equal(t, server.URL+"/jobs/1", d.URL)

	_, err = r.FetchAndScrape(ctx, f, server.URL+"/missing")
	assert.Error(t, err)
}

func TestCollyFetcher_InvalidURL(t *testing.T) {
	_, err := NewCollyFetcher(0).Fetch(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestSameSite(t *testing.T) {
	assert.Equal(t, []string{"linkedin.com", "www.linkedin.com"}, sameSite("linkedin.com"))
	assert.Equal(t, []string{"www.indeed.com", "indeed.com"}, sameSite("www.indeed.com"))
	assert.Equal(t, []string{"127.0.0.1"}, sameSite("127.0.0.1"))
	assert.Equal(t, []string{"localhost"}, sameSite("localhost"))
}

func TestCollyFetcher_FollowsSameHostRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/1", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/view/1", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/view/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Moved</title></head><body></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := NewCollyFetcher(5 * time.Second)
	f.delay = 0
	doc, err := f.Fetch(context.Background(), server.URL+"/jobs/1")
	require.NoError(t, err)
	assert.Equal(t, "Moved", doc.Find("title").Text())
}

func TestCollyFetcher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCollyFetcher(time.Second).Fetch(ctx, "http://127.0.0.1:1/x")
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeFetcher struct {
	pages map[string]string
	calls atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	html, ok := f.pages[pageURL]
	if !ok {
		return nil, errors.New("not found")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func TestScrapeAll_KeepsInputOrder(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}
	urls := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		u := fmt.Sprintf("https://jobs.example.com/%d", i)
		urls = append(urls, u)
		if i == 5 {
			continue
		}
		f.pages[u] = fmt.Sprintf(`<html><body><h1>Role %d</h1></body></html>`, i)
	}

	r := NewRegistry(nil, nil)
	res := r.ScrapeAll(context.Background(), f, urls, BatchOptions{Workers: 3})

	require.Len(t, res, 12)
	for i, got := range res {
		assert.Equal(t, i, got.Index)
		assert.Equal(t, urls[i], got.URL)
		if i == 5 {
			assert.Error(t, got.Err)
			continue
		}
		require.NoError(t, got.Err)
		assert.Equal(t, fmt.Sprintf("Role %d", i), got.Draft.Position)
	}
	assert.EqualValues(t, 12, f.calls.Load())
}

func TestScrapeAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRegistry(nil, nil)
	res := r.ScrapeAll(ctx, &fakeFetcher{}, []string{"https://a.example", "https://b.example"}, BatchOptions{Workers: 2})

	require.Len(t, res, 2)
	for _, got := range res {
		assert.Error(t, got.Err)
	}
}

func TestScrapeAll_Empty(t *testing.T) {
	r := NewRegistry(nil, nil)
	assert.Empty(t, r.ScrapeAll(context.Background(), &fakeFetcher{}, nil, BatchOptions{}))
}
