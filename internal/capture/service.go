package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"job-tracker/internal/dedup"
	"job-tracker/internal/domain/application"
	"job-tracker/internal/notify"
	"job-tracker/internal/scraper"
	"job-tracker/internal/tracker"

	"go.uber.org/zap"
)

var (
	ErrDuplicate = errors.New("job already tracked")
	ErrNoFetcher = errors.New("page fetching is not configured")
)

const (
	TitleDetected = "New Job Detected!"
	TitleTracked  = "Job Tracked!"
	TitleReminder = "Application Reminder"
	ButtonTrack   = "Track This Job"
)

// Result is a scraped draft checked against the collection.
type Result struct {
	Draft     application.Draft   `json:"draft"`
	Duplicate bool                `json:"duplicate"`
	Existing  *application.Record `json:"existing,omitempty"`
}

// Service is the pipeline entry point: it scrapes pages into drafts and
// turns confirmed drafts into records.
type Service struct {
	registry   *scraper.Registry
	fetcher    scraper.Fetcher
	tracker    *tracker.Manager
	notifier   notify.Notifier
	correlator *notify.Correlator
	logger     *zap.Logger
}

func NewService(
	registry *scraper.Registry,
	fetcher scraper.Fetcher,
	manager *tracker.Manager,
	notifier notify.Notifier,
	correlator *notify.Correlator,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = scraper.NewRegistry(nil, logger)
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	return &Service{
		registry:   registry,
		fetcher:    fetcher,
		tracker:    manager,
		notifier:   notifier,
		correlator: correlator,
		logger:     logger,
	}
}

func (s *Service) Scrape(ctx context.Context, pageURL string) (application.Draft, error) {
	if s.fetcher == nil {
		return application.Draft{}, ErrNoFetcher
	}
	return s.registry.FetchAndScrape(ctx, s.fetcher, pageURL)
}

// ScrapeHTML scrapes a page body the caller already holds, such as the DOM
// a browser client posts.
func (s *Service) ScrapeHTML(pageURL string, body io.Reader) (application.Draft, error) {
	return s.registry.ScrapeHTML(pageURL, body)
}

func (s *Service) Check(d application.Draft) Result {
	res := Result{Draft: d}
	if existing, ok := dedup.Find(d, s.tracker.List(tracker.Filter{})); ok {
		res.Duplicate = true
		res.Existing = &existing
	}
	return res
}

// Capture scrapes pageURL and reports whether it is already tracked. Nothing
// is stored.
func (s *Service) Capture(ctx context.Context, pageURL string) (Result, error) {
	d, err := s.Scrape(ctx, pageURL)
	if err != nil {
		return Result{}, err
	}
	return s.Check(d), nil
}

// Track stores d as a new record unless it duplicates one.
func (s *Service) Track(ctx context.Context, d application.Draft) (application.Record, error) {
	if existing, ok := dedup.Find(d, s.tracker.List(tracker.Filter{})); ok {
		return existing, fmt.Errorf("%w: %s", ErrDuplicate, existing.ID)
	}
	return s.tracker.Create(ctx, application.FieldsFromDraft(d))
}

// Detect offers to track an auto-captured draft. It returns the notification
// id, or "" when no notification was shown: auto-capture off, notifications
// off, company or position missing, or the job already tracked.
func (s *Service) Detect(ctx context.Context, d application.Draft) (string, error) {
	settings := s.tracker.Settings()
	if !settings.AutoCapture {
		return "", nil
	}
	if d.Company == "" || d.Position == "" {
		s.logger.Debug("detected page has no company or position", zap.String("url", d.URL))
		return "", nil
	}
	if dedup.IsDuplicate(d, s.tracker.List(tracker.Filter{})) {
		s.logger.Debug("detected job already tracked", zap.String("url", d.URL))
		return "", nil
	}
	if !settings.Notifications {
		return "", nil
	}

	id, err := s.notifier.Notify(ctx, notify.Message{
		Title:   TitleDetected,
		Body:    fmt.Sprintf("%s at %s", d.Position, d.Company),
		Buttons: []string{ButtonTrack},
	})
	if err != nil {
		return "", fmt.Errorf("notify: %w", err)
	}
	if s.correlator != nil {
		if err := s.correlator.Open(ctx, id, d); err != nil {
			_ = s.notifier.Clear(ctx, id)
			return "", err
		}
	}
	s.logger.Info("job detected",
		zap.String("notification_id", id),
		zap.String("company", d.Company),
		zap.String("position", d.Position),
	)
	return id, nil
}

// DetectURL scrapes pageURL and passes the draft to Detect.
func (s *Service) DetectURL(ctx context.Context, pageURL string) (string, error) {
	d, err := s.Scrape(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return s.Detect(ctx, d)
}

// HandleButtonClicked answers a detection notification. The notification is
// cleared whatever the outcome.
func (s *Service) HandleButtonClicked(ctx context.Context, id string, button int) (notify.State, *application.Record, error) {
	defer s.clear(ctx, id)
	if s.correlator == nil {
		return "", nil, nil
	}

	var created application.Record
	state, d, err := s.correlator.Resolve(ctx, id, button, func(ctx context.Context, d application.Draft) error {
		rec, err := s.tracker.Create(ctx, application.FieldsFromDraft(d))
		if err != nil {
			return err
		}
		created = rec
		return nil
	})
	if errors.Is(err, notify.ErrNoCorrelation) {
		return "", nil, nil
	}
	if err != nil {
		s.logger.Error("track from notification failed", zap.String("notification_id", id), zap.Error(err))
		return state, nil, err
	}
	if state != notify.StateTracked {
		return state, nil, nil
	}

	if _, err := s.notifier.Notify(ctx, notify.Message{
		Title: TitleTracked,
		Body:  fmt.Sprintf("%s at %s has been added.", d.Position, d.Company),
	}); err != nil {
		s.logger.Warn("confirmation notification failed", zap.Error(err))
	}
	return state, &created, nil
}

// HandleClicked handles a click on the notification body: nothing is
// tracked.
func (s *Service) HandleClicked(ctx context.Context, id string) error {
	defer s.clear(ctx, id)
	if s.correlator == nil {
		return nil
	}
	return s.correlator.Discard(ctx, id)
}

func (s *Service) clear(ctx context.Context, id string) {
	if err := s.notifier.Clear(ctx, id); err != nil {
		s.logger.Warn("clear notification failed", zap.String("notification_id", id), zap.Error(err))
	}
}

// Stale returns applied or pending records whose dateApplied is more than
// days before now. Unparseable dates never count.
func Stale(records []application.Record, now time.Time, days int) []application.Record {
	cutoff := now.AddDate(0, 0, -days)
	out := []application.Record{}
	for _, r := range records {
		if r.Status != application.StatusApplied && r.Status != application.StatusPending {
			continue
		}
		applied, err := time.Parse(application.DateLayout, strings.TrimSpace(r.DateApplied))
		if err != nil {
			continue
		}
		if applied.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// CheckStale notifies about stale applications when notifications are on
// and returns how many were found.
func (s *Service) CheckStale(ctx context.Context, now time.Time, days int) (int, error) {
	if !s.tracker.Settings().Notifications {
		return 0, nil
	}
	stale := Stale(s.tracker.List(tracker.Filter{}), now, days)
	if len(stale) == 0 {
		return 0, nil
	}
	_, err := s.notifier.Notify(ctx, notify.Message{
		Title: TitleReminder,
		Body:  fmt.Sprintf("You have %d application(s) pending for over %s. Consider following up!", len(stale), span(days)),
	})
	if err != nil {
		return len(stale), fmt.Errorf("notify: %w", err)
	}
	return len(stale), nil
}

func span(days int) string {
	if days == 7 {
		return "a week"
	}
	return fmt.Sprintf("%d days", days)
}

// BatchItem is one URL of a batch capture.
type BatchItem struct {
	URL     string              `json:"url"`
	Result  Result              `json:"result"`
	Tracked *application.Record `json:"tracked,omitempty"`
	Err     error               `json:"-"`
}

// CaptureAll scrapes urls concurrently and, when track is set, stores every
// draft that is not a duplicate. Items keep the order of urls. Duplicates
// within the batch itself are caught because records are created in order.
func (s *Service) CaptureAll(ctx context.Context, urls []string, opts scraper.BatchOptions, track bool) []BatchItem {
	if s.fetcher == nil {
		items := make([]BatchItem, len(urls))
		for i, u := range urls {
			items[i] = BatchItem{URL: u, Err: ErrNoFetcher}
		}
		return items
	}

	results := s.registry.ScrapeAll(ctx, s.fetcher, urls, opts)
	items := make([]BatchItem, len(results))
	for i, r := range results {
		items[i] = BatchItem{URL: r.URL, Err: r.Err}
		if r.Err != nil {
			continue
		}
		items[i].Result = s.Check(r.Draft)
		if !track || items[i].Result.Duplicate {
			continue
		}
		rec, err := s.Track(ctx, r.Draft)
		if err != nil {
			items[i].Err = err
			continue
		}
		items[i].Tracked = &rec
	}
	return items
}
