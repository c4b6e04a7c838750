package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"job-tracker/internal/domain/application"
	"job-tracker/internal/storage"

	"go.uber.org/zap"
)

type State string

const (
	StatePending   State = "pending"
	StateTracked   State = "tracked"
	StateDiscarded State = "discarded"
)

const (
	KeyPrefix = "notification_"

	// TrackButton is the index of "Track This Job".
	TrackButton = 0
)

var ErrNoCorrelation = errors.New("no pending notification")

// TrackFunc turns a confirmed draft into a record.
type TrackFunc func(ctx context.Context, d application.Draft) error

type entry struct {
	Draft    application.Draft `json:"jobData"`
	State    State             `json:"state"`
	OpenedAt time.Time         `json:"openedAt"`
}

// Correlator links a shown notification to the draft it offers to track.
// Open persists the draft under notification_<id>; Resolve consumes it when
// the user answers. An entry only ever moves pending -> tracked|discarded
// and is removed when it leaves pending.
type Correlator struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewCorrelator(store storage.Store, logger *zap.Logger) *Correlator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Correlator{store: store, logger: logger, now: time.Now}
}

func Key(id string) string {
	return KeyPrefix + id
}

func (c *Correlator) Open(ctx context.Context, id string, d application.Draft) error {
	if id == "" {
		return errors.New("empty notification id")
	}
	e := entry{Draft: d, State: StatePending, OpenedAt: c.now().UTC()}
	if err := storage.SetJSON(ctx, c.store, Key(id), e); err != nil {
		return fmt.Errorf("open correlation: %w", err)
	}
	c.logger.Debug("correlation opened", zap.String("notification_id", id))
	return nil
}

// Pending returns the draft still waiting on id.
func (c *Correlator) Pending(ctx context.Context, id string) (application.Draft, bool, error) {
	var e entry
	ok, err := storage.GetJSON(ctx, c.store, Key(id), &e)
	if err != nil || !ok {
		return application.Draft{}, false, err
	}
	return e.Draft, e.State == StatePending, nil
}

// Resolve handles a button click. The track button runs track with the
// stored draft; any other button discards. When track fails the entry stays
// pending so the click can be retried.
func (c *Correlator) Resolve(ctx context.Context, id string, button int, track TrackFunc) (State, application.Draft, error) {
	d, ok, err := c.Pending(ctx, id)
	if err != nil {
		return "", application.Draft{}, err
	}
	if !ok {
		return "", application.Draft{}, fmt.Errorf("%w: %s", ErrNoCorrelation, id)
	}

	if button != TrackButton {
		return StateDiscarded, d, c.remove(ctx, id, StateDiscarded)
	}
	if err := track(ctx, d); err != nil {
		return StatePending, d, err
	}
	return StateTracked, d, c.remove(ctx, id, StateTracked)
}

// Discard drops the entry without tracking, e.g. when the notification body
// is clicked instead of a button.
func (c *Correlator) Discard(ctx context.Context, id string) error {
	if _, ok, err := c.Pending(ctx, id); err != nil || !ok {
		return err
	}
	return c.remove(ctx, id, StateDiscarded)
}

func (c *Correlator) remove(ctx context.Context, id string, final State) error {
	if err := c.store.Remove(ctx, Key(id)); err != nil {
		return fmt.Errorf("close correlation: %w", err)
	}
	c.logger.Debug("correlation closed",
		zap.String("notification_id", id),
		zap.String("state", string(final)),
	)
	return nil
}
