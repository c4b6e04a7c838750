package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reminder runs CheckStale on a cron schedule. Schedules use the five
// standard fields or descriptors such as @daily.
type Reminder struct {
	svc        *Service
	cron       *cron.Cron
	schedule   string
	staleAfter int
	timeout    time.Duration
	logger     *zap.Logger
}

func NewReminder(svc *Service, schedule string, staleAfterDays int, logger *zap.Logger) (*Reminder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	r := &Reminder{
		svc:        svc,
		cron:       c,
		schedule:   schedule,
		staleAfter: staleAfterDays,
		timeout:    30 * time.Second,
		logger:     logger,
	}
	if _, err := c.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("parse reminder schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Reminder) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	n, err := r.svc.CheckStale(ctx, time.Now(), r.staleAfter)
	if err != nil {
		r.logger.Error("stale application check failed", zap.Error(err))
		return
	}
	r.logger.Info("stale application check", zap.Int("stale", n))
}

func (r *Reminder) Start() {
	r.cron.Start()
	r.logger.Info("reminder scheduled", zap.String("schedule", r.schedule), zap.Int("stale_after_days", r.staleAfter))
}

// Stop waits for a running check to finish or ctx to end.
func (r *Reminder) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
