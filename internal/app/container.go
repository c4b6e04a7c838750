package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"job-tracker/internal/capture"
	"job-tracker/internal/config"
	"job-tracker/internal/database"
	"job-tracker/internal/database/migration"
	dbpostgres "job-tracker/internal/database/postgres"
	"job-tracker/internal/notify"
	"job-tracker/internal/pkg/jwt"
	"job-tracker/internal/scraper"
	"job-tracker/internal/skill"
	"job-tracker/internal/storage"
	"job-tracker/internal/tracker"
	"job-tracker/internal/ws"

	"go.uber.org/zap"
)

// Options tune what NewContainer builds.
type Options struct {
	// Realtime delivers notifications to websocket clients instead of the
	// log.
	Realtime bool
	// SkipMigrations leaves the schema alone on connect.
	SkipMigrations bool
}

// Container holds the process-wide objects. It is built once at start,
// hydrated from the store and flushed by Close.
type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB      database.DB
	Store   storage.Store
	Session storage.Store
	redis   *storage.Redis

	Skills     *skill.Extractor
	Registry   *scraper.Registry
	Fetcher    scraper.Fetcher
	Tracker    *tracker.Manager
	Hub        *ws.Hub
	Notifier   notify.Notifier
	Correlator *notify.Correlator
	Capture    *capture.Service
	Tokens     *jwt.HMACService
}

func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: logger}

	skills, err := loadSkills(cfg.Scraper, logger)
	if err != nil {
		return nil, err
	}
	c.Skills = skills
	c.Registry = scraper.NewRegistry(skills, logger.Named("scraper"))
	c.Fetcher = newFetcher(cfg.Scraper)

	if err := c.openStore(ctx, opts); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Redis.Host) != "" {
		c.redis = storage.NewRedis(ctx, cfg.Redis, logger.Named("redis"))
	}
	c.Session = storage.NewSession(c.redis, c.Store, logger.Named("session"))

	c.Tracker = tracker.NewManager(c.Store, tracker.WithLogger(logger.Named("tracker")))
	hydrateCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.Tracker.Hydrate(hydrateCtx); err != nil {
		_ = c.closeBackends()
		return nil, err
	}

	if opts.Realtime {
		c.Hub = ws.NewHub(logger.Named("ws"))
		c.Notifier = ws.NewNotifier(c.Hub)
	} else {
		c.Notifier = notify.NewLogNotifier(logger.Named("notify"))
	}
	c.Correlator = notify.NewCorrelator(c.Session, logger.Named("notify"))
	c.Capture = capture.NewService(c.Registry, c.Fetcher, c.Tracker, c.Notifier, c.Correlator, logger.Named("capture"))
	c.Tokens = jwt.NewHMACService(cfg.Token.Secret, cfg.Token.TTL)

	return c, nil
}

func (c *Container) openStore(ctx context.Context, opts Options) error {
	switch c.Config.App.StoreBackend {
	case config.StoreMemory:
		c.Store = storage.NewMemory(storage.AreaLocal)
		c.Logger.Warn("using in-memory store, data is lost on exit")
		return nil
	case config.StoreFile:
		f, err := storage.OpenFile(c.Config.App.StorePath, storage.AreaLocal)
		if err != nil {
			return err
		}
		c.Store = f
		c.Logger.Debug("using file store", zap.String("path", c.Config.App.StorePath))
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := dbpostgres.Connect(connectCtx, c.Config.Database, c.Logger.Named("db"))
	if err != nil {
		return err
	}
	if !opts.SkipMigrations {
		r := migration.Runner{Logger: c.Logger.Named("migration")}
		if err := r.Run(connectCtx, db.SQLDB()); err != nil {
			_ = db.Close()
			return fmt.Errorf("migrate: %w", err)
		}
	}
	c.DB = db
	c.Store = storage.NewPostgres(db, storage.AreaLocal)
	return nil
}

func loadSkills(cfg config.ScraperConfig, logger *zap.Logger) (*skill.Extractor, error) {
	if strings.TrimSpace(cfg.SkillsFile) == "" {
		return skill.Default(skill.WithLogger(logger)), nil
	}
	return skill.LoadFile(cfg.SkillsFile, logger)
}

func newFetcher(cfg config.ScraperConfig) scraper.Fetcher {
	if cfg.FetchMode == config.FetchHeadless {
		return scraper.NewHeadlessFetcher(cfg.FetchTimeout)
	}
	return scraper.NewCollyFetcher(cfg.FetchTimeout)
}

func (c *Container) BatchOptions() scraper.BatchOptions {
	return scraper.BatchOptions{Workers: c.Config.Scraper.Workers, RatePerSecond: c.Config.Scraper.RatePerSec}
}

// Close flushes the collection and releases the backends.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Tracker != nil {
		if err := c.Tracker.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.closeBackends(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Container) closeBackends() error {
	var errs []error
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
