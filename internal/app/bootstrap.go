package app

import (
	"context"
	"fmt"
	"strings"

	"job-tracker/internal/capture"
	"job-tracker/internal/config"
	"job-tracker/internal/delivery/http/handler"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/delivery/http/routes"
	v1 "job-tracker/internal/delivery/http/routes/v1"
	"job-tracker/internal/tracker"
	"job-tracker/internal/ws"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the fiber app over an existing container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName:   c.Config.App.AppName,
		BodyLimit: 8 * 1024 * 1024,
	})

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap wires the container, the app and the background workers. The
// returned cleanup stops the workers and flushes the store.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func(context.Context) error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := NewContainer(ctx, cfg, logger, Options{Realtime: true})
	if err != nil {
		return nil, nil, err
	}

	a := New(c)
	bg, cancel := context.WithCancel(context.Background())

	go c.Hub.Run(bg)
	if n, ok := c.Notifier.(*ws.Notifier); ok {
		go tracker.WatchBadge(bg, c.Store, n.PublishBadge, logger.Named("badge"))
	}

	reminder, err := capture.NewReminder(c.Capture, cfg.Reminder.Schedule, cfg.Reminder.StaleAfterDays, logger.Named("reminder"))
	if err != nil {
		cancel()
		_ = c.Close(ctx)
		return nil, nil, err
	}
	reminder.Start()

	cleanup := func(ctx context.Context) error {
		reminder.Stop(ctx)
		cancel()
		return c.Close(ctx)
	}
	return a, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.Logger) {
	if app == nil {
		return
	}

	errMw := middleware.NewErrorMiddleware(logger)
	accessMw := middleware.NewAccessLogMiddleware(logger.Named("http"))
	app.Use(accessMw.Middleware())
	app.Use(errMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	var health *handler.HealthHandler
	if c.DB != nil {
		health = handler.NewHealthHandler(c.DB)
	}

	handlers := v1.Handlers{
		Applications: handler.NewApplicationHandler(c.Tracker),
		Settings:     handler.NewSettingsHandler(c.Tracker),
		Capture:      handler.NewCaptureHandler(c.Capture, c.BatchOptions()),
	}
	if c.Hub != nil {
		handlers.Events = ws.NewHandler(c.Hub, c.Logger.Named("ws"))
	}

	authMw := middleware.NewAuthMiddleware(c.Tokens)
	routes.NewRegistry(health, handlers, authMw.Middleware()).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
