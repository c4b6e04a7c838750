package v1

import (
	"job-tracker/internal/delivery/http/handler"
	"job-tracker/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Applications *handler.ApplicationHandler
	Settings     *handler.SettingsHandler
	Capture      *handler.CaptureHandler
	Events       *ws.Handler
}

// Register mounts every v1 route behind auth.
func Register(r fiber.Router, h Handlers, auth fiber.Handler) {
	if r == nil {
		return
	}

	protected := r
	if auth != nil {
		protected = r.Group("", auth)
	}

	if h.Applications != nil {
		h.Applications.RegisterRoutes(protected)
	}
	if h.Settings != nil {
		h.Settings.RegisterRoutes(protected)
	}
	if h.Capture != nil {
		h.Capture.RegisterRoutes(protected)
	}
	if h.Events != nil {
		h.Events.RegisterRoutes(protected)
	}
}
