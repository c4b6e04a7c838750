package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"job-tracker/internal/delivery/http/dto"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/pkg/response"
	"job-tracker/internal/tracker"

	"github.com/gofiber/fiber/v3"
)

type SettingsHandler struct {
	tracker *tracker.Manager
}

func NewSettingsHandler(m *tracker.Manager) *SettingsHandler {
	return &SettingsHandler{tracker: m}
}

func (h *SettingsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/settings", h.Get)
	r.Put("/settings", h.Put)
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
}

func (h *SettingsHandler) Get(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.tracker.Settings())
}

func (h *SettingsHandler) Put(c fiber.Ctx) error {
	var req dto.SettingsRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	next := req.Apply(h.tracker.Settings())
	if err := h.tracker.SaveSettings(c.Context(), next); err != nil {
		return mapTrackerError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, next)
}

func (h *SettingsHandler) Export(c fiber.Ctx) error {
	exp := h.tracker.Export()
	body, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	name := fmt.Sprintf("job-tracker-export-%s.json", exp.ExportedAt.Format(time.DateOnly))
	return response.Attachment(c, name, fiber.MIMEApplicationJSON, body)
}

// Import replaces every application with the uploaded export. A rejected
// file leaves the collection as it was.
func (h *SettingsHandler) Import(c fiber.Ctx) error {
	n, err := h.tracker.Import(c.Context(), c.Body())
	if err != nil {
		return mapTrackerError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.ImportResponse{Imported: n})
}
