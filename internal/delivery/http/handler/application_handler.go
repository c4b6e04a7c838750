package handler

import (
	"errors"

	"job-tracker/internal/delivery/http/dto"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/domain/application"
	"job-tracker/internal/pkg/response"
	"job-tracker/internal/tracker"

	"github.com/gofiber/fiber/v3"
)

type ApplicationHandler struct {
	tracker *tracker.Manager
}

func NewApplicationHandler(m *tracker.Manager) *ApplicationHandler {
	return &ApplicationHandler{tracker: m}
}

func (h *ApplicationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/applications", h.List)
	r.Post("/applications", h.Create)
	r.Delete("/applications", h.Clear)
	r.Get("/applications/stats", h.Stats)
	r.Get("/applications/:id", h.Get)
	r.Patch("/applications/:id", h.Update)
	r.Delete("/applications/:id", h.Delete)
	r.Post("/applications/:id/cycle", h.Cycle)
}

func (h *ApplicationHandler) List(c fiber.Ctx) error {
	records := h.tracker.List(tracker.Filter{Query: c.Query("q"), Status: c.Query("status")})
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.ListResponse{
		Applications: records,
		Total:        len(records),
	})
}

func (h *ApplicationHandler) Stats(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.tracker.Stats())
}

func (h *ApplicationHandler) Get(c fiber.Ctx) error {
	rec, ok := h.tracker.Get(c.Params("id"))
	if !ok {
		return middleware.NewAppError(fiber.StatusNotFound, "Application not found", nil, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, rec)
}

func (h *ApplicationHandler) Create(c fiber.Ctx) error {
	fields, err := bindFields(c)
	if err != nil {
		return err
	}
	rec, err := h.tracker.Create(c.Context(), fields)
	if err != nil {
		return mapTrackerError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, rec)
}

func (h *ApplicationHandler) Update(c fiber.Ctx) error {
	fields, err := bindFields(c)
	if err != nil {
		return err
	}
	rec, err := h.tracker.Update(c.Context(), c.Params("id"), fields)
	if err != nil {
		return mapTrackerError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, rec)
}

func (h *ApplicationHandler) Delete(c fiber.Ctx) error {
	removed, err := h.tracker.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return mapTrackerError(err)
	}
	if !removed {
		return middleware.NewAppError(fiber.StatusNotFound, "Application not found", nil, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *ApplicationHandler) Clear(c fiber.Ctx) error {
	if err := h.tracker.ClearAll(c.Context()); err != nil {
		return mapTrackerError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *ApplicationHandler) Cycle(c fiber.Ctx) error {
	rec, ok, err := h.tracker.CycleStatus(c.Context(), c.Params("id"))
	if err != nil {
		return mapTrackerError(err)
	}
	if !ok {
		return middleware.NewAppError(fiber.StatusNotFound, "Application not found", nil, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, rec)
}

func bindFields(c fiber.Ctx) (application.Fields, error) {
	var req dto.ApplicationRequest
	if err := c.Bind().Body(&req); err != nil {
		return application.Fields{}, middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	if req.Empty() {
		return application.Fields{}, middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, nil)
	}
	fields, err := req.Fields()
	if err != nil {
		return application.Fields{}, mapTrackerError(err)
	}
	return fields, nil
}

func mapTrackerError(err error) error {
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Application not found", nil, err)
	case errors.Is(err, application.ErrInvalidStatus):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid status", nil, err)
	case errors.Is(err, application.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, tracker.ErrInvalidImport):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
