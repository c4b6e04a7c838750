package handler

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"job-tracker/internal/capture"
	"job-tracker/internal/delivery/http/dto"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/domain/application"
	"job-tracker/internal/notify"
	"job-tracker/internal/pkg/response"
	"job-tracker/internal/scraper"

	"github.com/gofiber/fiber/v3"
)

const maxBatchURLs = 100

type CaptureHandler struct {
	svc   *capture.Service
	batch scraper.BatchOptions
}

func NewCaptureHandler(svc *capture.Service, batch scraper.BatchOptions) *CaptureHandler {
	return &CaptureHandler{svc: svc, batch: batch}
}

func (h *CaptureHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/capture", h.Capture)
	r.Post("/capture/batch", h.Batch)
	r.Post("/track", h.Track)
	r.Post("/detect", h.Detect)
	r.Post("/notifications/:id/buttons/:index", h.ButtonClicked)
	r.Post("/notifications/:id/click", h.Clicked)
}

func (h *CaptureHandler) Capture(c fiber.Ctx) error {
	var req dto.PageRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	d, err := h.scrape(c, req)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.svc.Check(d))
}

func (h *CaptureHandler) Track(c fiber.Ctx) error {
	var d application.Draft
	if err := c.Bind().Body(&d); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	rec, err := h.svc.Track(c.Context(), d)
	if err != nil {
		if errors.Is(err, capture.ErrDuplicate) {
			return middleware.NewAppError(fiber.StatusConflict, "This job is already being tracked", rec, err)
		}
		return mapTrackerError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, rec)
}

func (h *CaptureHandler) Detect(c fiber.Ctx) error {
	var req dto.DetectRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	var d application.Draft
	if req.Draft != nil {
		d = *req.Draft
	} else {
		var err error
		if d, err = h.scrape(c, req.PageRequest); err != nil {
			return err
		}
	}

	id, err := h.svc.Detect(c.Context(), d)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.DetectResponse{NotificationID: id, Notified: id != ""})
}

func (h *CaptureHandler) Batch(c fiber.Ctx) error {
	var req dto.BatchRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	if len(req.URLs) == 0 || len(req.URLs) > maxBatchURLs {
		return middleware.NewAppError(fiber.StatusBadRequest, "urls must hold 1 to "+strconv.Itoa(maxBatchURLs)+" entries", nil, nil)
	}
	for _, u := range req.URLs {
		if !validPageURL(u) {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid url: "+u, nil, nil)
		}
	}
	items := h.svc.CaptureAll(c.Context(), req.URLs, h.batch, req.Track)
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.BatchItems(items))
}

func (h *CaptureHandler) ButtonClicked(c fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid button index", nil, err)
	}
	state, rec, err := h.svc.HandleButtonClicked(c.Context(), c.Params("id"), index)
	if err != nil {
		return mapTrackerError(err)
	}
	if state == "" {
		return middleware.NewAppError(fiber.StatusNotFound, "Notification not found", nil, notify.ErrNoCorrelation)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.ButtonResponse{State: string(state), Application: rec})
}

func (h *CaptureHandler) Clicked(c fiber.Ctx) error {
	if err := h.svc.HandleClicked(c.Context(), c.Params("id")); err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *CaptureHandler) scrape(c fiber.Ctx, req dto.PageRequest) (application.Draft, error) {
	if !validPageURL(req.URL) {
		return application.Draft{}, middleware.NewAppError(fiber.StatusBadRequest, "Invalid url", nil, nil)
	}
	if strings.TrimSpace(req.HTML) != "" {
		d, err := h.svc.ScrapeHTML(req.URL, strings.NewReader(req.HTML))
		if err != nil {
			return application.Draft{}, middleware.NewAppError(fiber.StatusBadRequest, "Could not parse page", nil, err)
		}
		return d, nil
	}
	d, err := h.svc.Scrape(c.Context(), req.URL)
	if err != nil {
		if errors.Is(err, capture.ErrNoFetcher) {
			return application.Draft{}, middleware.NewAppError(fiber.StatusServiceUnavailable, response.MessageServiceUnavailable, nil, err)
		}
		return application.Draft{}, middleware.NewAppError(fiber.StatusBadGateway, "Could not load page", nil, err)
	}
	return d, nil
}

func validPageURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
