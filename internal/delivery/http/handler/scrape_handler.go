package handler

import (
	"errors"

	"freestuffmap/internal/delivery/http/middleware"
	"freestuffmap/internal/pkg/response"
	"freestuffmap/internal/scrape"

	"github.com/gofiber/fiber/v3"
)

type ScrapeHandler struct {
	scheduler *scrape.Scheduler
	runlog    *scrape.RunLog
}

func NewScrapeHandler(scheduler *scrape.Scheduler, runlog *scrape.RunLog) *ScrapeHandler {
	return &ScrapeHandler{scheduler: scheduler, runlog: runlog}
}

func (h *ScrapeHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/scrape", h.HandleTrigger)
	r.Get("/scrape/stats", h.HandleStats)
}

// HandleTrigger runs the whole ingestion pipeline synchronously and returns
// the per-source summary. A run already in flight yields 409.
func (h *ScrapeHandler) HandleTrigger(c fiber.Ctx) error {
	rec, err := h.scheduler.RunOnce(c.Context())
	if err != nil {
		if errors.Is(err, scrape.ErrRunInProgress) {
			return middleware.NewAppError(fiber.StatusConflict, "scrape run already in progress", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, "scrape run failed", nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, rec)
}

type statsResponse struct {
	Runs []scrape.RunRecord `json:"runs"`
}

// HandleStats returns the last 10 run log records, newest last.
func (h *ScrapeHandler) HandleStats(c fiber.Ctx) error {
	runs, err := h.runlog.LastRuns(10)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, "failed to read run log", nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, statsResponse{Runs: runs})
}
