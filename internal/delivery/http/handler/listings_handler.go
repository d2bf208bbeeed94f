package handler

import (
	"strconv"
	"strings"
	"time"

	"freestuffmap/internal/delivery/http/middleware"
	"freestuffmap/internal/listing"
	"freestuffmap/internal/pkg/response"
	"freestuffmap/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ListingsHandler struct {
	uc *usecase.ListingQuery
}

func NewListingsHandler(uc *usecase.ListingQuery) *ListingsHandler {
	return &ListingsHandler{uc: uc}
}

func (h *ListingsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/listings", h.HandleList)
}

type listingResponse struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Lat            *float64 `json:"location_lat"`
	Lng            *float64 `json:"location_lng"`
	AvailableFrom  string   `json:"available_from"`
	AvailableUntil string   `json:"available_until,omitempty"`
	URL            string   `json:"url,omitempty"`
	TimeDetails    string   `json:"time_details,omitempty"`
	Source         string   `json:"source,omitempty"`
	InterestCount  int      `json:"interest_count"`
	LastVerified   string   `json:"last_verified"`
}

func (h *ListingsHandler) HandleList(c fiber.Ctx) error {
	f := listing.Filter{
		Search: c.Query("search"),
	}

	for _, raw := range strings.Split(c.Query("categories"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		cat := listing.Category(raw)
		if !cat.Valid() {
			return middleware.NewAppError(fiber.StatusBadRequest, "unknown category: "+raw, nil, nil)
		}
		f.Categories = append(f.Categories, cat)
	}

	var err error
	if f.StartDate, err = parseDateQuery(c.Query("start_date")); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "bad start_date", nil, err)
	}
	if f.EndDate, err = parseDateQuery(c.Query("end_date")); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "bad end_date", nil, err)
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return middleware.NewAppError(fiber.StatusBadRequest, "bad limit", nil, err)
		}
		f.Limit = limit
	}

	items, err := h.uc.List(c.Context(), f)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, "failed to list listings", nil, err)
	}

	out := make([]listingResponse, 0, len(items))
	for _, it := range items {
		resp := listingResponse{
			ID:            it.ID,
			Title:         it.Title,
			Description:   it.Description,
			Category:      string(it.Category),
			Lat:           it.Lat,
			Lng:           it.Lng,
			AvailableFrom: it.AvailableFrom.UTC().Format(time.RFC3339),
			URL:           it.URL,
			TimeDetails:   it.TimeDetails,
			Source:        it.Source,
			InterestCount: it.InterestCount,
			LastVerified:  it.LastVerified.UTC().Format(time.RFC3339),
		}
		if it.AvailableUntil != nil {
			resp.AvailableUntil = it.AvailableUntil.UTC().Format(time.RFC3339)
		}
		out = append(out, resp)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func parseDateQuery(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &time.ParseError{Layout: "2006-01-02", Value: s}
}
