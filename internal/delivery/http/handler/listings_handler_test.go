package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freestuffmap/internal/delivery/http/middleware"
	"freestuffmap/internal/listing"
	"freestuffmap/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type stubLister struct {
	items  []listing.Listing
	filter listing.Filter
}

func (s *stubLister) List(_ context.Context, f listing.Filter) ([]listing.Listing, error) {
	s.filter = f
	return s.items, nil
}

func newListingsTestApp(store *stubLister) *fiber.App {
	app := fiber.New(fiber.Config{})
	app.Use(middleware.NewErrorMiddleware().Middleware())
	h := NewListingsHandler(usecase.NewListingQuery(store, nil, nil))
	h.RegisterRoutes(app.Group("/api/v1"))
	return app
}

func TestHandleList_ReturnsListings(t *testing.T) {
	lat, lng := 37.78, -122.41
	until := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	store := &stubLister{items: []listing.Listing{{
		ID:             7,
		Title:          "Free couch",
		Description:    "Mission",
		Category:       listing.CategoryItems,
		Lat:            &lat,
		Lng:            &lng,
		AvailableFrom:  time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		AvailableUntil: &until,
		Source:         "craigslist",
		Status:         "available",
		LastVerified:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}}}
	app := newListingsTestApp(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?search=couch&categories=Items,Events&start_date=2025-03-01&limit=5", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Data    []struct {
			ID            int64    `json:"id"`
			Title         string   `json:"title"`
			Category      string   `json:"category"`
			Lat           *float64 `json:"location_lat"`
			AvailableFrom string   `json:"available_from"`
			Source        string   `json:"source"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusOK || body.Message != "ok" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if len(body.Data) != 1 || body.Data[0].Title != "Free couch" {
		t.Fatalf("unexpected data: %+v", body.Data)
	}
	if body.Data[0].AvailableFrom != "2025-03-01T10:30:00Z" {
		t.Fatalf("expected RFC3339 date, got %q", body.Data[0].AvailableFrom)
	}
	if body.Data[0].Lat == nil || *body.Data[0].Lat != lat {
		t.Fatalf("expected coordinates passed through, got %v", body.Data[0].Lat)
	}

	f := store.filter
	if f.Search != "couch" {
		t.Fatalf("unexpected search %q", f.Search)
	}
	if len(f.Categories) != 2 || f.Categories[0] != listing.CategoryItems || f.Categories[1] != listing.CategoryEvents {
		t.Fatalf("unexpected categories %v", f.Categories)
	}
	if f.StartDate == nil || !f.StartDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start date %v", f.StartDate)
	}
	if f.Limit != 5 {
		t.Fatalf("unexpected limit %d", f.Limit)
	}
}

func TestHandleList_RejectsUnknownCategory(t *testing.T) {
	app := newListingsTestApp(&stubLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?categories=Gadgets", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleList_RejectsBadDates(t *testing.T) {
	app := newListingsTestApp(&stubLister{})

	for _, target := range []string{
		"/api/v1/listings?start_date=yesterday",
		"/api/v1/listings?end_date=03-01-2025",
		"/api/v1/listings?limit=-3",
		"/api/v1/listings?limit=lots",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request %s: %v", target, err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.StatusCode)
		}
	}
}
