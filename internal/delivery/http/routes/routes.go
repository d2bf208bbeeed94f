package routes

import (
	"freestuffmap/internal/delivery/http/handler"
	"freestuffmap/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health   *handler.HealthHandler
	listings *handler.ListingsHandler
	scrape   *handler.ScrapeHandler
	wsh      *ws.Handler
}

func NewRegistry(listings *handler.ListingsHandler, scrape *handler.ScrapeHandler, wsh *ws.Handler) *Registry {
	return &Registry{
		health:   handler.NewHealthHandler(),
		listings: listings,
		scrape:   scrape,
		wsh:      wsh,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)

	api := app.Group("/api")
	v1 := api.Group("/v1")
	r.listings.RegisterRoutes(v1)
	r.scrape.RegisterRoutes(v1)

	if r.wsh != nil {
		app.Get("/ws", r.wsh.HandleRunsWS)
	}
}
