package app

import (
	"fmt"
	"strings"

	"freestuffmap/internal/delivery/http/handler"
	"freestuffmap/internal/delivery/http/middleware"
	"freestuffmap/internal/delivery/http/routes"
	"freestuffmap/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber *fiber.App
}

// Bootstrap builds the fiber app around an existing container.
func Bootstrap(c *Container) *App {
	f := fiber.New(fiber.Config{})

	errMw := middleware.NewErrorMiddleware()
	f.Use(errMw.Middleware())

	registry := routes.NewRegistry(
		handler.NewListingsHandler(c.Listings),
		handler.NewScrapeHandler(c.Scheduler, c.RunLog),
		ws.NewHandler(c.Hub, c.Logger),
	)
	registry.Register(f)

	return &App{Fiber: f}
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
