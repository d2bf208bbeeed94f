package main

import (
	"context"
	"errors"
	"log"
	"time"

	"freestuffmap/internal/app"
	"freestuffmap/internal/config"
	"freestuffmap/internal/scrape"
)

// One-shot runner: executes a single scrape run and exits. Useful for
// backfills and manual verification without starting the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	c, err := app.NewContainer(cfg, log.Default())
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := c.Store.EnsureSchema(schemaCtx); err != nil {
		schemaCancel()
		log.Fatalf("schema setup failed: %v", err)
	}
	schemaCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	defer cancel()

	rec, err := c.Scheduler.RunOnce(ctx)
	if err != nil && !errors.Is(err, scrape.ErrRunInProgress) {
		log.Printf("scrape run %s finished with error: %v", rec.RunID, err)
	}
	for _, res := range rec.Results {
		log.Printf("source %s: %d listings", res.Source, res.Count)
	}
	if !rec.Success {
		log.Fatalf("scrape run %s failed", rec.RunID)
	}
	log.Printf("scrape run %s completed", rec.RunID)
}
