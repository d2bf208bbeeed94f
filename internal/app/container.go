package app

import (
	"context"
	"log"
	"time"

	"freestuffmap/internal/cache"
	"freestuffmap/internal/config"
	"freestuffmap/internal/database"
	dbpostgres "freestuffmap/internal/database/postgres"
	"freestuffmap/internal/fetch"
	"freestuffmap/internal/geo"
	"freestuffmap/internal/listing"
	"freestuffmap/internal/scrape"
	"freestuffmap/internal/usecase"
	"freestuffmap/internal/ws"
)

// Container wires the ingestion pipeline and its collaborators together.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Store *listing.Store
	Cache *cache.Redis

	Orchestrator *scrape.Orchestrator
	RunLog       *scrape.RunLog
	Scheduler    *scrape.Scheduler

	Listings *usecase.ListingQuery
	Hub      *ws.Hub
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	store := listing.NewStore(db, logger)
	redisCache := cache.NewRedis(logger)
	listings := usecase.NewListingQuery(store, redisCache, logger)

	fetcher := fetch.New()
	geocoder := geo.NewClient(fetcher, logger)

	craigslist := scrape.NewCraigslistScraper(store, logger)
	if cfg.Scraper.HeadlessFallback {
		craigslist.EnableHeadlessFallback()
	}
	scrapers := []scrape.Scraper{
		craigslist,
		scrape.NewEventbriteScraper(store, fetcher, cfg.Scraper.EventbriteToken, logger),
		scrape.NewMuseumScraper(store, logger),
		scrape.NewFunCheapScraper(store, fetcher, geocoder, cfg.Scraper.GeocodeMinInterval, logger),
	}

	orch := scrape.NewOrchestrator(scrapers, logger)
	runlog, err := scrape.NewRunLog(cfg.Scraper.LogDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	hub := ws.NewHub(logger)
	scheduler := scrape.NewScheduler(orch, runlog, cfg.Scraper.CronSpec, logger)
	scheduler.SetOnComplete(func(rec scrape.RunRecord) {
		hub.NotifyRunCompleted(rec)
		if rec.Success {
			invCtx, invCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer invCancel()
			listings.Invalidate(invCtx)
		}
	})

	return &Container{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Store:        store,
		Cache:        redisCache,
		Orchestrator: orch,
		RunLog:       runlog,
		Scheduler:    scheduler,
		Listings:     listings,
		Hub:          hub,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
