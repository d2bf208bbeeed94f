package scrape

import (
	"context"

	"freestuffmap/internal/geo"
	"freestuffmap/internal/listing"
)

// Scraper is one external source. Scrape produces a fresh candidate batch on
// every invocation; Persist writes the batch to the listing store. Errors
// escaping either call are contained by the orchestrator, never the process.
type Scraper interface {
	Source() string
	Scrape(ctx context.Context) ([]listing.Candidate, error)
	Persist(ctx context.Context, items []listing.Candidate) error
}

// Geocoder is the address-resolution capability injected into scrapers that
// only get free-text venue strings from their source.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geo.Point, bool)
}
