package scrape

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"freestuffmap/internal/fetch"
	"freestuffmap/internal/listing"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

const funcheapDefaultBaseURL = "https://sf.funcheap.com/category/free/"

// FunCheapScraper parses the free-events aggregator page. Entries carry a
// loosely formatted date line and a venue string that has to be geocoded, so
// geocoding runs through a single-worker pool paced to one request per
// interval out of politeness to Nominatim. A candidate is only emitted when
// title, parsed date and resolved coordinates are all present.
type FunCheapScraper struct {
	writer      listing.Writer
	fetcher     *fetch.Fetcher
	geocoder    Geocoder
	logger      *log.Logger
	baseURL     string
	minInterval time.Duration
}

func NewFunCheapScraper(writer listing.Writer, fetcher *fetch.Fetcher, geocoder Geocoder, minInterval time.Duration, logger *log.Logger) *FunCheapScraper {
	if minInterval <= 0 {
		minInterval = time.Second
	}
	return &FunCheapScraper{
		writer:      writer,
		fetcher:     fetcher,
		geocoder:    geocoder,
		logger:      logger,
		baseURL:     funcheapDefaultBaseURL,
		minInterval: minInterval,
	}
}

func NewFunCheapScraperWithBaseURL(writer listing.Writer, fetcher *fetch.Fetcher, geocoder Geocoder, minInterval time.Duration, baseURL string, logger *log.Logger) *FunCheapScraper {
	s := NewFunCheapScraper(writer, fetcher, geocoder, minInterval, logger)
	if u := strings.TrimSpace(baseURL); u != "" {
		s.baseURL = u
	}
	return s
}

func (s *FunCheapScraper) Source() string { return "funcheap" }

type funcheapEntry struct {
	title       string
	url         string
	description string
	whenText    string
	whereText   string
}

func (s *FunCheapScraper) Scrape(ctx context.Context) ([]listing.Candidate, error) {
	if s == nil || s.writer == nil {
		return nil, fmt.Errorf("nil scraper/writer")
	}

	doc, err := s.fetcher.HTML(ctx, s.baseURL)
	if err != nil {
		return nil, err
	}

	entries := make([]funcheapEntry, 0, 32)
	doc.Find(".entry").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Find(".title a").Attr("href")
		entries = append(entries, funcheapEntry{
			title:       strings.TrimSpace(sel.Find(".title a").Text()),
			url:         strings.TrimSpace(href),
			description: strings.TrimSpace(sel.Find(".entry-content p").First().Text()),
			whenText:    strings.TrimSpace(sel.Find(".when").Text()),
			whereText:   strings.TrimSpace(sel.Find(".where").Text()),
		})
	})

	// One worker keeps emit order stable; the interval paces the geocoder.
	pool := NewWorkerPool(1, len(entries))
	pool.SetMinInterval(s.minInterval)
	results := pool.Run(ctx)

	var mu sync.Mutex
	items := make([]listing.Candidate, 0, len(entries))

	for _, entry := range entries {
		entry := entry
		pool.Submit(func(ctx context.Context) error {
			cand, ok := s.resolveEntry(ctx, entry)
			if !ok {
				return nil
			}
			mu.Lock()
			items = append(items, cand)
			mu.Unlock()
			return nil
		})
	}
	pool.Close()

	for res := range results {
		if res.Err != nil && s.logger != nil {
			s.logger.Printf("funcheap entry: %v", res.Err)
		}
	}

	return items, nil
}

func (s *FunCheapScraper) resolveEntry(ctx context.Context, entry funcheapEntry) (listing.Candidate, bool) {
	if entry.title == "" || entry.whenText == "" {
		return listing.Candidate{}, false
	}

	from, err := dateparse.ParseAny(entry.whenText)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("funcheap: unparsable date %q for %q", entry.whenText, entry.title)
		}
		return listing.Candidate{}, false
	}

	pt, ok := s.geocoder.Geocode(ctx, entry.whereText)
	if !ok {
		if s.logger != nil {
			s.logger.Printf("funcheap: no coordinates for %q (%q), dropping", entry.title, entry.whereText)
		}
		return listing.Candidate{}, false
	}

	day := from.UTC().Truncate(24 * time.Hour)
	return listing.Candidate{
		Title:          entry.title,
		Description:    entry.description,
		Category:       listing.CategoryEvents,
		Lat:            &pt.Lat,
		Lng:            &pt.Lng,
		AvailableFrom:  day,
		AvailableUntil: &day,
		URL:            entry.url,
		TimeDetails:    entry.whenText,
		Source:         s.Source(),
	}, true
}

func (s *FunCheapScraper) Persist(ctx context.Context, items []listing.Candidate) error {
	if s == nil || s.writer == nil {
		return fmt.Errorf("nil scraper/writer")
	}
	listing.SaveAll(ctx, s.writer.Upsert, items, s.logger)
	return nil
}
