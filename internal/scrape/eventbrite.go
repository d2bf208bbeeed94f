package scrape

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"freestuffmap/internal/fetch"
	"freestuffmap/internal/listing"
)

const eventbriteDefaultBaseURL = "https://www.eventbriteapi.com/v3"

// EventbriteScraper lists an organization's live free events through the
// authenticated API. Venue coordinates come straight from the expanded venue
// record, so no geocoding is involved.
type EventbriteScraper struct {
	writer  listing.Writer
	fetcher *fetch.Fetcher
	logger  *log.Logger
	token   string
	baseURL string
}

func NewEventbriteScraper(writer listing.Writer, fetcher *fetch.Fetcher, token string, logger *log.Logger) *EventbriteScraper {
	return &EventbriteScraper{
		writer:  writer,
		fetcher: fetcher,
		logger:  logger,
		token:   strings.TrimSpace(token),
		baseURL: eventbriteDefaultBaseURL,
	}
}

func NewEventbriteScraperWithBaseURL(writer listing.Writer, fetcher *fetch.Fetcher, token, baseURL string, logger *log.Logger) *EventbriteScraper {
	s := NewEventbriteScraper(writer, fetcher, token, logger)
	if u := strings.TrimSpace(baseURL); u != "" {
		s.baseURL = strings.TrimRight(u, "/")
	}
	return s
}

func (s *EventbriteScraper) Source() string { return "eventbrite" }

type eventbriteOrgsResponse struct {
	Organizations []struct {
		ID string `json:"id"`
	} `json:"organizations"`
}

type eventbriteEventsResponse struct {
	Events []eventbriteEvent `json:"events"`
}

type eventbriteEvent struct {
	Name struct {
		Text string `json:"text"`
	} `json:"name"`
	Description struct {
		Text string `json:"text"`
	} `json:"description"`
	Start struct {
		UTC string `json:"utc"`
	} `json:"start"`
	End struct {
		UTC string `json:"utc"`
	} `json:"end"`
	URL    string `json:"url"`
	IsFree bool   `json:"is_free"`
	Venue  *struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"venue"`
}

func (s *EventbriteScraper) Scrape(ctx context.Context) ([]listing.Candidate, error) {
	if s == nil || s.writer == nil {
		return nil, fmt.Errorf("nil scraper/writer")
	}
	if s.token == "" {
		return nil, fmt.Errorf("eventbrite: API key not configured")
	}

	headers := map[string]string{"Authorization": "Bearer " + s.token}

	var orgs eventbriteOrgsResponse
	if err := s.fetcher.JSON(ctx, s.baseURL+"/users/me/organizations/", headers, &orgs); err != nil {
		return nil, err
	}
	if len(orgs.Organizations) == 0 {
		return nil, fmt.Errorf("eventbrite: no organizations for token")
	}
	orgID := orgs.Organizations[0].ID

	eventsURL := fmt.Sprintf("%s/organizations/%s/events/?status=live&order_by=start_asc&expand=venue", s.baseURL, orgID)
	var resp eventbriteEventsResponse
	if err := s.fetcher.JSON(ctx, eventsURL, headers, &resp); err != nil {
		return nil, err
	}

	items := make([]listing.Candidate, 0, len(resp.Events))
	for _, ev := range resp.Events {
		if !ev.IsFree {
			continue
		}
		title := strings.TrimSpace(ev.Name.Text)
		from, err := time.Parse(time.RFC3339, strings.TrimSpace(ev.Start.UTC))
		if title == "" || err != nil {
			if s.logger != nil {
				s.logger.Printf("eventbrite: skipping event %q: missing title or start", title)
			}
			continue
		}

		cand := listing.Candidate{
			Title:         title,
			Description:   strings.TrimSpace(ev.Description.Text),
			Category:      listing.CategoryEvents,
			AvailableFrom: from.UTC(),
			URL:           strings.TrimSpace(ev.URL),
			Source:        s.Source(),
		}
		if until, err := time.Parse(time.RFC3339, strings.TrimSpace(ev.End.UTC)); err == nil {
			u := until.UTC()
			cand.AvailableUntil = &u
		}
		if ev.Venue != nil {
			if lat, err1 := strconv.ParseFloat(strings.TrimSpace(ev.Venue.Latitude), 64); err1 == nil {
				if lng, err2 := strconv.ParseFloat(strings.TrimSpace(ev.Venue.Longitude), 64); err2 == nil {
					cand.Lat = &lat
					cand.Lng = &lng
				}
			}
		}
		items = append(items, cand)
	}

	return items, nil
}

func (s *EventbriteScraper) Persist(ctx context.Context, items []listing.Candidate) error {
	if s == nil || s.writer == nil {
		return fmt.Errorf("nil scraper/writer")
	}
	listing.SaveAll(ctx, s.writer.Upsert, items, s.logger)
	return nil
}
