package geo

import (
	"context"
	"log"
	"net/url"
	"strconv"
	"strings"

	"freestuffmap/internal/fetch"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

type Point struct {
	Lat float64
	Lng float64
}

// Client resolves free-text addresses through the public Nominatim endpoint.
// It issues exactly one request per call and leaves throttling to the caller;
// a lookup failure of any kind reads as "not found" so that geocoding never
// sinks an otherwise valid listing.
type Client struct {
	fetcher *fetch.Fetcher
	baseURL string
	logger  *log.Logger
}

func NewClient(fetcher *fetch.Fetcher, logger *log.Logger) *Client {
	return &Client{fetcher: fetcher, baseURL: defaultBaseURL, logger: logger}
}

func NewClientWithBaseURL(fetcher *fetch.Fetcher, baseURL string, logger *log.Logger) *Client {
	c := NewClient(fetcher, logger)
	if u := strings.TrimSpace(baseURL); u != "" {
		c.baseURL = strings.TrimRight(u, "/")
	}
	return c
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the best match for address, or ok=false when nothing
// matched or the lookup failed.
func (c *Client) Geocode(ctx context.Context, address string) (*Point, bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, false
	}

	reqURL := c.baseURL + "/search?q=" + url.QueryEscape(address) + "&format=json&limit=1"

	var results []nominatimResult
	if err := c.fetcher.JSON(ctx, reqURL, nil, &results); err != nil {
		if c.logger != nil {
			c.logger.Printf("geocode %q: %v", address, err)
		}
		return nil, false
	}
	if len(results) == 0 {
		return nil, false
	}

	lat, err1 := strconv.ParseFloat(strings.TrimSpace(results[0].Lat), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(results[0].Lon), 64)
	if err1 != nil || err2 != nil {
		if c.logger != nil {
			c.logger.Printf("geocode %q: bad coordinates in response", address)
		}
		return nil, false
	}

	return &Point{Lat: lat, Lng: lng}, true
}
