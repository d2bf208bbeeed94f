package scrape

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"
	"time"

	"freestuffmap/internal/fetch"
	"freestuffmap/internal/listing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const craigslistDefaultBaseURL = "https://sfbay.craigslist.org"

// CraigslistScraper walks the free-stuff search results page. Rows carry only
// a title, a neighborhood blurb and a machine-readable timestamp, so listings
// land with no coordinates. Persisted with insert-if-absent: craigslist posts
// are immutable once seen and re-scrapes must not clobber anything.
type CraigslistScraper struct {
	writer      listing.Writer
	logger      *log.Logger
	baseURL     string
	allowedHost string
	headless    bool
}

func NewCraigslistScraper(writer listing.Writer, logger *log.Logger) *CraigslistScraper {
	return NewCraigslistScraperWithBaseURL(writer, craigslistDefaultBaseURL, logger)
}

func NewCraigslistScraperWithBaseURL(writer listing.Writer, baseURL string, logger *log.Logger) *CraigslistScraper {
	s := &CraigslistScraper{writer: writer, logger: logger, baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
	if s.baseURL == "" {
		s.baseURL = craigslistDefaultBaseURL
	}
	s.allowedHost = hostFromBaseURL(s.baseURL)
	return s
}

// EnableHeadlessFallback re-fetches through a rendered browser when the
// static page yields no result rows.
func (s *CraigslistScraper) EnableHeadlessFallback() {
	s.headless = true
}

func (s *CraigslistScraper) Source() string { return "craigslist" }

func (s *CraigslistScraper) Scrape(ctx context.Context) ([]listing.Candidate, error) {
	if s == nil || s.writer == nil {
		return nil, fmt.Errorf("nil scraper/writer")
	}

	searchURL := s.baseURL + "/search/sfc/zip"

	c := colly.NewCollector(
		colly.AllowedDomains(s.allowedHost),
		colly.UserAgent(fetch.UserAgent),
	)

	items := make([]listing.Candidate, 0, 64)
	c.OnHTML(".result-info", func(e *colly.HTMLElement) {
		if cand, ok := s.parseResultRow(e.DOM); ok {
			items = append(items, cand)
		}
	})

	var reqErr error
	c.OnError(func(_ *colly.Response, err error) {
		reqErr = err
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("craigslist visit: %w", err)
	}
	c.Wait()
	if reqErr != nil {
		return nil, fmt.Errorf("craigslist fetch: %w", reqErr)
	}

	if len(items) == 0 && s.headless {
		doc, err := fetch.RenderedHTML(ctx, searchURL)
		if err != nil {
			return nil, err
		}
		doc.Find(".result-info").Each(func(_ int, sel *goquery.Selection) {
			if cand, ok := s.parseResultRow(sel); ok {
				items = append(items, cand)
			}
		})
	}

	return items, nil
}

func (s *CraigslistScraper) parseResultRow(sel *goquery.Selection) (listing.Candidate, bool) {
	title := strings.TrimSpace(sel.Find(".result-title").Text())
	dateText, _ := sel.Find("time").Attr("datetime")
	if title == "" || strings.TrimSpace(dateText) == "" {
		return listing.Candidate{}, false
	}

	from, err := parseResultTimestamp(dateText)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("craigslist: bad timestamp %q for %q: %v", dateText, title, err)
		}
		return listing.Candidate{}, false
	}

	link, _ := sel.Find(".result-title").Attr("href")
	if link != "" && strings.HasPrefix(link, "/") {
		link = s.baseURL + link
	}

	return listing.Candidate{
		Title:         title,
		Description:   strings.TrimSpace(sel.Find(".result-hood").Text()),
		Category:      listing.CategoryItems,
		AvailableFrom: from,
		URL:           link,
		Source:        s.Source(),
	}, true
}

var resultTimestampLayouts = []string{
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02",
}

func parseResultTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	var lastErr error
	for _, layout := range resultTimestampLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func (s *CraigslistScraper) Persist(ctx context.Context, items []listing.Candidate) error {
	if s == nil || s.writer == nil {
		return fmt.Errorf("nil scraper/writer")
	}
	listing.SaveAll(ctx, s.writer.InsertIgnore, items, s.logger)
	return nil
}

func hostFromBaseURL(base string) string {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(u.Host); err == nil {
		return h
	}
	return u.Host
}
