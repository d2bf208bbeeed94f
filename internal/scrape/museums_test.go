package scrape

import (
	"context"
	"strings"
	"testing"
	"time"

	"freestuffmap/internal/listing"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNextFreeDay(t *testing.T) {
	// 2025-03-01 is a Saturday, early enough in the month that the current
	// month's free days still count.
	early := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	// 2025-03-10 is past the 7th, so the monthly rules roll to April.
	late := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		rule  freeDayRule
		today time.Time
		want  time.Time
	}{
		{"first sunday, early month", firstSunday, early, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"first tuesday, early month", firstTuesday, early, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"first sunday, late month", firstSunday, late, time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC)},
		{"first tuesday, late month", firstTuesday, late, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"quarterly, mid quarter", quarterlySunday, early, time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC)},
		{"quarterly, year rollover", quarterlySunday, time.Date(2025, 12, 15, 9, 0, 0, 0, time.UTC), time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got := nextFreeDay(tc.rule, tc.today)
		if !got.Equal(tc.want) {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
		if got.Weekday() != tc.want.Weekday() {
			t.Errorf("%s: wrong weekday %v", tc.name, got.Weekday())
		}
	}
}

func TestMuseumScraper_EmitsOneCandidatePerVenue(t *testing.T) {
	writer := newFakeWriter()
	clock := fixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	s := NewMuseumScraperWithClock(writer, clock, nil)

	items, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape error: %v", err)
	}
	if len(items) != len(museums) {
		t.Fatalf("expected %d candidates, got %d", len(museums), len(items))
	}

	for _, it := range items {
		if !strings.HasPrefix(it.Title, "Free Museum Day: ") {
			t.Fatalf("unexpected title %q", it.Title)
		}
		if it.Category != listing.CategoryEvents {
			t.Fatalf("unexpected category %q", it.Category)
		}
		if it.Source != "museums" {
			t.Fatalf("unexpected source %q", it.Source)
		}
		if it.Lat == nil || it.Lng == nil {
			t.Fatalf("museum %q missing coordinates", it.Title)
		}
		if it.AvailableUntil == nil || !it.AvailableUntil.Equal(it.AvailableFrom) {
			t.Fatalf("museum %q should be a single-day event", it.Title)
		}
	}
}

func TestMuseumScraper_RepeatRunsAreIdempotent(t *testing.T) {
	writer := newFakeWriter()
	clock := fixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	s := NewMuseumScraperWithClock(writer, clock, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		items, err := s.Scrape(ctx)
		if err != nil {
			t.Fatalf("scrape %d: %v", i+1, err)
		}
		if err := s.Persist(ctx, items); err != nil {
			t.Fatalf("persist %d: %v", i+1, err)
		}
	}

	if got := writer.count(); got != len(museums) {
		t.Fatalf("expected %d rows after repeat runs, got %d", len(museums), got)
	}
}
