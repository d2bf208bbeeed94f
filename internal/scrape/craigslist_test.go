package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"freestuffmap/internal/listing"
)

const craigslistSearchPage = `<html><body><ul>
<li class="result-row">
  <div class="result-info">
    <time datetime="2025-03-01 10:30"></time>
    <a href="/zip/d/free-couch/101.html" class="result-title">Free couch</a>
    <span class="result-hood">(mission)</span>
  </div>
</li>
<li class="result-row">
  <div class="result-info">
    <time datetime="2025-03-02 08:15"></time>
    <a href="/zip/d/moving-boxes/102.html" class="result-title">Moving boxes</a>
    <span class="result-hood">(sunset / parkside)</span>
  </div>
</li>
<li class="result-row">
  <div class="result-info">
    <a href="/zip/d/mystery/103.html" class="result-title">No timestamp here</a>
  </div>
</li>
</ul></body></html>`

func TestCraigslistScraper_ParsesResultRows(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/sfc/zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(craigslistSearchPage))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	writer := newFakeWriter()
	s := NewCraigslistScraperWithBaseURL(writer, server.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	items, err := s.Scrape(ctx)
	if err != nil {
		t.Fatalf("scrape error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 candidates (row without timestamp dropped), got %d", len(items))
	}

	couch := items[0]
	if couch.Title != "Free couch" {
		t.Fatalf("unexpected title %q", couch.Title)
	}
	if couch.Source != "craigslist" {
		t.Fatalf("unexpected source %q", couch.Source)
	}
	if couch.Category != listing.CategoryItems {
		t.Fatalf("unexpected category %q", couch.Category)
	}
	want := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	if !couch.AvailableFrom.Equal(want) {
		t.Fatalf("unexpected available_from %v", couch.AvailableFrom)
	}
	if !strings.HasSuffix(couch.URL, "/zip/d/free-couch/101.html") {
		t.Fatalf("expected relative link resolved against base, got %q", couch.URL)
	}
	if couch.Description != "(mission)" {
		t.Fatalf("unexpected neighborhood %q", couch.Description)
	}
	if couch.Lat != nil || couch.Lng != nil {
		t.Fatalf("craigslist rows must land without coordinates")
	}
}

func TestCraigslistScraper_PersistIsInsertIgnore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/sfc/zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(craigslistSearchPage))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	writer := newFakeWriter()
	s := NewCraigslistScraperWithBaseURL(writer, server.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := 0; i < 2; i++ {
		items, err := s.Scrape(ctx)
		if err != nil {
			t.Fatalf("scrape %d: %v", i+1, err)
		}
		if err := s.Persist(ctx, items); err != nil {
			t.Fatalf("persist %d: %v", i+1, err)
		}
	}

	if got := writer.count(); got != 2 {
		t.Fatalf("expected 2 rows after re-scrape, got %d", got)
	}
	if writer.upserts != 0 {
		t.Fatalf("craigslist must never upsert, saw %d upserts", writer.upserts)
	}
}

func TestParseResultTimestampLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-01 10:30":     time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		"2025-03-01T10:30:00Z": time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		"2025-03-01":           time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := parseResultTimestamp(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: got %v want %v", in, got, want)
		}
	}
	if _, err := parseResultTimestamp("yesterday-ish"); err == nil {
		t.Fatalf("expected error for junk timestamp")
	}
}
