package scrape

import (
	"context"
	"sync"

	"freestuffmap/internal/geo"
	"freestuffmap/internal/listing"
)

// fakeWriter keeps rows by natural key with upsert/insert-ignore semantics,
// standing in for the Postgres-backed store.
type fakeWriter struct {
	mu   sync.Mutex
	rows map[listing.Key]listing.Candidate

	upserts int
	inserts int
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{rows: map[listing.Key]listing.Candidate{}}
}

func (w *fakeWriter) Upsert(_ context.Context, c listing.Candidate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.upserts++
	w.rows[c.Key()] = c
	return nil
}

func (w *fakeWriter) InsertIgnore(_ context.Context, c listing.Candidate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inserts++
	if _, ok := w.rows[c.Key()]; ok {
		return nil
	}
	w.rows[c.Key()] = c
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.rows)
}

func (w *fakeWriter) get(k listing.Key) (listing.Candidate, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.rows[k]
	return c, ok
}

type fakeGeocoder struct {
	points map[string]geo.Point
}

func (g fakeGeocoder) Geocode(_ context.Context, address string) (*geo.Point, bool) {
	pt, ok := g.points[address]
	if !ok {
		return nil, false
	}
	return &pt, true
}
