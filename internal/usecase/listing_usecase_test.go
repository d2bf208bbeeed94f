package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"freestuffmap/internal/listing"
)

type mockLister struct {
	items []listing.Listing
	err   error
	calls int
}

func (m *mockLister) List(context.Context, listing.Filter) ([]listing.Listing, error) {
	m.calls++
	return m.items, m.err
}

type mockCache struct {
	data map[string][]byte

	sets    int
	deletes []string
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (m *mockCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *mockCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.sets++
	return nil
}

func (m *mockCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.deletes = append(m.deletes, pattern)
	m.data = map[string][]byte{}
	return nil
}

func TestListingQuery_List_CachesSecondRead(t *testing.T) {
	store := &mockLister{items: []listing.Listing{{
		ID:    1,
		Title: "Free couch",
	}}}
	cache := newMockCache()
	uc := NewListingQuery(store, cache, nil)

	f := listing.Filter{Search: "couch", Limit: 20}

	first, err := uc.List(context.Background(), f)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	second, err := uc.List(context.Background(), f)
	if err != nil {
		t.Fatalf("list (2nd): %v", err)
	}

	if store.calls != 1 {
		t.Fatalf("expected second read served from cache, store hit %d times", store.calls)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache fill, got %d", cache.sets)
	}
	if len(first) != 1 || len(second) != 1 || second[0].Title != "Free couch" {
		t.Fatalf("unexpected results: %+v / %+v", first, second)
	}
}

func TestListingQuery_List_DistinctFiltersDistinctKeys(t *testing.T) {
	store := &mockLister{}
	cache := newMockCache()
	uc := NewListingQuery(store, cache, nil)

	if _, err := uc.List(context.Background(), listing.Filter{Search: "couch"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := uc.List(context.Background(), listing.Filter{Search: "bread"}); err != nil {
		t.Fatalf("list: %v", err)
	}

	if store.calls != 2 {
		t.Fatalf("different filters must miss the cache, store hit %d times", store.calls)
	}
}

func TestListingQuery_List_StoreErrorPassesThrough(t *testing.T) {
	wantErr := errors.New("db down")
	uc := NewListingQuery(&mockLister{err: wantErr}, newMockCache(), nil)

	if _, err := uc.List(context.Background(), listing.Filter{}); !errors.Is(err, wantErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestListingQuery_Invalidate(t *testing.T) {
	store := &mockLister{}
	cache := newMockCache()
	uc := NewListingQuery(store, cache, nil)

	if _, err := uc.List(context.Background(), listing.Filter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	uc.Invalidate(context.Background())
	if _, err := uc.List(context.Background(), listing.Filter{}); err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(cache.deletes) != 1 || cache.deletes[0] != "listings:*" {
		t.Fatalf("expected one listings:* invalidation, got %v", cache.deletes)
	}
	if store.calls != 2 {
		t.Fatalf("expected cache refill after invalidation, store hit %d times", store.calls)
	}
}
