package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"freestuffmap/internal/cache"
	"freestuffmap/internal/listing"
)

const listingsCachePrefix = "listings:"

// Cache is the subset of the redis adapter the query path needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Lister is the read side of the listing store.
type Lister interface {
	List(ctx context.Context, f listing.Filter) ([]listing.Listing, error)
}

// ListingQuery serves the read-side listings API, caching filter results for
// a few minutes between ingestion runs.
type ListingQuery struct {
	store  Lister
	cache  Cache
	logger *log.Logger
}

func NewListingQuery(store Lister, c Cache, logger *log.Logger) *ListingQuery {
	return &ListingQuery{store: store, cache: c, logger: logger}
}

func (u *ListingQuery) List(ctx context.Context, f listing.Filter) ([]listing.Listing, error) {
	if u == nil || u.store == nil {
		return nil, fmt.Errorf("nil usecase/store")
	}

	key := cacheKey(f)
	if u.cache != nil {
		var cached []listing.Listing
		if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	items, err := u.store.List(ctx, f)
	if err != nil {
		return nil, err
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, items, cache.DefaultTTL); err != nil && u.logger != nil {
			u.logger.Printf("cache listings: %v", err)
		}
	}
	return items, nil
}

// Invalidate drops every cached listings query; called after each successful
// ingestion run.
func (u *ListingQuery) Invalidate(ctx context.Context) {
	if u == nil || u.cache == nil {
		return
	}
	if err := u.cache.DeleteByPattern(ctx, listingsCachePrefix+"*"); err != nil && u.logger != nil {
		u.logger.Printf("invalidate listings cache: %v", err)
	}
}

func cacheKey(f listing.Filter) string {
	parts := make([]string, 0, 8)
	parts = append(parts, strings.ToLower(strings.TrimSpace(f.Search)))
	for _, c := range f.Categories {
		parts = append(parts, string(c))
	}
	if f.StartDate != nil {
		parts = append(parts, "s:"+f.StartDate.UTC().Format(time.RFC3339))
	}
	if f.EndDate != nil {
		parts = append(parts, "e:"+f.EndDate.UTC().Format(time.RFC3339))
	}
	if f.Limit > 0 {
		parts = append(parts, fmt.Sprintf("l:%d", f.Limit))
	}
	h := sha1.Sum([]byte(strings.Join(parts, "|")))
	return listingsCachePrefix + hex.EncodeToString(h[:])
}
