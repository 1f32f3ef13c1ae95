package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"vankino/internal/domain"
)

const (
	keyPrefix  = "vankino:listings:"
	DefaultTTL = 15 * time.Minute
)

// Key returns the store key for a date key.
func Key(dateKey string) string {
	return keyPrefix + dateKey
}

// ListingCache stores DayListing payloads. Store failures and unreadable
// entries behave like misses.
type ListingCache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewListingCache(store Store, ttl time.Duration, logger *slog.Logger) *ListingCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ListingCache{
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "listing_cache"),
	}
}

func (c *ListingCache) TTL() time.Duration {
	return c.ttl
}

func (c *ListingCache) Get(ctx context.Context, dateKey string) (*domain.DayListing, bool) {
	key := Key(dateKey)

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	listing, err := decode(raw, dateKey)
	if err != nil {
		c.logger.Warn("discarding corrupted cache entry", "key", key, "error", err)
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn("cache delete failed", "key", key, "error", err)
		}
		return nil, false
	}
	return listing, true
}

func (c *ListingCache) Set(ctx context.Context, listing *domain.DayListing) {
	key := Key(listing.DateKey)

	raw, err := json.Marshal(listing)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func decode(raw []byte, dateKey string) (*domain.DayListing, error) {
	var listing domain.DayListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if listing.DateKey != dateKey {
		return nil, fmt.Errorf("entry is for %q", listing.DateKey)
	}
	if listing.Events == nil {
		return nil, fmt.Errorf("entry has no events field")
	}
	return &listing, nil
}
