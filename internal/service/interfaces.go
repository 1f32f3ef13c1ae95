package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"vankino/internal/domain"
)

// Source is one venue extractor. Implementations may return partial
// results together with an error.
type Source interface {
	ID() string
	Name() string
	FetchEvents(ctx context.Context, target time.Time, key string) ([]domain.CalendarEvent, error)
}

type ListingCache interface {
	Get(ctx context.Context, dateKey string) (*domain.DayListing, bool)
	Set(ctx context.Context, listing *domain.DayListing)
}

type HypeStore interface {
	Increment(ctx context.Context, req domain.HypeRequest) (int, error)
	Decrement(ctx context.Context, req domain.HypeRequest) (int, error)
	Counts(ctx context.Context, ids []string) (map[string]int, error)
}

type VenueStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.VenueState, error)
	Update(ctx context.Context, state *domain.VenueState) error
	List(ctx context.Context) ([]domain.VenueState, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	PublishListing(ctx context.Context, listing *domain.DayListing) error
	PublishHype(ctx context.Context, req domain.HypeRequest, result domain.HypeResult, delta int) error
	Close() error
}
