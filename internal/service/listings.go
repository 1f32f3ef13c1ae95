package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"vankino/internal/civildate"
	"vankino/internal/config"
	"vankino/internal/domain"
	"vankino/internal/metrics"
)

// ListingService aggregates every venue source into one sorted listing per
// civil date. Cache, venue state, transactions and publisher are optional.
type ListingService struct {
	sources   []Source
	cache     ListingCache
	states    VenueStateStore
	txManager TransactionManager
	publisher Publisher
	calendar  *civildate.Calendar
	logger    *slog.Logger
	config    config.ListingsConfig
	now       func() time.Time
}

func NewListingService(
	sources []Source,
	cache ListingCache,
	states VenueStateStore,
	txManager TransactionManager,
	publisher Publisher,
	cal *civildate.Calendar,
	logger *slog.Logger,
	cfg config.ListingsConfig,
) *ListingService {
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 15 * time.Second
	}
	return &ListingService{
		sources:   sources,
		cache:     cache,
		states:    states,
		txManager: txManager,
		publisher: publisher,
		calendar:  cal,
		logger:    logger.With("component", "listings"),
		config:    cfg,
		now:       time.Now,
	}
}

// GetEventsForDate resolves raw to a civil date (today when missing or
// malformed) and returns its listing, from cache when possible.
func (s *ListingService) GetEventsForDate(ctx context.Context, raw string) *domain.DayListing {
	key, instant := s.calendar.Resolve(raw, s.now())

	if s.cache != nil {
		if listing, ok := s.cache.Get(ctx, key); ok {
			metrics.RecordCacheHit()
			s.logger.Debug("serving cached listing", "date_key", key)
			return listing
		}
		metrics.RecordCacheMiss()
	}

	listing := s.build(ctx, key, instant)
	s.store(ctx, listing)
	return listing
}

// Refresh recomputes the listing for key and overwrites the cache entry.
func (s *ListingService) Refresh(ctx context.Context, key string) (*domain.DayListing, error) {
	instant, ok := s.calendar.Parse(key)
	if !ok {
		return nil, domain.ErrValidation(fmt.Sprintf("Invalid date %q", key))
	}

	listing := s.build(ctx, key, instant)
	s.store(ctx, listing)
	return listing, nil
}

// Collect fans out to every source and merges the results for key. Source
// failures are logged and contribute no events.
func (s *ListingService) Collect(ctx context.Context, key string, instant time.Time) []domain.CalendarEvent {
	batches := make([][]domain.CalendarEvent, len(s.sources))
	stats := make([]domain.FetchStats, len(s.sources))

	var g errgroup.Group
	for i, src := range s.sources {
		i, src := i, src
		g.Go(func() error {
			batches[i], stats[i] = s.fetchSource(ctx, src, key, instant)
			return nil
		})
	}
	_ = g.Wait()

	s.recordStates(ctx, stats)

	events := s.merge(batches, key)

	s.logger.Info("listing collected",
		"date_key", key,
		"sources", len(s.sources),
		"events", len(events),
	)

	return events
}

// States lists fetch health for every source seen so far.
func (s *ListingService) States(ctx context.Context) ([]domain.VenueState, error) {
	if s.states == nil {
		return []domain.VenueState{}, nil
	}
	states, err := s.states.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list venue states: %w", err)
	}
	if states == nil {
		states = []domain.VenueState{}
	}
	return states, nil
}

func (s *ListingService) build(ctx context.Context, key string, instant time.Time) *domain.DayListing {
	events := s.Collect(ctx, key, instant)

	return &domain.DayListing{
		Events:  events,
		DateISO: instant.UTC().Format(domain.IdentityTimeLayout),
		DateKey: key,
		Day: domain.DayNav{
			Display: s.calendar.Display(instant),
			Weekday: s.calendar.Weekday(instant),
			Prev:    s.calendar.Key(s.calendar.AddDays(instant, -1)),
			Next:    s.calendar.Key(s.calendar.AddDays(instant, 1)),
		},
	}
}

func (s *ListingService) store(ctx context.Context, listing *domain.DayListing) {
	if s.cache != nil {
		s.cache.Set(ctx, listing)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishListing(ctx, listing); err != nil {
			s.logger.Warn("publish listing failed", "date_key", listing.DateKey, "error", err)
		}
	}
}

type fetchResult struct {
	events []domain.CalendarEvent
	err    error
}

func (s *ListingService) fetchSource(ctx context.Context, src Source, key string, instant time.Time) (events []domain.CalendarEvent, stats domain.FetchStats) {
	started := time.Now()
	stats.SourceID = src.ID()

	defer func() {
		stats.Events = len(events)
		stats.Duration = time.Since(started)

		metrics.RecordSourceFetch(stats.SourceID, stats.Events, stats.Err, stats.Duration)

		if stats.Err != nil {
			s.logger.Warn("source fetch failed",
				"source", stats.SourceID,
				"date_key", key,
				"kept_events", stats.Events,
				"error", stats.Err,
			)
			return
		}
		s.logger.Debug("source fetched",
			"source", stats.SourceID,
			"date_key", key,
			"events", stats.Events,
			"duration", stats.Duration,
		)
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.SourceTimeout)
	defer cancel()

	// A source that ignores fetchCtx is abandoned at the deadline; the
	// buffered channel lets its goroutine exit whenever it returns.
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: fmt.Errorf("source panicked: %v", r)}
			}
		}()
		evs, err := src.FetchEvents(fetchCtx, instant, key)
		done <- fetchResult{events: evs, err: err}
	}()

	select {
	case res := <-done:
		events, stats.Err = res.events, res.err
	case <-fetchCtx.Done():
		stats.Err = fmt.Errorf("source abandoned: %w", fetchCtx.Err())
	}
	return events, stats
}

func (s *ListingService) merge(batches [][]domain.CalendarEvent, key string) []domain.CalendarEvent {
	merged := make([]domain.CalendarEvent, 0)
	seen := make(map[string]struct{})

	for _, batch := range batches {
		for _, e := range batch {
			if !e.VenueKey.Valid() {
				continue
			}
			e.Normalize()
			if s.calendar.Key(e.Start) != key {
				continue
			}

			id := domain.EventIdentity(e)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			merged = append(merged, e)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start.Before(merged[j].Start)
	})

	return merged
}

// recordStates writes the health of every source for one round in a single
// transaction, so a round is either fully recorded or not at all.
func (s *ListingService) recordStates(ctx context.Context, stats []domain.FetchStats) {
	if s.states == nil || len(stats) == 0 {
		return
	}

	err := s.withTransaction(ctx, func(txCtx context.Context) error {
		now := s.now().UTC()
		for _, st := range stats {
			state, err := s.states.Get(txCtx, st.SourceID)
			if err != nil {
				return fmt.Errorf("get venue state %s: %w", st.SourceID, err)
			}

			state.SourceID = st.SourceID
			state.LastFetchedAt = now
			state.LastEventCount = st.Events
			state.TotalFetches++
			if st.Err != nil {
				msg := st.Err.Error()
				state.LastError = &msg
				state.TotalFailures++
			} else {
				state.LastError = nil
				succeeded := now
				state.LastSucceededAt = &succeeded
			}

			if err := s.states.Update(txCtx, state); err != nil {
				return fmt.Errorf("update venue state %s: %w", st.SourceID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("record venue states failed", "sources", len(stats), "error", err)
	}
}

func (s *ListingService) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txManager == nil {
		return fn(ctx)
	}
	return s.txManager.WithTransaction(ctx, fn)
}
