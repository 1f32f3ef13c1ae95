package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"vankino/internal/civildate"
	"vankino/internal/domain"
)

const warmTimeout = 2 * time.Minute

// Warmer recomputes and caches the listing for one civil date.
type Warmer interface {
	Refresh(ctx context.Context, key string) (*domain.DayListing, error)
}

// Scheduler keeps the listing cache warm for today and the following days
// on a cron schedule evaluated in the listings timezone.
type Scheduler struct {
	warmer   Warmer
	calendar *civildate.Calendar
	schedule string
	days     int
	logger   *slog.Logger
	now      func() time.Time
}

func NewScheduler(warmer Warmer, cal *civildate.Calendar, schedule string, days int, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse warmup schedule %q: %w", schedule, err)
	}
	if days < 1 {
		days = 1
	}
	return &Scheduler{
		warmer:   warmer,
		calendar: cal,
		schedule: schedule,
		days:     days,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start warms once immediately, then on every schedule tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.calendar.Location()))
	if _, err := c.AddFunc(s.schedule, func() { s.warm(ctx) }); err != nil {
		return fmt.Errorf("add warmup job: %w", err)
	}

	s.logger.Info("scheduler started", "schedule", s.schedule, "days", s.days)

	s.warm(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// Keys returns the date keys warmed by a run at now.
func (s *Scheduler) Keys(now time.Time) []string {
	today, _ := s.calendar.Parse(s.calendar.Today(now))

	keys := make([]string, 0, s.days)
	for i := 0; i < s.days; i++ {
		keys = append(keys, s.calendar.Key(s.calendar.AddDays(today, i)))
	}
	return keys
}

func (s *Scheduler) warm(ctx context.Context) {
	for _, key := range s.Keys(s.now()) {
		if ctx.Err() != nil {
			return
		}

		warmCtx, cancel := context.WithTimeout(ctx, warmTimeout)
		listing, err := s.warmer.Refresh(warmCtx, key)
		cancel()

		if err != nil {
			s.logger.Error("warmup failed", "date_key", key, "error", err)
			continue
		}
		s.logger.Info("listing warmed", "date_key", key, "events", len(listing.Events))
	}
}
