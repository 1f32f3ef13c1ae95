package rio

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vankino/internal/civildate"
	"vankino/internal/domain"
	"vankino/internal/source/fetch"
	"vankino/internal/source/text"
)

const (
	SourceID   = "rio"
	SourceName = "Rio Theatre"

	DefaultBaseURL = "https://riotheatre.ca"
	listingsPath   = "/wp-json/barker/v1/listings"
	resourceID     = "rio-theatre"

	windowLayout = "2006-01-02T15:04:05.000Z"
)

type Config struct {
	BaseURL    string
	WindowDays int
	PerPage    int
	MaxPages   int
}

type Source struct {
	client     *fetch.Client
	calendar   *civildate.Calendar
	baseURL    string
	windowDays int
	perPage    int
	maxPages   int
	logger     *slog.Logger
}

func New(cfg Config, client *fetch.Client, cal *civildate.Calendar, logger *slog.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 7
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 500
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	return &Source{
		client:     client,
		calendar:   cal,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		windowDays: cfg.WindowDays,
		perPage:    cfg.PerPage,
		maxPages:   cfg.MaxPages,
		logger:     logger.With("source", SourceID),
	}
}

func (s *Source) ID() string {
	return SourceID
}

func (s *Source) Name() string {
	return SourceName
}

// FetchEvents pulls the listing window around target and keeps the
// showtimes that fall on key. Listings gathered before a failing page
// are returned with the error.
func (s *Source) FetchEvents(ctx context.Context, target time.Time, key string) ([]domain.CalendarEvent, error) {
	windowStart, windowEnd, err := s.window(target)
	if err != nil {
		return nil, err
	}

	var all []Listing
	for page := 1; page <= s.maxPages; page++ {
		listings, totalPages, err := s.fetchPage(ctx, windowStart, windowEnd, page)
		if err != nil {
			return s.transform(all, key), fmt.Errorf("fetch page %d: %w", page, err)
		}

		all = append(all, listings...)

		s.logger.Debug("fetched page",
			"page", page,
			"listings", len(listings),
			"total", len(all),
		)

		if page >= totalPages || len(listings) == 0 {
			break
		}
	}

	return s.transform(all, key), nil
}

func (s *Source) window(target time.Time) (time.Time, time.Time, error) {
	first := s.calendar.Key(s.calendar.AddDays(target, -s.windowDays))
	last := s.calendar.Key(s.calendar.AddDays(target, s.windowDays))

	start, _, err := s.calendar.DayBounds(first)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	_, end, err := s.calendar.DayBounds(last)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (s *Source) fetchPage(ctx context.Context, start, end time.Time, page int) ([]Listing, int, error) {
	q := url.Values{}
	q.Set("_embed", "true")
	q.Set("start_date", start.UTC().Format(windowLayout))
	q.Set("end_date", end.UTC().Format(windowLayout))
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(s.perPage))
	q.Set("status", "publish")

	var listings []Listing
	header, err := s.client.GetJSON(ctx, s.baseURL+listingsPath+"?"+q.Encode(), nil, &listings)
	if err != nil {
		return nil, 0, err
	}

	totalPages := 1
	if v := header.Get("X-WP-TotalPages"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			totalPages = n
		}
	}
	return listings, totalPages, nil
}

func (s *Source) transform(listings []Listing, key string) []domain.CalendarEvent {
	events := make([]domain.CalendarEvent, 0, len(listings))

	for _, l := range listings {
		start, err := s.calendar.ParseLocal(l.StartTime)
		if err != nil {
			s.logger.Warn("failed to parse start time",
				"listing_id", l.ID,
				"start_time", l.StartTime,
			)
			continue
		}
		if s.calendar.Key(start) != key {
			continue
		}

		event := domain.CalendarEvent{
			Start:      start,
			ResourceID: resourceID,
			MoreInfo:   text.Plain(l.Extra),
			EventType:  domain.DefaultEventType,
			VenueKey:   domain.VenueRio,
		}
		if l.EndTime != "" {
			if end, err := s.calendar.ParseLocal(l.EndTime); err == nil {
				event.End = end
			}
		}
		if l.Event != nil {
			event.Title = text.Plain(string(l.Event.Title))
			event.MoreInfoURL = strings.TrimSpace(l.Event.Link)
		}
		if event.MoreInfoURL == "" {
			event.MoreInfoURL = strings.TrimSpace(l.TicketsLink)
		}

		event.Normalize()
		events = append(events, event)
	}

	return events
}
