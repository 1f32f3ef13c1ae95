package cineplex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"vankino/internal/civildate"
	"vankino/internal/domain"
	"vankino/internal/source/fetch"
)

const (
	SourceID   = "cineplex"
	SourceName = "Cineplex Vancouver"

	DefaultBaseURL     = "https://apis.cineplex.com/prod/cpx/theatrical/api"
	DefaultFilmBaseURL = "https://www.cineplex.com/movie"
	showtimesPath      = "/v1/showtimes"

	lowSeatThreshold = 20
	infoSeparator    = " • "
)

// Location is one physical theatre queried by the source.
type Location struct {
	ID   string
	Slug domain.VenueKey
	Name string
}

// DefaultLocations are the downtown Vancouver theatres.
var DefaultLocations = []Location{
	{ID: "1149", Slug: domain.VenueFifthAvenue, Name: "Fifth Avenue Cinemas"},
	{ID: "1147", Slug: domain.VenueInternationalVillage, Name: "International Village"},
}

var utcLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

type Config struct {
	BaseURL     string
	FilmBaseURL string
	APIKey      string
	Locations   []Location
}

type Source struct {
	client      *fetch.Client
	calendar    *civildate.Calendar
	baseURL     string
	filmBaseURL string
	apiKey      string
	locations   []Location
	logger      *slog.Logger
}

func New(cfg Config, client *fetch.Client, cal *civildate.Calendar, logger *slog.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.FilmBaseURL == "" {
		cfg.FilmBaseURL = DefaultFilmBaseURL
	}
	if len(cfg.Locations) == 0 {
		cfg.Locations = DefaultLocations
	}
	return &Source{
		client:      client,
		calendar:    cal,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		filmBaseURL: strings.TrimRight(cfg.FilmBaseURL, "/"),
		apiKey:      cfg.APIKey,
		locations:   cfg.Locations,
		logger:      logger.With("source", SourceID),
	}
}

func (s *Source) ID() string {
	return SourceID
}

func (s *Source) Name() string {
	return SourceName
}

// FetchEvents queries every location in parallel. A failed location
// contributes nothing; the others are still returned.
func (s *Source) FetchEvents(ctx context.Context, target time.Time, key string) ([]domain.CalendarEvent, error) {
	results := make([][]domain.CalendarEvent, len(s.locations))
	errs := make([]error, len(s.locations))

	var g errgroup.Group
	for i, loc := range s.locations {
		i, loc := i, loc
		g.Go(func() error {
			showtimes, err := s.fetchLocation(ctx, loc)
			if err != nil {
				s.logger.Warn("location fetch failed",
					"location_id", loc.ID,
					"location", loc.Slug,
					"error", err,
				)
				errs[i] = fmt.Errorf("location %s: %w", loc.ID, err)
				return nil
			}
			results[i] = s.transform(loc, showtimes, key)
			return nil
		})
	}
	_ = g.Wait()

	var events []domain.CalendarEvent
	for _, r := range results {
		events = append(events, r...)
	}
	return events, errors.Join(errs...)
}

func (s *Source) fetchLocation(ctx context.Context, loc Location) ([]TheatreShowtimes, error) {
	q := url.Values{}
	q.Set("language", "en-us")
	q.Set("LocationId", loc.ID)

	headers := map[string]string{}
	if s.apiKey != "" {
		headers["Ocp-Apim-Subscription-Key"] = s.apiKey
	}

	var showtimes []TheatreShowtimes
	if _, err := s.client.GetJSON(ctx, s.baseURL+showtimesPath+"?"+q.Encode(), headers, &showtimes); err != nil {
		return nil, err
	}
	return showtimes, nil
}

func (s *Source) transform(loc Location, showtimes []TheatreShowtimes, key string) []domain.CalendarEvent {
	var events []domain.CalendarEvent

	for _, theatre := range showtimes {
		for _, date := range theatre.Dates {
			for _, movie := range date.Movies {
				for _, exp := range movie.Experiences {
					for _, session := range exp.Sessions {
						start, err := s.sessionStart(session)
						if err != nil {
							s.logger.Warn("failed to parse session start",
								"movie", movie.Name,
								"start_utc", session.ShowStartDateTimeUtc,
							)
							continue
						}
						if s.calendar.Key(start) != key {
							continue
						}
						events = append(events, s.event(loc, movie, exp, session, start))
					}
				}
			}
		}
	}

	return events
}

// sessionStart prefers the UTC field; the local field has no offset.
func (s *Source) sessionStart(session Session) (time.Time, error) {
	if v := strings.TrimSpace(session.ShowStartDateTimeUtc); v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t, nil
		}
		for _, layout := range utcLayouts {
			if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
				return t, nil
			}
		}
	}
	return s.calendar.ParseLocal(session.ShowStartDateTime)
}

func (s *Source) event(loc Location, movie Movie, exp Experience, session Session, start time.Time) domain.CalendarEvent {
	title := strings.TrimSpace(movie.Name)
	if len(exp.ExperienceTypes) > 0 {
		title = fmt.Sprintf("%s (%s)", title, strings.Join(exp.ExperienceTypes, ", "))
	}

	eventType := domain.DefaultEventType
	if slices.Contains(movie.Genres, "Documentary") {
		eventType = "Documentary"
	}

	event := domain.CalendarEvent{
		Start:      start,
		ResourceID: string(loc.Slug),
		Title:      title,
		MoreInfo:   moreInfo(movie, session),
		EventType:  eventType,
		VenueKey:   loc.Slug,
	}
	if movie.RuntimeInMinutes > 0 {
		event.End = start.Add(time.Duration(movie.RuntimeInMinutes) * time.Minute)
	}
	if movie.FilmURL != "" {
		event.MoreInfoURL = s.filmBaseURL + "/" + strings.TrimLeft(movie.FilmURL, "/")
	}

	event.Normalize()
	return event
}

func moreInfo(movie Movie, session Session) string {
	var parts []string
	if len(movie.Genres) > 0 {
		parts = append(parts, strings.Join(movie.Genres, ", "))
	}
	if movie.LocalRating != "" {
		parts = append(parts, "Rated "+movie.LocalRating)
	}
	if movie.RuntimeInMinutes > 0 {
		parts = append(parts, fmt.Sprintf("%d min", movie.RuntimeInMinutes))
	}
	if session.Auditorium != "" {
		parts = append(parts, session.Auditorium)
	}
	if session.IsSoldOut {
		parts = append(parts, "SOLD OUT")
	} else if session.SeatsRemaining < lowSeatThreshold {
		parts = append(parts, fmt.Sprintf("%d seats left", session.SeatsRemaining))
	}
	return strings.Join(parts, infoSeparator)
}
