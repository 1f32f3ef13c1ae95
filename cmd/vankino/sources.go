package main

import (
	"fmt"
	"log/slog"

	"vankino/internal/civildate"
	"vankino/internal/config"
	"vankino/internal/domain"
	"vankino/internal/service"
	"vankino/internal/source/cinematheque"
	"vankino/internal/source/cineplex"
	"vankino/internal/source/fetch"
	"vankino/internal/source/rio"
	"vankino/internal/source/viff"
)

// buildSources wires every enabled venue in a fixed order.
func buildSources(cfg *config.Config, cal *civildate.Calendar, logger *slog.Logger) ([]service.Source, error) {
	client := fetch.New(fetch.Config{
		Timeout:        cfg.HTTPClient.Timeout,
		MaxAttempts:    cfg.HTTPClient.Retry.MaxAttempts,
		InitialBackoff: cfg.HTTPClient.Retry.InitialBackoff,
		MaxBackoff:     cfg.HTTPClient.Retry.MaxBackoff,
		UserAgent:      cfg.HTTPClient.UserAgent,
	}, logger.With("component", "fetch"))

	venues := cfg.Venues
	var sources []service.Source

	if !venues.VIFF.Disabled {
		sources = append(sources, viff.New(viff.Config{
			BaseURL: venues.VIFF.BaseURL,
		}, client, cal, logger))
	}

	if !venues.Rio.Disabled {
		sources = append(sources, rio.New(rio.Config{
			BaseURL:    venues.Rio.BaseURL,
			WindowDays: venues.Rio.WindowDays,
			PerPage:    venues.Rio.PerPage,
			MaxPages:   venues.Rio.MaxPages,
		}, client, cal, logger))
	}

	if !venues.Cinematheque.Disabled {
		sources = append(sources, cinematheque.New(cinematheque.Config{
			BaseURL: venues.Cinematheque.BaseURL,
		}, client, cal, logger))
	}

	if !venues.Cineplex.Disabled {
		if venues.Cineplex.APIKey == "" {
			logger.Warn("cineplex api key not set, source disabled")
		} else {
			locations, err := cineplexLocations(venues.Cineplex.Locations)
			if err != nil {
				return nil, err
			}
			sources = append(sources, cineplex.New(cineplex.Config{
				BaseURL:     venues.Cineplex.BaseURL,
				FilmBaseURL: venues.Cineplex.FilmBaseURL,
				APIKey:      venues.Cineplex.APIKey,
				Locations:   locations,
			}, client, cal, logger))
		}
	}

	return sources, nil
}

func cineplexLocations(in []config.CineplexLocationConfig) ([]cineplex.Location, error) {
	locations := make([]cineplex.Location, 0, len(in))
	for _, l := range in {
		slug := domain.VenueKey(l.Slug)
		if !slug.Valid() {
			return nil, fmt.Errorf("cineplex location %s: unknown venue %q", l.ID, l.Slug)
		}
		locations = append(locations, cineplex.Location{ID: l.ID, Slug: slug, Name: l.Name})
	}
	return locations, nil
}
