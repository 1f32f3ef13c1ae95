package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"vankino/internal/civildate"
	"vankino/internal/config"
	"vankino/internal/domain"
	"vankino/internal/ics"
	"vankino/internal/service"
)

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Aggregate one day of listings and print it to stdout.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "optional path to config file"},
			&cli.StringFlag{Name: "date", Usage: "civil date as YYYY-MM-DD (default today)"},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "output format: json or ics"},
		},
		Action: func(c *cli.Context) error {
			format := c.String("format")
			if format != "json" && format != "ics" {
				return fmt.Errorf("unknown format %q", format)
			}

			cfg := config.Default()
			if path := c.String("config"); path != "" {
				loaded, err := config.Load(path)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}

			// stdout carries the listing itself
			logger := newLogger(c.App.ErrWriter, cfg.LogLevel)

			cal, err := civildate.New(cfg.Listings.Timezone)
			if err != nil {
				return err
			}

			sources, err := buildSources(cfg, cal, logger)
			if err != nil {
				return err
			}

			listings := service.NewListingService(sources, nil, nil, nil, nil, cal, logger, cfg.Listings)
			listing := listings.GetEventsForDate(c.Context, c.String("date"))

			return writeListing(c.App.Writer, format, listing, time.Now())
		},
	}
}

func writeListing(w io.Writer, format string, listing *domain.DayListing, now time.Time) error {
	if format == "ics" {
		_, err := io.WriteString(w, ics.Export(listing, now))
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(listing)
}
