package viff

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"vankino/internal/civildate"
	"vankino/internal/domain"
	"vankino/internal/source/fetch"
	"vankino/internal/source/text"
)

const (
	SourceID   = "viff"
	SourceName = "VIFF Centre"

	DefaultBaseURL = "https://viff.org"
	instancesPath  = "/wp-json/v1/attendable/calendar/instances"
)

var durationPattern = regexp.MustCompile(`(\d+)\s*min`)

type Config struct {
	BaseURL string
}

type Source struct {
	client   *fetch.Client
	calendar *civildate.Calendar
	baseURL  string
	logger   *slog.Logger
}

func New(cfg Config, client *fetch.Client, cal *civildate.Calendar, logger *slog.Logger) *Source {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		client:   client,
		calendar: cal,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger.With("source", SourceID),
	}
}

func (s *Source) ID() string {
	return SourceID
}

func (s *Source) Name() string {
	return SourceName
}

// FetchEvents requests the instances for the target date. The upstream date
// filter is not trusted; every instance is re-checked against key.
func (s *Source) FetchEvents(ctx context.Context, target time.Time, key string) ([]domain.CalendarEvent, error) {
	url := fmt.Sprintf("%s%s?dates=%s", s.baseURL, instancesPath, s.dateParam(target))

	var instances InstanceList
	if _, err := s.client.GetJSON(ctx, url, nil, &instances); err != nil {
		return nil, fmt.Errorf("fetch instances: %w", err)
	}

	events := s.transform(instances, key)

	s.logger.Debug("fetched instances",
		"received", len(instances),
		"kept", len(events),
	)
	return events, nil
}

// dateParam renders "March+10+2024".
func (s *Source) dateParam(target time.Time) string {
	local := target.In(s.calendar.Location())
	return fmt.Sprintf("%s+%d+%d", local.Month().String(), local.Day(), local.Year())
}

func (s *Source) transform(instances []Instance, key string) []domain.CalendarEvent {
	events := make([]domain.CalendarEvent, 0, len(instances))

	for _, inst := range instances {
		start, err := s.calendar.ParseLocal(inst.Start)
		if err != nil {
			s.logger.Warn("failed to parse start", "start", inst.Start, "error", err)
			continue
		}
		if s.calendar.Key(start) != key {
			continue
		}

		frag := parseTitle(inst.Title)

		event := domain.CalendarEvent{
			Start:       start,
			ResourceID:  strings.TrimSpace(inst.ResourceID),
			Title:       frag.Title,
			MoreInfo:    text.Plain(inst.MoreInfo),
			EventType:   text.Plain(inst.EventType),
			VenueKey:    domain.VenueVIFF,
			MoreInfoURL: strings.TrimSpace(inst.MoreInfoURL),
		}
		if event.MoreInfo == "" {
			event.MoreInfo = frag.Description
		}
		if event.EventType == "" {
			event.EventType = frag.Type
		}

		if end, err := s.calendar.ParseLocal(inst.End); err == nil {
			event.End = end
		} else if frag.Duration > 0 {
			event.End = start.Add(time.Duration(frag.Duration) * time.Minute)
		}

		event.Normalize()
		events = append(events, event)
	}

	return events
}

// parseTitle extracts the pieces of the calendar card markup. Plain titles
// come back decoded with the other fields empty.
func parseTitle(raw string) titleFragment {
	if !strings.Contains(raw, "<") {
		return titleFragment{Title: text.Plain(raw)}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return titleFragment{Title: text.Plain(raw)}
	}

	frag := titleFragment{
		Title: text.SelectionText(doc.Find("h3").First()),
		Time:  text.SelectionText(doc.Find("time").First()),
	}
	if frag.Title == "" {
		frag.Title = text.SelectionText(doc.Selection)
	}

	if m := durationPattern.FindStringSubmatch(doc.Find(".c-calendar-instance__duration").First().Text()); m != nil {
		frag.Duration, _ = strconv.Atoi(m[1])
	}

	typeSel := doc.Find(".c-calendar-instance__type").First()
	frag.Type = text.SelectionText(typeSel)
	if typeSel.Length() > 0 {
		frag.Description = descriptionAfter(typeSel)
	}

	return frag
}

// descriptionAfter collects every sibling node between the type label and the
// buttons block, bare text included.
func descriptionAfter(typeSel *goquery.Selection) string {
	typeNode := typeSel.Nodes[0]

	var (
		parts   []string
		started bool
	)
	typeSel.Parent().Contents().EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !started {
			started = sel.Nodes[0] == typeNode
			return true
		}
		if sel.Is(".c-calendar-instance__buttons") {
			return false
		}
		if t := text.SelectionText(sel); t != "" {
			parts = append(parts, t)
		}
		return true
	})
	return strings.Join(parts, " ")
}
