package cinematheque

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"vankino/internal/civildate"
	"vankino/internal/domain"
	"vankino/internal/source/fetch"
	"vankino/internal/source/text"
)

const (
	SourceID   = "cinematheque"
	SourceName = "The Cinematheque"

	DefaultBaseURL = "https://thecinematheque.ca"
	calendarPath   = "/films/calendar"
	resourceID     = "cinematheque"
)

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

// FetchEvents scrapes the month calendar page for the target day.
func (s *Source) FetchEvents(ctx context.Context, target time.Time, key string) ([]domain.CalendarEvent, error) {
	pageURL := s.baseURL + calendarPath

	resp, err := s.client.Get(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	return s.extract(doc, base, target, key), nil
}

func (s *Source) extract(doc *goquery.Document, base *url.URL, target time.Time, key string) []domain.CalendarEvent {
	local := target.In(s.calendar.Location())

	selector := fmt.Sprintf(`#eventCalendar > li[data-dom="%d"][data-dow="%s"]`,
		local.Day(), strings.ToLower(local.Weekday().String()))
	day := doc.Find(selector).First()
	if day.Length() == 0 {
		s.logger.Debug("no calendar entry for day", "date", key)
		return nil
	}

	month := text.SelectionText(day.Find(".day .mon").First())
	year := text.SelectionText(day.Find(".day .year").First())
	if month != local.Month().String() || year != strconv.Itoa(local.Year()) {
		s.logger.Warn("calendar day failed sanity check",
			"date", key,
			"month", month,
			"year", year,
		)
		return nil
	}

	var events []domain.CalendarEvent
	day.Find("ol.programs > li.programScreening").Each(func(_ int, screening *goquery.Selection) {
		event, ok := s.screening(screening, base, key)
		if ok {
			events = append(events, event)
		}
	})
	return events
}

func (s *Source) screening(sel *goquery.Selection, base *url.URL, key string) (domain.CalendarEvent, bool) {
	timeSpan := sel.Find("span.time").First()
	hour, minute, ok := parseClock(text.SelectionText(timeSpan), timeSpan.HasClass("am"), timeSpan.HasClass("pm"))
	if !ok {
		return domain.CalendarEvent{}, false
	}

	link := sel.Find("a.programTitle").First()
	title := text.SelectionText(link)
	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if title == "" || href == "" {
		return domain.CalendarEvent{}, false
	}

	start, err := s.calendar.At(key, hour, minute)
	if err != nil {
		s.logger.Warn("failed to build start", "date", key, "error", err)
		return domain.CalendarEvent{}, false
	}

	event := domain.CalendarEvent{
		Start:       start,
		End:         start.Add(domain.DefaultDuration),
		ResourceID:  resourceID,
		Title:       title,
		EventType:   domain.DefaultEventType,
		VenueKey:    domain.VenueCinematheque,
		MoreInfoURL: resolve(base, href),
	}
	event.Normalize()
	return event, true
}

// parseClock converts "6:30" plus an am/pm marker into 24-hour time. A
// marker glued to the label ("6:30pm") is used when the flags are unset.
func parseClock(label string, am, pm bool) (int, int, bool) {
	hourStr, minuteStr, found := strings.Cut(label, ":")
	if !found {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hourStr))
	if err != nil {
		return 0, 0, false
	}
	minuteStr = strings.TrimSpace(minuteStr)
	digits := strings.TrimRightFunc(minuteStr, func(r rune) bool { return !unicode.IsDigit(r) })
	minute, err := strconv.Atoi(digits)
	if err != nil {
		return 0, 0, false
	}
	if !am && !pm {
		suffix := strings.ToLower(strings.Trim(minuteStr[len(digits):], " ."))
		am = strings.HasPrefix(suffix, "a")
		pm = strings.HasPrefix(suffix, "p")
	}

	switch {
	case pm && hour != 12:
		hour += 12
	case am && hour == 12:
		hour = 0
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
