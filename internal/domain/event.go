package domain

import (
	"strings"
	"time"
)

// VenueKey identifies the source a screening was collected from.
type VenueKey string

const (
	VenueVIFF                 VenueKey = "viff"
	VenueRio                  VenueKey = "rio"
	VenueCinematheque         VenueKey = "cinematheque"
	VenueFifthAvenue          VenueKey = "fifth-avenue"
	VenueInternationalVillage VenueKey = "international-village"
)

var knownVenues = map[VenueKey]struct{}{
	VenueVIFF:                 {},
	VenueRio:                  {},
	VenueCinematheque:         {},
	VenueFifthAvenue:          {},
	VenueInternationalVillage: {},
}

// Valid reports whether k is one of the integrated venues.
func (k VenueKey) Valid() bool {
	_, ok := knownVenues[k]
	return ok
}

const (
	DefaultEventType = "Film"
	DefaultTitle     = "Untitled"
	DefaultDuration  = 120 * time.Minute
)

// CalendarEvent is a single normalized screening.
type CalendarEvent struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	ResourceID  string    `json:"resourceId"`
	Title       string    `json:"title"`
	MoreInfo    string    `json:"moreInfo"`
	EventType   string    `json:"eventType"`
	VenueKey    VenueKey  `json:"venueKey"`
	MoreInfoURL string    `json:"moreInfoUrl,omitempty"`
}

// Normalize fills defaults and repairs an end that precedes start.
func (e *CalendarEvent) Normalize() {
	e.Start = e.Start.UTC()
	e.End = e.End.UTC()
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		e.Title = DefaultTitle
	}
	if strings.TrimSpace(e.EventType) == "" {
		e.EventType = DefaultEventType
	}
	if e.End.IsZero() || e.End.Before(e.Start) {
		e.End = e.Start.Add(DefaultDuration)
	}
}

// DayNav carries display labels and neighbouring keys for a listing day.
type DayNav struct {
	Display string `json:"display"`
	Weekday string `json:"weekday"`
	Prev    string `json:"prev"`
	Next    string `json:"next"`
}

// DayListing is the aggregated, sorted result for one civil date.
type DayListing struct {
	Events  []CalendarEvent `json:"events"`
	DateISO string          `json:"dateIso"`
	DateKey string          `json:"dateKey"`
	Day     DayNav          `json:"day"`
}

// VenueName turns a resource slug into a display label,
// e.g. "viff-centre-vancity-theatre" becomes "Vancity Theatre".
func VenueName(resourceID string) string {
	slug := strings.Replace(resourceID, "viff-centre-", "", 1)
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
