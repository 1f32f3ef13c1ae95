// Package ics renders day listings as iCalendar feeds.
package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	ical "github.com/arran4/golang-ical"

	"vankino/internal/domain"
)

const (
	productID = "-//vankino//listings//EN"
	uidDomain = "@vankino"
)

// UID is stable for an event across exports.
func UID(e domain.CalendarEvent) string {
	sum := sha256.Sum256([]byte(domain.EventIdentity(e)))
	return hex.EncodeToString(sum[:16]) + uidDomain
}

// Export builds a VCALENDAR with one VEVENT per listing entry.
func Export(listing *domain.DayListing, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Vancouver film listings " + listing.DateKey)

	for _, e := range listing.Events {
		ev := cal.AddEvent(UID(e))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(e.Start.UTC())
		ev.SetEndAt(e.End.UTC())
		ev.SetSummary(e.Title)
		ev.SetLocation(domain.VenueName(e.ResourceID))
		if e.MoreInfo != "" {
			ev.SetDescription(e.MoreInfo)
		}
		if e.MoreInfoURL != "" {
			ev.SetURL(e.MoreInfoURL)
		}
		if e.EventType != "" {
			ev.AddProperty(ical.ComponentPropertyCategories, e.EventType)
		}
	}

	return cal.Serialize()
}
