package domain

import (
	"regexp"
	"strings"
)

const identitySeparator = "|"

// IdentityTimeLayout renders start instants in millisecond ISO form, UTC.
const IdentityTimeLayout = "2006-01-02T15:04:05.000Z"

var whitespaceRun = regexp.MustCompile(`\s+`)

// EventIdentity derives the stable key used by the hype counter.
func EventIdentity(e CalendarEvent) string {
	parts := []string{
		sanitizeIdentityPart(string(e.VenueKey)),
		sanitizeIdentityPart(firstNonEmpty(e.ResourceID, e.MoreInfoURL, e.Title)),
		sanitizeIdentityPart(firstNonEmpty(e.MoreInfoURL, e.Title)),
		sanitizeIdentityPart(e.Title),
		sanitizeIdentityPart(e.Start.UTC().Format(IdentityTimeLayout)),
	}
	return strings.Join(parts, identitySeparator)
}

func sanitizeIdentityPart(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, identitySeparator, "")
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
