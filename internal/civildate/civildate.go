// Package civildate maps instants to civil dates in a fixed IANA timezone.
//
// Every conversion goes through an explicit *time.Location, so the host's
// local zone never affects which day an event belongs to.
package civildate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DefaultTimezone = "America/Vancouver"

	KeyLayout     = "2006-01-02"
	displayLayout = "January 2, 2006"
)

var keyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// naive timestamp layouts seen in upstream payloads without an offset.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

type Calendar struct {
	loc *time.Location
}

func New(timezone string) (*Calendar, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Calendar{loc: loc}, nil
}

func MustNew(timezone string) *Calendar {
	c, err := New(timezone)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// IsValidKey reports whether key is a well-formed, existing civil date.
func IsValidKey(key string) bool {
	if !keyPattern.MatchString(key) {
		return false
	}
	_, err := time.Parse(KeyLayout, key)
	return err == nil
}

// Key projects t into the calendar timezone and renders YYYY-MM-DD.
func (c *Calendar) Key(t time.Time) string {
	return t.In(c.loc).Format(KeyLayout)
}

// Parse returns local noon of the civil date named by key.
// Noon is never skipped or repeated by a DST transition.
func (c *Calendar) Parse(key string) (time.Time, bool) {
	if !keyPattern.MatchString(key) {
		return time.Time{}, false
	}
	d, err := time.Parse(KeyLayout, key)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, c.loc), true
}

// AddDays shifts t by n civil days and returns local noon of that day.
func (c *Calendar) AddDays(t time.Time, n int) time.Time {
	l := t.In(c.loc)
	return time.Date(l.Year(), l.Month(), l.Day()+n, 12, 0, 0, 0, c.loc)
}

// Weekday returns SUN..SAT.
func (c *Calendar) Weekday(t time.Time) string {
	return strings.ToUpper(t.In(c.loc).Format("Mon"))
}

// Display returns e.g. "March 10, 2024".
func (c *Calendar) Display(t time.Time) string {
	return t.In(c.loc).Format(displayLayout)
}

func (c *Calendar) Today(now time.Time) string {
	return c.Key(now)
}

// Resolve validates raw and substitutes today when it is missing or malformed.
func (c *Calendar) Resolve(raw string, now time.Time) (string, time.Time) {
	key := strings.TrimSpace(raw)
	if instant, ok := c.Parse(key); ok {
		return key, instant
	}
	key = c.Today(now)
	instant, _ := c.Parse(key)
	return key, instant
}

// At builds the instant for a wall-clock time on the civil date key.
func (c *Calendar) At(key string, hour, minute int) (time.Time, error) {
	noon, ok := c.Parse(key)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date key %q", key)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid wall clock %02d:%02d", hour, minute)
	}
	return time.Date(noon.Year(), noon.Month(), noon.Day(), hour, minute, 0, 0, c.loc), nil
}

// DayBounds returns local midnight and the last millisecond of the civil date.
func (c *Calendar) DayBounds(key string) (time.Time, time.Time, error) {
	noon, ok := c.Parse(key)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date key %q", key)
	}
	start := time.Date(noon.Year(), noon.Month(), noon.Day(), 0, 0, 0, 0, c.loc)
	end := time.Date(noon.Year(), noon.Month(), noon.Day(), 23, 59, 59, int(999*time.Millisecond), c.loc)
	return start, end, nil
}

// ParseLocal parses an upstream timestamp. Values with an explicit offset
// are taken as-is; offset-less values are wall-clock time in the calendar zone.
func (c *Calendar) ParseLocal(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, c.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
