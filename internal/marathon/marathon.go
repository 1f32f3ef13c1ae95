// Package marathon picks the largest set of non-overlapping screenings a
// single viewer can attend in one day.
package marathon

import (
	"fmt"
	"sort"
	"time"

	"vankino/internal/domain"
)

// TravelBuffer is the gap required between screenings at different venues.
const TravelBuffer = 20 * time.Minute

type Stats struct {
	FilmCount         int `json:"filmCount"`
	ScreenTimeMinutes int `json:"screenTimeMinutes"`
	TotalTimeMinutes  int `json:"totalTimeMinutes"`
	VenueChanges      int `json:"venueChanges"`
}

type Plan struct {
	Schedule []domain.CalendarEvent `json:"schedule"`
	Stats    Stats                  `json:"stats"`
	// Display forms of the durations, e.g. "5h 40m".
	ScreenTime string `json:"screenTime"`
	TotalTime  string `json:"totalTime"`
}

// Build schedules greedily by end time. Switching venues requires
// TravelBuffer between the previous end and the next start; rooms inside
// one venue count as the same place.
func Build(events []domain.CalendarEvent) Plan {
	sorted := make([]domain.CalendarEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].End.Before(sorted[j].End)
	})

	schedule := make([]domain.CalendarEvent, 0)
	var (
		lastEnd      time.Time
		lastVenue    domain.VenueKey
		venueChanges int
	)

	for _, e := range sorted {
		if len(schedule) > 0 {
			earliest := lastEnd
			changing := e.VenueKey != lastVenue
			if changing {
				earliest = earliest.Add(TravelBuffer)
			}
			if e.Start.Before(earliest) {
				continue
			}
			if changing {
				venueChanges++
			}
		}

		schedule = append(schedule, e)
		lastEnd = e.End
		lastVenue = e.VenueKey
	}

	var screen time.Duration
	for _, e := range schedule {
		screen += e.End.Sub(e.Start)
	}

	var total time.Duration
	if len(schedule) > 0 {
		total = schedule[len(schedule)-1].End.Sub(schedule[0].Start)
	}

	stats := Stats{
		FilmCount:         len(schedule),
		ScreenTimeMinutes: roundMinutes(screen),
		TotalTimeMinutes:  roundMinutes(total),
		VenueChanges:      venueChanges,
	}

	return Plan{
		Schedule:   schedule,
		Stats:      stats,
		ScreenTime: FormatDuration(stats.ScreenTimeMinutes),
		TotalTime:  FormatDuration(stats.TotalTimeMinutes),
	}
}

// FormatDuration renders minutes as "2h 5m", "2h" or "45m".
func FormatDuration(minutes int) string {
	hours := minutes / 60
	mins := minutes % 60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", mins)
	case mins == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
}

func roundMinutes(d time.Duration) int {
	return int(d.Round(time.Minute) / time.Minute)
}
