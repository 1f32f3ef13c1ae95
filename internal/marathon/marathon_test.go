package marathon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vankino/internal/domain"
)

var base = time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)

func screening(title string, venue domain.VenueKey, room string, startMin, lengthMin int) domain.CalendarEvent {
	start := base.Add(time.Duration(startMin) * time.Minute)
	return domain.CalendarEvent{
		Title:      title,
		VenueKey:   venue,
		ResourceID: room,
		Start:      start,
		End:        start.Add(time.Duration(lengthMin) * time.Minute),
	}
}

func TestBuild_Empty(t *testing.T) {
	plan := Build(nil)

	assert.NotNil(t, plan.Schedule)
	assert.Empty(t, plan.Schedule)
	assert.Equal(t, Stats{}, plan.Stats)
	assert.Equal(t, "0m", plan.TotalTime)
}

func TestBuild_GreedyByEnd(t *testing.T) {
	events := []domain.CalendarEvent{
		screening("Long", domain.VenueRio, "rio-theatre", 0, 300),
		screening("Short A", domain.VenueRio, "rio-theatre", 10, 90),
		screening("Short B", domain.VenueRio, "rio-theatre", 100, 90),
		screening("Short C", domain.VenueRio, "rio-theatre", 190, 60),
	}

	plan := Build(events)

	require.Len(t, plan.Schedule, 3)
	assert.Equal(t, "Short A", plan.Schedule[0].Title)
	assert.Equal(t, "Short B", plan.Schedule[1].Title)
	assert.Equal(t, "Short C", plan.Schedule[2].Title)
	assert.Equal(t, Stats{FilmCount: 3, ScreenTimeMinutes: 240, TotalTimeMinutes: 240, VenueChanges: 0}, plan.Stats)
	assert.Equal(t, "4h", plan.ScreenTime)
}

func TestBuild_TravelBuffer(t *testing.T) {
	events := []domain.CalendarEvent{
		screening("First", domain.VenueRio, "rio-theatre", 0, 100),
		// 10 minutes after First, different theatre: not reachable
		screening("Too Close", domain.VenueFifthAvenue, "fifth-avenue-cinemas", 110, 60),
		// exactly 20 minutes after First
		screening("Reachable", domain.VenueVIFF, "viff-centre-vancity-theatre", 120, 60),
	}

	plan := Build(events)

	require.Len(t, plan.Schedule, 2)
	assert.Equal(t, "First", plan.Schedule[0].Title)
	assert.Equal(t, "Reachable", plan.Schedule[1].Title)
	assert.Equal(t, 1, plan.Stats.VenueChanges)
	assert.Equal(t, 160, plan.Stats.ScreenTimeMinutes)
	assert.Equal(t, 180, plan.Stats.TotalTimeMinutes)
	assert.Equal(t, "3h", plan.TotalTime)
}

func TestBuild_SameTheatreNoBuffer(t *testing.T) {
	plan := Build([]domain.CalendarEvent{
		screening("One", domain.VenueRio, "rio-theatre", 0, 90),
		screening("Two", domain.VenueRio, "rio-theatre", 90, 90),
	})

	assert.Equal(t, 2, plan.Stats.FilmCount)
	assert.Equal(t, 0, plan.Stats.VenueChanges)
}

func TestBuild_RoomsInSameVenueNoBuffer(t *testing.T) {
	plan := Build([]domain.CalendarEvent{
		screening("Vancity", domain.VenueVIFF, "viff-centre-vancity-theatre", 0, 90),
		// 10 minutes later, another room in the same building
		screening("Studio", domain.VenueVIFF, "viff-centre-studio", 100, 100),
	})

	require.Len(t, plan.Schedule, 2)
	assert.Equal(t, "Studio", plan.Schedule[1].Title)
	assert.Equal(t, 0, plan.Stats.VenueChanges)
	assert.Equal(t, 200, plan.Stats.TotalTimeMinutes)
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{
		0:   "0m",
		45:  "45m",
		60:  "1h",
		125: "2h 5m",
		600: "10h",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatDuration(in), in)
	}
}
