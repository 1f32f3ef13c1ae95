package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Defaults(t *testing.T) {
	start := time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC)
	e := CalendarEvent{Start: start, Title: "   ", EventType: " "}

	e.Normalize()

	assert.Equal(t, DefaultTitle, e.Title)
	assert.Equal(t, DefaultEventType, e.EventType)
	assert.Equal(t, start.Add(DefaultDuration), e.End)
}

func TestNormalize_EndBeforeStart(t *testing.T) {
	start := time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC)
	e := CalendarEvent{Start: start, End: start.Add(-time.Hour), Title: " Jaws ", EventType: "Documentary"}

	e.Normalize()

	assert.Equal(t, "Jaws", e.Title)
	assert.Equal(t, "Documentary", e.EventType)
	assert.Equal(t, start.Add(DefaultDuration), e.End)
}

func TestVenueKey_Valid(t *testing.T) {
	assert.True(t, VenueRio.Valid())
	assert.True(t, VenueInternationalVillage.Valid())
	assert.False(t, VenueKey("").Valid())
	assert.False(t, VenueKey("scotiabank").Valid())
}

func TestEventIdentity(t *testing.T) {
	start := time.Date(2024, 3, 11, 3, 0, 0, 0, time.UTC)

	e := CalendarEvent{
		Start:       start,
		Title:       "Jaws\t\n Restored|",
		ResourceID:  "rio-theatre",
		VenueKey:    VenueRio,
		MoreInfoURL: "https://riotheatre.ca/event/jaws/",
	}
	assert.Equal(t,
		"rio|rio-theatre|https://riotheatre.ca/event/jaws/|Jaws Restored|2024-03-11T03:00:00.000Z",
		EventIdentity(e),
	)

	bare := CalendarEvent{Start: start, Title: "Alien", VenueKey: VenueCinematheque}
	assert.Equal(t, "cinematheque|Alien|Alien|Alien|2024-03-11T03:00:00.000Z", EventIdentity(bare))

	local := bare
	local.Start = start.In(time.FixedZone("PDT", -7*3600))
	assert.Equal(t, EventIdentity(bare), EventIdentity(local))
}

func TestVenueName(t *testing.T) {
	assert.Equal(t, "Vancity Theatre", VenueName("viff-centre-vancity-theatre"))
	assert.Equal(t, "Rio Theatre", VenueName("rio-theatre"))
	assert.Equal(t, "Fifth Avenue", VenueName("fifth-avenue"))
	assert.Equal(t, "", VenueName(""))
}

func TestAppError(t *testing.T) {
	var appErr *AppError
	require.True(t, errors.As(ErrMissingEventID, &appErr))
	assert.Equal(t, CodeValidation, appErr.Code)
	assert.Equal(t, "validation_error: Missing eventId", ErrMissingEventID.Error())

	require.True(t, errors.As(ErrNotFound("gone"), &appErr))
	assert.Equal(t, CodeNotFound, appErr.Code)
}
