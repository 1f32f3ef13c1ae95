package cineplex

// TheatreShowtimes is one element of the showtimes response.
type TheatreShowtimes struct {
	Theatre   string     `json:"theatre"`
	TheatreID int        `json:"theatreId"`
	Dates     []ShowDate `json:"dates"`
}

type ShowDate struct {
	StartDate string  `json:"startDate"`
	Movies    []Movie `json:"movies"`
}

type Movie struct {
	ID               int          `json:"id"`
	Name             string       `json:"name"`
	FilmURL          string       `json:"filmUrl"`
	RuntimeInMinutes int          `json:"runtimeInMinutes"`
	Genres           []string     `json:"genres"`
	LocalRating      string       `json:"localRating"`
	Experiences      []Experience `json:"experiences"`
}

type Experience struct {
	ExperienceTypes []string  `json:"experienceTypes"`
	Sessions        []Session `json:"sessions"`
}

type Session struct {
	ShowStartDateTime    string `json:"showStartDateTime"`
	ShowStartDateTimeUtc string `json:"showStartDateTimeUtc"`
	SeatsRemaining       int    `json:"seatsRemaining"`
	IsSoldOut            bool   `json:"isSoldOut"`
	Auditorium           string `json:"auditorium"`
	TicketingURL         string `json:"ticketingUrl"`
}
