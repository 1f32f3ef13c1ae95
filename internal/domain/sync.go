package domain

import "time"

// VenueState tracks fetch health for one source.
type VenueState struct {
	SourceID        string     `db:"source_id" json:"sourceId"`
	LastFetchedAt   time.Time  `db:"last_fetched_at" json:"lastFetchedAt"`
	LastSucceededAt *time.Time `db:"last_succeeded_at" json:"lastSucceededAt,omitempty"`
	LastError       *string    `db:"last_error" json:"lastError,omitempty"`
	LastEventCount  int        `db:"last_event_count" json:"lastEventCount"`
	TotalFetches    int64      `db:"total_fetches" json:"totalFetches"`
	TotalFailures   int64      `db:"total_failures" json:"totalFailures"`
}

// FetchStats holds the outcome of one source call within an aggregation round.
type FetchStats struct {
	SourceID string
	Events   int
	Err      error
	Duration time.Duration
}
