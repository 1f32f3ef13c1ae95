package domain

import "time"

// HypeRequest is the payload of an increment or decrement call.
type HypeRequest struct {
	EventID string `json:"eventId"`
	Title   string `json:"title,omitempty"`
	Theatre string `json:"theatre,omitempty"`
}

// HypeResult is the count after a mutation.
type HypeResult struct {
	EventID   string `json:"eventId"`
	HypeCount int    `json:"hypeCount"`
}

// HypeRecord mirrors a row of the event_hype table.
type HypeRecord struct {
	EventID     string    `db:"event_id"`
	HypeCount   int       `db:"hype_count"`
	LastTitle   *string   `db:"last_title"`
	LastTheatre *string   `db:"last_theatre"`
	UpdatedAt   time.Time `db:"updated_at"`
}
