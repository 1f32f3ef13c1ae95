package rio

import (
	"bytes"
	"encoding/json"
)

// Listing is one showtime from the barker listings endpoint.
type Listing struct {
	ID          int64         `json:"id"`
	StartTime   string        `json:"start_time"`
	EndTime     string        `json:"end_time"`
	TicketsLink string        `json:"tickets_link"`
	Extra       string        `json:"extra"`
	Event       *ListingEvent `json:"event"`
}

type ListingEvent struct {
	Title Rendered `json:"title"`
	Link  string   `json:"link"`
}

// Rendered accepts a plain string or a WordPress {"rendered": "..."} object.
type Rendered string

func (r *Rendered) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = ""
		return nil
	}
	if trimmed[0] == '{' {
		var obj struct {
			Rendered string `json:"rendered"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		*r = Rendered(obj.Rendered)
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	*r = Rendered(s)
	return nil
}
