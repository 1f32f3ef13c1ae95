package viff

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Instance is one entry of the attendable calendar endpoint.
type Instance struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	ResourceID  string `json:"resourceId"`
	Title       string `json:"title"`
	MoreInfo    string `json:"moreInfo"`
	EventType   string `json:"eventType"`
	MoreInfoURL string `json:"moreInfoUrl"`
}

// InstanceList accepts either a JSON array or a single object.
type InstanceList []Instance

func (l *InstanceList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var items []Instance
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = items
	case '{':
		var item Instance
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return err
		}
		*l = InstanceList{item}
	default:
		return fmt.Errorf("unexpected payload starting with %q", trimmed[0])
	}
	return nil
}

// titleFragment is what the calendar embeds in the title field.
type titleFragment struct {
	Title       string
	Time        string
	Duration    int
	Type        string
	Description string
}
