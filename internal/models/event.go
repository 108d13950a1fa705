package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is a dated external event that may have moved the market.
// Category is kept verbatim; it is an open set (Geopolitical, Economic,
// OPEC Policy, Economic Sanctions, Policy, ...).
type Event struct {
	Name        string    `json:"Event" db:"name"`
	Date        time.Time `json:"Date" db:"date"`
	Category    string    `json:"Category" db:"category"`
	Description string    `json:"Description" db:"description"`
}

type eventJSON struct {
	Name        string `json:"Event"`
	Date        string `json:"Date"`
	Category    string `json:"Category"`
	Description string `json:"Description"`
}

// MarshalJSON renders Date as YYYY-MM-DD.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		Name:        e.Name,
		Date:        e.Date.Format(DateLayout),
		Category:    e.Category,
		Description: e.Description,
	})
}

// UnmarshalJSON accepts Date as YYYY-MM-DD or RFC 3339.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := ParseDate(raw.Date)
	if err != nil {
		return fmt.Errorf("event %q: %w", raw.Name, err)
	}
	*e = Event{
		Name:        raw.Name,
		Date:        date,
		Category:    raw.Category,
		Description: raw.Description,
	}
	return nil
}

// EventsResponse is the payload for the events view.
type EventsResponse struct {
	Events      []Event  `json:"events"`
	Categories  []string `json:"categories"`
	TotalEvents int      `json:"total_events"`
}

var dateLayouts = []string{
	DateLayout,
	"2-Jan-06",
	"Jan 2, 2006",
	time.RFC3339,
}

// ParseDate parses a calendar date in any of the layouts seen in upstream
// files and normalizes it to midnight UTC.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
