package services

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/irfndi/oilpulse/internal/models"
	"github.com/irfndi/oilpulse/internal/utils"
)

// EventCatalog owns the set of dated external events. Events keep their
// load order; names are unique. It is read-only after Load.
type EventCatalog struct {
	events []models.Event
	byName map[string]int
}

// NewEventCatalog creates a catalog from events, validating them.
func NewEventCatalog(events []models.Event) (*EventCatalog, error) {
	c := &EventCatalog{}
	if err := c.Load(events); err != nil {
		return nil, err
	}
	return c, nil
}

// Load validates events and replaces the catalog contents. Names must be
// non-empty and unique, dates and categories set. On error the previous
// contents are kept.
func (c *EventCatalog) Load(events []models.Event) error {
	loaded := make([]models.Event, len(events))
	byName := make(map[string]int, len(events))

	for i, e := range events {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return utils.NewValidationErrorf("event %d has an empty name", i)
		}
		if e.Date.IsZero() {
			return utils.NewValidationErrorf("event %q has no date", name)
		}
		if strings.TrimSpace(e.Category) == "" {
			return utils.NewValidationErrorf("event %q has no category", name)
		}
		if _, dup := byName[name]; dup {
			return utils.NewValidationErrorf("duplicate event name %q", name)
		}
		e.Name = name
		loaded[i] = e
		byName[name] = i
	}

	c.events = loaded
	c.byName = byName
	return nil
}

// Len returns the number of events.
func (c *EventCatalog) Len() int {
	return len(c.events)
}

// Events returns a copy of all events in load order.
func (c *EventCatalog) Events() []models.Event {
	out := make([]models.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Get returns the event with exactly this name.
func (c *EventCatalog) Get(name string) (models.Event, error) {
	if i, ok := c.byName[strings.TrimSpace(name)]; ok {
		return c.events[i], nil
	}
	return models.Event{}, utils.NewNotFoundError("event", name)
}

// Find resolves a user-supplied event name: exact match first, then a
// case-insensitive match, then the first event whose name contains the
// query case-insensitively.
func (c *EventCatalog) Find(query string) (models.Event, error) {
	if e, err := c.Get(query); err == nil {
		return e, nil
	}

	q := strings.TrimSpace(query)
	if q == "" {
		return models.Event{}, utils.NewNotFoundError("event", query)
	}

	fold := cases.Fold()
	folded := fold.String(q)
	for _, e := range c.events {
		if fold.String(e.Name) == folded {
			return e, nil
		}
	}
	for _, e := range c.events {
		if strings.Contains(fold.String(e.Name), folded) {
			return e, nil
		}
	}
	return models.Event{}, utils.NewNotFoundError("event", query)
}

// FilterByCategory returns the events whose category equals category.
// An empty category returns every event.
func (c *EventCatalog) FilterByCategory(category string) []models.Event {
	if category == "" {
		return c.Events()
	}
	out := make([]models.Event, 0)
	for _, e := range c.events {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (c *EventCatalog) Categories() []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, e := range c.events {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}

// CategoryCounts returns the number of events per observed category.
func (c *EventCatalog) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range c.events {
		counts[e.Category]++
	}
	return counts
}
