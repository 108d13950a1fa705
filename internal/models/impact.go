package models

import (
	"encoding/json"
	"time"

	"github.com/guregu/null/v6"
)

// ImpactPoint is one row of an impact window.
type ImpactPoint struct {
	Date    time.Time
	Price   float64
	Returns null.Float
}

// MarshalJSON renders Date as YYYY-MM-DD.
func (p ImpactPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date    string     `json:"date"`
		Price   float64    `json:"price"`
		Returns null.Float `json:"returns"`
	}{p.Date.Format(DateLayout), p.Price, p.Returns})
}

// ImpactResult describes price and volatility around one event.
// PriceBefore/PriceAfter are window means; volatilities are sample standard
// deviations of the log returns inside each window.
type ImpactResult struct {
	Event              Event
	WindowDays         int
	PriceBefore        float64
	PriceAfter         float64
	VolatilityBefore   float64
	VolatilityAfter    float64
	ObservationsBefore int
	ObservationsAfter  int
	PriceData          []ImpactPoint
}

// PriceChange is PriceAfter minus PriceBefore.
func (r ImpactResult) PriceChange() float64 {
	return r.PriceAfter - r.PriceBefore
}

// PercentChange is PriceChange relative to PriceBefore, in percent.
// Positive means the price rose after the event.
func (r ImpactResult) PercentChange() float64 {
	return r.PriceChange() / r.PriceBefore * 100
}

// VolatilityChange is VolatilityAfter minus VolatilityBefore.
// Positive means uncertainty increased.
func (r ImpactResult) VolatilityChange() float64 {
	return r.VolatilityAfter - r.VolatilityBefore
}

type impactJSON struct {
	EventInfo          Event         `json:"event_info"`
	WindowDays         int           `json:"window_days"`
	PriceBefore        float64       `json:"price_before"`
	PriceAfter         float64       `json:"price_after"`
	VolatilityBefore   float64       `json:"volatility_before"`
	VolatilityAfter    float64       `json:"volatility_after"`
	PriceChange        float64       `json:"price_change"`
	PercentChange      float64       `json:"percent_change"`
	VolatilityChange   float64       `json:"volatility_change"`
	ObservationsBefore int           `json:"observations_before"`
	ObservationsAfter  int           `json:"observations_after"`
	PriceData          []ImpactPoint `json:"price_data,omitempty"`
}

// MarshalJSON renders the impact contract including the derived metrics.
func (r ImpactResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(impactJSON{
		EventInfo:          r.Event,
		WindowDays:         r.WindowDays,
		PriceBefore:        r.PriceBefore,
		PriceAfter:         r.PriceAfter,
		VolatilityBefore:   r.VolatilityBefore,
		VolatilityAfter:    r.VolatilityAfter,
		PriceChange:        r.PriceChange(),
		PercentChange:      r.PercentChange(),
		VolatilityChange:   r.VolatilityChange(),
		ObservationsBefore: r.ObservationsBefore,
		ObservationsAfter:  r.ObservationsAfter,
		PriceData:          r.PriceData,
	})
}

// SkippedEvent names an event that could not be evaluated and why.
type SkippedEvent struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
	Kind   string `json:"kind"`
}

// ImpactRanking lists evaluated events ordered by absolute percent change.
type ImpactRanking struct {
	WindowDays int            `json:"window_days"`
	Impacts    []ImpactResult `json:"impacts"`
	Skipped    []SkippedEvent `json:"skipped"`
}
