package models

import (
	"encoding/json"
	"time"

	"github.com/guregu/null/v6"
)

// DateLayout is the calendar-date format used on every JSON boundary.
const DateLayout = "2006-01-02"

// CalendarDay drops the clock part of t, keeping its year, month and day in
// t's own location, and returns midnight UTC of that day.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RawObservation is a single upstream price row before derivation.
type RawObservation struct {
	Date  time.Time `json:"date" db:"date"`
	Price float64   `json:"price" db:"price"`
}

// PriceObservation is a daily price with its derived fields.
// Derived fields are null until enough history exists to compute them.
type PriceObservation struct {
	Date                time.Time  `json:"date" db:"date"`
	Price               float64    `json:"price" db:"price"`
	LogPrice            float64    `json:"log_price"`
	LogReturn           null.Float `json:"log_returns"`
	MovingAverage30     null.Float `json:"ma_30"`
	MovingAverage90     null.Float `json:"ma_90"`
	RollingVolatility30 null.Float `json:"volatility_30"`
}

// MarshalJSON renders Date as YYYY-MM-DD.
func (p PriceObservation) MarshalJSON() ([]byte, error) {
	type alias PriceObservation
	return json.Marshal(struct {
		Date string `json:"date"`
		alias
	}{
		Date:  p.Date.Format(DateLayout),
		alias: alias(p),
	})
}

// OilDataResponse is the payload for the raw series view.
type OilDataResponse struct {
	Data         []PriceObservation `json:"data"`
	TotalRecords int                `json:"total_records"`
}

// PriceDataResponse is the payload for the chart view.
type PriceDataResponse struct {
	PriceData       []PriceObservation `json:"price_data"`
	ChangePointDate string             `json:"change_point_date"`
}
