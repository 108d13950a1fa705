package models

import (
	"encoding/json"
	"time"
)

// DescriptiveStats summarizes a numeric column. Std is the sample standard
// deviation; percentiles interpolate linearly between order statistics.
type DescriptiveStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	P25   float64 `json:"25%"`
	P50   float64 `json:"50%"`
	P75   float64 `json:"75%"`
	Max   float64 `json:"max"`
}

// DateRange is an inclusive span of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// MarshalJSON renders both bounds as YYYY-MM-DD.
func (d DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"start": d.Start.Format(DateLayout),
		"end":   d.End.Format(DateLayout),
	})
}

// EventStatistics counts catalog events by category. Only observed
// categories appear in Categories.
type EventStatistics struct {
	TotalEvents int            `json:"total_events"`
	Categories  map[string]int `json:"categories"`
	DateRange   *DateRange     `json:"date_range,omitempty"`
}

// DataPeriod is the span of the loaded series. TotalDays counts
// observations, not calendar days.
type DataPeriod struct {
	Start     time.Time
	End       time.Time
	TotalDays int
}

// MarshalJSON renders the period with YYYY-MM-DD bounds.
func (d DataPeriod) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start     string `json:"start"`
		End       string `json:"end"`
		TotalDays int    `json:"total_days"`
	}{d.Start.Format(DateLayout), d.End.Format(DateLayout), d.TotalDays})
}

// CorpusStatistics aggregates the whole dataset. A nil block means the
// column had fewer than two values.
type CorpusStatistics struct {
	PriceStatistics      *DescriptiveStats `json:"price_statistics"`
	ReturnsStatistics    *DescriptiveStats `json:"returns_statistics"`
	VolatilityStatistics *DescriptiveStats `json:"volatility_statistics"`
	EventStatistics      EventStatistics   `json:"event_statistics"`
	DataPeriod           DataPeriod        `json:"data_period"`
}
