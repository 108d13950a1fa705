package services

import (
	"errors"

	"github.com/irfndi/oilpulse/internal/models"
	"github.com/irfndi/oilpulse/internal/utils"
)

// Aggregate reduces the whole series and catalog to descriptive statistics.
// It has no side effects; a column with fewer than two values yields a nil
// block rather than failing the aggregate.
func Aggregate(series *PriceSeriesStore, catalog *EventCatalog) (*models.CorpusStatistics, error) {
	if series == nil || series.Len() == 0 {
		return nil, utils.NewValidationError("statistics require a loaded price series")
	}
	obs := series.observations

	priceValues := prices(obs)
	returnValues := logReturns(obs)
	volatilityValues := make([]float64, 0, len(obs))
	for _, o := range obs {
		if o.RollingVolatility30.Valid {
			volatilityValues = append(volatilityValues, o.RollingVolatility30.ValueOrZero())
		}
	}

	stats := &models.CorpusStatistics{
		DataPeriod: models.DataPeriod{
			Start:     series.Start(),
			End:       series.End(),
			TotalDays: series.Len(),
		},
		EventStatistics: eventStatistics(catalog),
	}

	var err error
	if stats.PriceStatistics, err = describeOrNil(priceValues); err != nil {
		return nil, err
	}
	if stats.ReturnsStatistics, err = describeOrNil(returnValues); err != nil {
		return nil, err
	}
	if stats.VolatilityStatistics, err = describeOrNil(volatilityValues); err != nil {
		return nil, err
	}
	return stats, nil
}

func describeOrNil(values []float64) (*models.DescriptiveStats, error) {
	stats, err := Describe(values)
	if errors.Is(err, utils.ErrInsufficientData) {
		return nil, nil
	}
	return stats, err
}

func eventStatistics(catalog *EventCatalog) models.EventStatistics {
	if catalog == nil || catalog.Len() == 0 {
		return models.EventStatistics{Categories: map[string]int{}}
	}

	span := &models.DateRange{Start: catalog.events[0].Date, End: catalog.events[0].Date}
	for _, e := range catalog.events[1:] {
		if e.Date.Before(span.Start) {
			span.Start = e.Date
		}
		if e.Date.After(span.End) {
			span.End = e.Date
		}
	}

	return models.EventStatistics{
		TotalEvents: catalog.Len(),
		Categories:  catalog.CategoryCounts(),
		DateRange:   span,
	}
}
