package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/irfndi/oilpulse/internal/models"
	"github.com/irfndi/oilpulse/internal/utils"
)

const (
	// DefaultImpactWindowDays is the calendar-day width of each impact window.
	DefaultImpactWindowDays = 30
	// DefaultMinWindowObservations is the fewest observations a window may hold.
	DefaultMinWindowObservations = 5
)

// ImpactConfig holds evaluator settings.
type ImpactConfig struct {
	WindowDays        int
	MinObservations   int
	IncludeWindowRows bool
}

// DefaultImpactConfig returns the standard 30-day, 5-observation settings.
func DefaultImpactConfig() ImpactConfig {
	return ImpactConfig{
		WindowDays:        DefaultImpactWindowDays,
		MinObservations:   DefaultMinWindowObservations,
		IncludeWindowRows: true,
	}
}

// EventImpactEvaluator measures price and volatility around catalog events.
// It only reads the store and catalog and is safe for concurrent use.
type EventImpactEvaluator struct {
	series  *PriceSeriesStore
	catalog *EventCatalog
	config  ImpactConfig
}

// NewEventImpactEvaluator creates an evaluator. Zero config values fall back
// to the defaults.
func NewEventImpactEvaluator(series *PriceSeriesStore, catalog *EventCatalog, config ImpactConfig) *EventImpactEvaluator {
	defaults := DefaultImpactConfig()
	if config.WindowDays <= 0 {
		config.WindowDays = defaults.WindowDays
	}
	if config.MinObservations <= 0 {
		config.MinObservations = defaults.MinObservations
	}
	return &EventImpactEvaluator{
		series:  series,
		catalog: catalog,
		config:  config,
	}
}

// Config returns the effective evaluator settings.
func (e *EventImpactEvaluator) Config() ImpactConfig {
	return e.config
}

// Evaluate computes the impact of the named event. windowDays == 0 uses the
// configured default. The before window is [date-windowDays, date) and the
// after window [date, date+windowDays], both in calendar days.
func (e *EventImpactEvaluator) Evaluate(eventName string, windowDays int) (*models.ImpactResult, error) {
	if windowDays < 0 {
		return nil, utils.NewValidationErrorf("window_days must not be negative, got %d", windowDays)
	}
	if windowDays == 0 {
		windowDays = e.config.WindowDays
	}

	event, err := e.catalog.Find(eventName)
	if err != nil {
		return nil, err
	}
	return e.evaluateEvent(event, windowDays)
}

func (e *EventImpactEvaluator) evaluateEvent(event models.Event, windowDays int) (*models.ImpactResult, error) {
	obs := e.series.observations
	windowStart := event.Date.AddDate(0, 0, -windowDays)
	windowEnd := event.Date.AddDate(0, 0, windowDays)

	beforeLo, beforeHi := dateBounds(obs, windowStart, event.Date, false)
	afterLo, afterHi := dateBounds(obs, event.Date, windowEnd, true)
	before := obs[beforeLo:beforeHi]
	after := obs[afterLo:afterHi]

	if len(before) < e.config.MinObservations {
		return nil, utils.NewInsufficientDataError(
			fmt.Sprintf("event %q: observations before %s", event.Name, event.Date.Format(models.DateLayout)),
			e.config.MinObservations, len(before))
	}
	if len(after) < e.config.MinObservations {
		return nil, utils.NewInsufficientDataError(
			fmt.Sprintf("event %q: observations after %s", event.Name, event.Date.Format(models.DateLayout)),
			e.config.MinObservations, len(after))
	}

	volBefore, err := SampleStd(logReturns(before))
	if err != nil {
		return nil, fmt.Errorf("event %q: volatility before: %w", event.Name, err)
	}
	volAfter, err := SampleStd(logReturns(after))
	if err != nil {
		return nil, fmt.Errorf("event %q: volatility after: %w", event.Name, err)
	}

	result := &models.ImpactResult{
		Event:              event,
		WindowDays:         windowDays,
		PriceBefore:        Mean(prices(before)),
		PriceAfter:         Mean(prices(after)),
		VolatilityBefore:   volBefore,
		VolatilityAfter:    volAfter,
		ObservationsBefore: len(before),
		ObservationsAfter:  len(after),
	}

	if e.config.IncludeWindowRows {
		rows := obs[beforeLo:afterHi]
		result.PriceData = make([]models.ImpactPoint, len(rows))
		for i, o := range rows {
			result.PriceData[i] = models.ImpactPoint{Date: o.Date, Price: o.Price, Returns: o.LogReturn}
		}
	}
	return result, nil
}

// EvaluateAll evaluates every catalog event and ranks the results by
// absolute percent change, largest first. Events that cannot be evaluated
// are listed in Skipped with the reason.
func (e *EventImpactEvaluator) EvaluateAll(windowDays int) (*models.ImpactRanking, error) {
	if windowDays < 0 {
		return nil, utils.NewValidationErrorf("window_days must not be negative, got %d", windowDays)
	}
	if windowDays == 0 {
		windowDays = e.config.WindowDays
	}

	ranking := &models.ImpactRanking{
		WindowDays: windowDays,
		Impacts:    make([]models.ImpactResult, 0, e.catalog.Len()),
		Skipped:    make([]models.SkippedEvent, 0),
	}
	for _, event := range e.catalog.events {
		result, err := e.evaluateEvent(event, windowDays)
		if err != nil {
			ranking.Skipped = append(ranking.Skipped, models.SkippedEvent{
				Event:  event.Name,
				Reason: err.Error(),
				Kind:   utils.ErrorKind(err),
			})
			continue
		}
		result.PriceData = nil
		ranking.Impacts = append(ranking.Impacts, *result)
	}

	sort.SliceStable(ranking.Impacts, func(i, j int) bool {
		return math.Abs(ranking.Impacts[i].PercentChange()) > math.Abs(ranking.Impacts[j].PercentChange())
	})
	return ranking, nil
}

func prices(observations []models.PriceObservation) []float64 {
	out := make([]float64, len(observations))
	for i, o := range observations {
		out[i] = o.Price
	}
	return out
}
