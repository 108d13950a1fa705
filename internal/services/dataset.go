package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/oilpulse/internal/models"
)

// PriceProvider supplies raw price observations in date order.
type PriceProvider interface {
	Prices(ctx context.Context) ([]models.RawObservation, error)
}

// EventProvider supplies the event catalog entries.
type EventProvider interface {
	Events(ctx context.Context) ([]models.Event, error)
}

// DataSource is the upstream fetch collaborator.
type DataSource interface {
	PriceProvider
	EventProvider
	ChangePointProvider
	Name() string
}

// Dataset is an immutable bundle of everything the analysis layer reads.
type Dataset struct {
	Version     string
	LoadedAt    time.Time
	Source      string
	Series      *PriceSeriesStore
	Catalog     *EventCatalog
	ChangePoint models.ChangePointResult
	Impact      *EventImpactEvaluator
}

// LoadDataset fetches, validates and derives a complete dataset. Nothing is
// returned unless every part loads.
func LoadDataset(ctx context.Context, source DataSource, impactConfig ImpactConfig, logger *logrus.Logger) (*Dataset, error) {
	start := time.Now()

	raw, err := source.Prices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load prices from %s: %w", source.Name(), err)
	}
	series, err := NewPriceSeries(raw)
	if err != nil {
		return nil, fmt.Errorf("price series: %w", err)
	}

	events, err := source.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events from %s: %w", source.Name(), err)
	}
	catalog, err := NewEventCatalog(events)
	if err != nil {
		return nil, fmt.Errorf("event catalog: %w", err)
	}

	cp, err := source.ChangePoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("load change point from %s: %w", source.Name(), err)
	}
	if err := cp.Validate(); err != nil {
		return nil, fmt.Errorf("change point: %w", err)
	}

	ds := &Dataset{
		Version:     uuid.NewString(),
		LoadedAt:    time.Now().UTC(),
		Source:      source.Name(),
		Series:      series,
		Catalog:     catalog,
		ChangePoint: cp,
		Impact:      NewEventImpactEvaluator(series, catalog, impactConfig),
	}

	logger.WithFields(logrus.Fields{
		"source":       ds.Source,
		"version":      ds.Version,
		"observations": series.Len(),
		"events":       catalog.Len(),
		"start":        series.Start().Format(models.DateLayout),
		"end":          series.End().Format(models.DateLayout),
		"change_point": cp.ChangePointDate.Format(models.DateLayout),
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Info("Dataset loaded")

	return ds, nil
}

// Statistics aggregates the dataset.
func (d *Dataset) Statistics() (*models.CorpusStatistics, error) {
	return Aggregate(d.Series, d.Catalog)
}

// RegimeSummary summarizes the regimes around the dataset's change point.
func (d *Dataset) RegimeSummary() (*models.RegimeSummary, error) {
	return Summarize(d.Series.observations, d.ChangePoint)
}

// ModelSummary returns the annualized change-point view.
func (d *Dataset) ModelSummary() models.ModelSummary {
	return models.NewModelSummary(d.ChangePoint)
}

// DatasetHolder publishes the current dataset. Readers always see a complete
// dataset; Reload swaps it wholesale.
type DatasetHolder struct {
	current      atomic.Pointer[Dataset]
	source       DataSource
	impactConfig ImpactConfig
	logger       *logrus.Logger
}

// NewDatasetHolder creates a holder around an already loaded dataset.
func NewDatasetHolder(initial *Dataset, source DataSource, impactConfig ImpactConfig, logger *logrus.Logger) *DatasetHolder {
	h := &DatasetHolder{
		source:       source,
		impactConfig: impactConfig,
		logger:       logger,
	}
	h.current.Store(initial)
	return h
}

// Current returns the published dataset.
func (h *DatasetHolder) Current() *Dataset {
	return h.current.Load()
}

// Reload loads a fresh dataset from the source and publishes it. On error
// the current dataset stays in place.
func (h *DatasetHolder) Reload(ctx context.Context) error {
	ds, err := LoadDataset(ctx, h.source, h.impactConfig, h.logger)
	if err != nil {
		h.logger.WithError(err).Warn("Dataset reload failed, keeping current dataset")
		return err
	}
	h.current.Store(ds)
	return nil
}
