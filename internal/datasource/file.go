// Package datasource loads prices, events and the change-point fit from files
// produced by the offline modeling pipeline.
package datasource

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/oilpulse/internal/config"
	"github.com/irfndi/oilpulse/internal/models"
	"github.com/irfndi/oilpulse/internal/utils"
)

// FileSource reads a prices CSV, an events CSV or JSON file and a model
// results JSON file. Files are re-read on every call so a reload picks up
// new pipeline output.
type FileSource struct {
	pricesPath       string
	eventsPath       string
	modelResultsPath string
	logger           *logrus.Logger
}

// NewFileSource creates a file source from the data section of the config.
func NewFileSource(cfg config.DataConfig, logger *logrus.Logger) *FileSource {
	return &FileSource{
		pricesPath:       cfg.PricesPath,
		eventsPath:       cfg.EventsPath,
		modelResultsPath: cfg.ModelResultsPath,
		logger:           logger,
	}
}

func (s *FileSource) Name() string {
	return config.SourceFile
}

// Prices reads the prices file.
func (s *FileSource) Prices(ctx context.Context) ([]models.RawObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.pricesPath)
	if err != nil {
		return nil, fmt.Errorf("open prices: %w", err)
	}
	defer f.Close()

	raw, err := ReadPrices(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.pricesPath, err)
	}
	s.logger.WithFields(logrus.Fields{
		"path": s.pricesPath,
		"rows": len(raw),
	}).Debug("Read prices file")
	return raw, nil
}

// Events reads the events file; a .json extension selects JSON, anything
// else is parsed as CSV.
func (s *FileSource) Events(ctx context.Context) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.eventsPath)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	var events []models.Event
	if strings.EqualFold(filepath.Ext(s.eventsPath), ".json") {
		events, err = ReadEventsJSON(f)
	} else {
		events, err = ReadEventsCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.eventsPath, err)
	}
	s.logger.WithFields(logrus.Fields{
		"path":   s.eventsPath,
		"events": len(events),
	}).Debug("Read events file")
	return events, nil
}

// ChangePoint reads the model results file.
func (s *FileSource) ChangePoint(ctx context.Context) (models.ChangePointResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ChangePointResult{}, err
	}
	f, err := os.Open(s.modelResultsPath)
	if err != nil {
		return models.ChangePointResult{}, fmt.Errorf("open model results: %w", err)
	}
	defer f.Close()

	cp, err := ReadModelResults(f)
	if err != nil {
		return models.ChangePointResult{}, fmt.Errorf("%s: %w", s.modelResultsPath, err)
	}
	return cp, nil
}

// ReadPrices parses a CSV with Date and Price columns. Prices go through
// decimal parsing so malformed numerals are rejected rather than coerced.
// Rows must be in strictly increasing date order.
func ReadPrices(r io.Reader) ([]models.RawObservation, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	dateCol, err := column(header, "Date")
	if err != nil {
		return nil, err
	}
	priceCol, err := column(header, "Price")
	if err != nil {
		return nil, err
	}

	raw := make([]models.RawObservation, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		date, err := models.ParseDate(strings.TrimSpace(row[dateCol]))
		if err != nil {
			return nil, utils.NewValidationErrorf("line %d: %v", line, err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(row[priceCol]))
		if err != nil {
			return nil, utils.NewValidationErrorf("line %d: invalid price %q", line, row[priceCol])
		}
		if n := len(raw); n > 0 && !date.After(raw[n-1].Date) {
			return nil, utils.NewValidationErrorf("line %d: date %s is not after %s",
				line, date.Format(models.DateLayout), raw[n-1].Date.Format(models.DateLayout))
		}
		value, _ := price.Float64()
		raw = append(raw, models.RawObservation{Date: date, Price: value})
	}
	return raw, nil
}

// ReadEventsCSV parses a CSV with Event, Date, Category and an optional
// Description column.
func ReadEventsCSV(r io.Reader) ([]models.Event, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	nameCol, err := column(header, "Event")
	if err != nil {
		return nil, err
	}
	dateCol, err := column(header, "Date")
	if err != nil {
		return nil, err
	}
	categoryCol, err := column(header, "Category")
	if err != nil {
		return nil, err
	}
	descriptionCol, _ := column(header, "Description")

	events := make([]models.Event, 0, len(rows))
	for i, row := range rows {
		date, err := models.ParseDate(strings.TrimSpace(row[dateCol]))
		if err != nil {
			return nil, utils.NewValidationErrorf("line %d: %v", i+2, err)
		}
		event := models.Event{
			Name:     strings.TrimSpace(row[nameCol]),
			Date:     date,
			Category: strings.TrimSpace(row[categoryCol]),
		}
		if descriptionCol >= 0 {
			event.Description = strings.TrimSpace(row[descriptionCol])
		}
		events = append(events, event)
	}
	return events, nil
}

// ReadEventsJSON parses a JSON array of events.
func ReadEventsJSON(r io.Reader) ([]models.Event, error) {
	var events []models.Event
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, utils.NewValidationErrorf("decode events: %v", err)
	}
	return events, nil
}

// ReadModelResults parses the flat change-point results document.
func ReadModelResults(r io.Reader) (models.ChangePointResult, error) {
	var file models.ModelResultsFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return models.ChangePointResult{}, utils.NewValidationErrorf("decode model results: %v", err)
	}
	cp, err := file.ToChangePointResult()
	if err != nil {
		return models.ChangePointResult{}, utils.NewValidationErrorf("model results: %v", err)
	}
	return cp, nil
}

func readCSV(r io.Reader) ([][]string, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, utils.NewValidationError("file is empty")
	}
	if err != nil {
		return nil, nil, utils.NewValidationErrorf("read header: %v", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, utils.NewValidationErrorf("read rows: %v", err)
	}
	return rows, header, nil
}

// column returns the index of name in header, ignoring case and surrounding
// space, or -1 with an error when it is absent.
func column(header []string, name string) (int, error) {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, nil
		}
	}
	return -1, utils.NewValidationErrorf("missing %q column", name)
}
