package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/irfndi/oilpulse/internal/config"
	"github.com/irfndi/oilpulse/internal/models"
	"github.com/irfndi/oilpulse/internal/utils"
)

// DatabasePool is the read-only subset of pgxpool.Pool the repository needs.
// pgxmock pools satisfy it directly.
type DatabasePool interface {
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const (
	selectPricesQuery = `SELECT date, price FROM brent_prices ORDER BY date`

	selectEventsQuery = `SELECT name, event_date, category, COALESCE(description, '') FROM events ORDER BY event_date, name`

	selectLatestChangePointQuery = `SELECT change_point_date, mu_before, sigma_before, mu_after, sigma_after, prob_mu_increase, prob_sigma_increase
		FROM change_point_results
		ORDER BY created_at DESC
		LIMIT 1`
)

// PriceRepository reads the analysis inputs from PostgreSQL. It never writes.
type PriceRepository struct {
	pool DatabasePool
}

// NewPriceRepository creates a repository over pool.
func NewPriceRepository(pool DatabasePool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

func (r *PriceRepository) Name() string {
	return config.SourcePostgres
}

// Prices returns every stored price ordered by date.
func (r *PriceRepository) Prices(ctx context.Context) ([]models.RawObservation, error) {
	rows, err := r.pool.Query(ctx, selectPricesQuery)
	if err != nil {
		return nil, fmt.Errorf("query brent_prices: %w", err)
	}
	defer rows.Close()

	var raw []models.RawObservation
	for rows.Next() {
		var (
			date  time.Time
			price float64
		)
		if err := rows.Scan(&date, &price); err != nil {
			return nil, fmt.Errorf("scan brent_prices row: %w", err)
		}
		raw = append(raw, models.RawObservation{Date: utcDate(date), Price: price})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brent_prices: %w", err)
	}
	return raw, nil
}

// Events returns the event catalog ordered by date.
func (r *PriceRepository) Events(ctx context.Context) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, selectEventsQuery)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.Name, &e.Date, &e.Category, &e.Description); err != nil {
			return nil, fmt.Errorf("scan events row: %w", err)
		}
		e.Date = utcDate(e.Date)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ChangePoint returns the most recently stored change-point fit.
func (r *PriceRepository) ChangePoint(ctx context.Context) (models.ChangePointResult, error) {
	var (
		cp   models.ChangePointResult
		date time.Time
	)
	err := r.pool.QueryRow(ctx, selectLatestChangePointQuery).Scan(
		&date,
		&cp.RegimeBefore.MeanReturn,
		&cp.RegimeBefore.StdReturn,
		&cp.RegimeAfter.MeanReturn,
		&cp.RegimeAfter.StdReturn,
		&cp.ProbabilityMeanIncreased,
		&cp.ProbabilityVolatilityIncreased,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ChangePointResult{}, utils.NewNotFoundError("change point result", "latest")
	}
	if err != nil {
		return models.ChangePointResult{}, fmt.Errorf("query change_point_results: %w", err)
	}
	cp.ChangePointDate = utcDate(date)
	return cp, nil
}

func utcDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
