package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/oilpulse/internal/utils"
)

func newMockRepository(t *testing.T) (pgxmock.PgxPoolIface, *PriceRepository) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err, "Failed to create mock pool")
	t.Cleanup(mockPool.Close)
	return mockPool, NewPriceRepository(mockPool)
}

func TestPriceRepository_Name(t *testing.T) {
	_, repo := newMockRepository(t)
	assert.Equal(t, "postgres", repo.Name())
}

func TestPriceRepository_Prices(t *testing.T) {
	mockPool, repo := newMockRepository(t)
	local := time.FixedZone("UTC+3", 3*60*60)

	mockPool.ExpectQuery(regexp.QuoteMeta(selectPricesQuery)).WillReturnRows(
		pgxmock.NewRows([]string{"date", "price"}).
			AddRow(time.Date(1987, 5, 20, 0, 0, 0, 0, time.UTC), 18.63).
			AddRow(time.Date(1987, 5, 21, 0, 0, 0, 0, local), 18.45),
	)

	raw, err := repo.Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Equal(t, time.Date(1987, 5, 20, 0, 0, 0, 0, time.UTC), raw[0].Date)
	assert.Equal(t, 18.63, raw[0].Price)
	assert.Equal(t, time.Date(1987, 5, 21, 0, 0, 0, 0, time.UTC), raw[1].Date)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPriceRepository_PricesQueryError(t *testing.T) {
	mockPool, repo := newMockRepository(t)
	mockPool.ExpectQuery(regexp.QuoteMeta(selectPricesQuery)).WillReturnError(errors.New("connection reset"))

	_, err := repo.Prices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query brent_prices")
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPriceRepository_PricesRowError(t *testing.T) {
	mockPool, repo := newMockRepository(t)
	mockPool.ExpectQuery(regexp.QuoteMeta(selectPricesQuery)).WillReturnRows(
		pgxmock.NewRows([]string{"date", "price"}).
			AddRow(time.Date(1987, 5, 20, 0, 0, 0, 0, time.UTC), 18.63).
			RowError(0, errors.New("network timeout")),
	)

	_, err := repo.Prices(context.Background())
	require.Error(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPriceRepository_Events(t *testing.T) {
	mockPool, repo := newMockRepository(t)

	mockPool.ExpectQuery(regexp.QuoteMeta(selectEventsQuery)).WillReturnRows(
		pgxmock.NewRows([]string{"name", "event_date", "category", "description"}).
			AddRow("Gulf War", time.Date(1990, 8, 2, 0, 0, 0, 0, time.UTC), "Geopolitical", "Iraq invades Kuwait").
			AddRow("Financial Crisis", time.Date(2008, 9, 15, 0, 0, 0, 0, time.UTC), "Economic", ""),
	)

	events, err := repo.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Gulf War", events[0].Name)
	assert.Equal(t, "Geopolitical", events[0].Category)
	assert.Equal(t, "Iraq invades Kuwait", events[0].Description)
	assert.Equal(t, time.Date(2008, 9, 15, 0, 0, 0, 0, time.UTC), events[1].Date)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPriceRepository_ChangePoint(t *testing.T) {
	mockPool, repo := newMockRepository(t)

	mockPool.ExpectQuery(regexp.QuoteMeta(selectLatestChangePointQuery)).WillReturnRows(
		pgxmock.NewRows([]string{"change_point_date", "mu_before", "sigma_before", "mu_after", "sigma_after", "prob_mu_increase", "prob_sigma_increase"}).
			AddRow(time.Date(2008, 9, 15, 0, 0, 0, 0, time.UTC), 0.0006, 0.019, -0.0002, 0.031, 0.08, 0.99),
	)

	cp, err := repo.ChangePoint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2008, 9, 15, 0, 0, 0, 0, time.UTC), cp.ChangePointDate)
	assert.Equal(t, 0.0006, cp.RegimeBefore.MeanReturn)
	assert.Equal(t, 0.019, cp.RegimeBefore.StdReturn)
	assert.Equal(t, -0.0002, cp.RegimeAfter.MeanReturn)
	assert.Equal(t, 0.031, cp.RegimeAfter.StdReturn)
	assert.Equal(t, 0.08, cp.ProbabilityMeanIncreased)
	assert.Equal(t, 0.99, cp.ProbabilityVolatilityIncreased)
	require.NoError(t, cp.Validate())

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPriceRepository_ChangePointMissing(t *testing.T) {
	mockPool, repo := newMockRepository(t)
	mockPool.ExpectQuery(regexp.QuoteMeta(selectLatestChangePointQuery)).WillReturnError(pgx.ErrNoRows)

	_, err := repo.ChangePoint(context.Background())
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
