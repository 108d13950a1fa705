package services

import (
	"fmt"
	"math"

	"github.com/irfndi/oilpulse/internal/models"
	"github.com/irfndi/oilpulse/internal/utils"
)

// minRegimePoints is the smallest partition for which a standard deviation exists.
const minRegimePoints = 2

// Summarize splits observations at the change point (before: date < cp,
// after: date >= cp) and computes return statistics for each side. The
// return on the first "after" day, which spans the change point, belongs to
// the after regime. observations must be date-ordered with derived returns.
func Summarize(observations []models.PriceObservation, cp models.ChangePointResult) (*models.RegimeSummary, error) {
	split, _ := dateBounds(observations, cp.ChangePointDate, cp.ChangePointDate, false)

	before, err := regimeStats(observations[:split])
	if err != nil {
		return nil, fmt.Errorf("regime before %s: %w", cp.ChangePointDate.Format(models.DateLayout), err)
	}
	after, err := regimeStats(observations[split:])
	if err != nil {
		return nil, fmt.Errorf("regime after %s: %w", cp.ChangePointDate.Format(models.DateLayout), err)
	}

	return &models.RegimeSummary{
		Model:  models.NewModelSummary(cp),
		Before: before,
		After:  after,
	}, nil
}

func regimeStats(partition []models.PriceObservation) (models.RegimeStats, error) {
	if len(partition) < minRegimePoints {
		return models.RegimeStats{}, utils.NewInsufficientDataError("regime observations", minRegimePoints, len(partition))
	}

	returns := logReturns(partition)
	if len(returns) < minRegimePoints {
		return models.RegimeStats{}, utils.NewInsufficientDataError("regime returns", minRegimePoints, len(returns))
	}

	mean := Mean(returns)
	std, err := SampleStd(returns)
	if err != nil {
		return models.RegimeStats{}, err
	}
	popStd, err := PopulationStd(returns)
	if err != nil {
		return models.RegimeStats{}, err
	}

	return models.RegimeStats{
		Start:               partition[0].Date,
		End:                 partition[len(partition)-1].Date,
		Observations:        len(partition),
		Returns:             len(returns),
		MeanReturn:          mean,
		StdReturn:           std,
		PopulationStdReturn: popStd,
		AnnualReturn:        mean * models.TradingDaysPerYear,
		AnnualVolatility:    std * math.Sqrt(models.TradingDaysPerYear),
	}, nil
}

// logReturns collects the non-null log returns of observations.
func logReturns(observations []models.PriceObservation) []float64 {
	out := make([]float64, 0, len(observations))
	for _, o := range observations {
		if o.LogReturn.Valid {
			out = append(out, o.LogReturn.ValueOrZero())
		}
	}
	return out
}
