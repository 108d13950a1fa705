package services

import (
	"math"
	"sort"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/guregu/null/v6"

	"github.com/irfndi/oilpulse/internal/models"
	"github.com/irfndi/oilpulse/internal/utils"
)

const (
	// MovingAverageWindow is the number of prices in MovingAverage30.
	MovingAverageWindow = 30
	// VolatilityWindow is the number of log returns in RollingVolatility30.
	VolatilityWindow = 30
	// LongMovingAverageWindow is the number of prices in MovingAverage90.
	LongMovingAverageWindow = 90
)

// PriceSeriesStore owns the ordered price observations and their derived
// fields. It is not safe to call Load or Derive concurrently with readers;
// once loaded and derived, all read methods are safe for concurrent use.
type PriceSeriesStore struct {
	observations []models.PriceObservation
	derived      bool
}

// NewPriceSeriesStore creates an empty store.
func NewPriceSeriesStore() *PriceSeriesStore {
	return &PriceSeriesStore{}
}

// NewPriceSeries loads raw observations and derives all fields.
func NewPriceSeries(raw []models.RawObservation) (*PriceSeriesStore, error) {
	store := NewPriceSeriesStore()
	if err := store.Load(raw); err != nil {
		return nil, err
	}
	store.Derive()
	return store, nil
}

// Load validates raw observations and replaces the store contents.
// Dates are reduced to calendar days and must be strictly increasing;
// prices must be finite and positive. On error the previous contents are kept.
func (s *PriceSeriesStore) Load(raw []models.RawObservation) error {
	if len(raw) == 0 {
		return utils.NewValidationError("price series must contain at least one observation")
	}

	observations := make([]models.PriceObservation, len(raw))
	for i, r := range raw {
		if r.Date.IsZero() {
			return utils.NewValidationErrorf("observation %d has no date", i)
		}
		date := models.CalendarDay(r.Date)
		if math.IsNaN(r.Price) || math.IsInf(r.Price, 0) || r.Price <= 0 {
			return utils.NewValidationErrorf("observation %d (%s): price must be positive, got %v",
				i, date.Format(models.DateLayout), r.Price)
		}
		if i > 0 {
			prev := observations[i-1].Date
			if date.Equal(prev) {
				return utils.NewValidationErrorf("duplicate date %s at observation %d",
					date.Format(models.DateLayout), i)
			}
			if date.Before(prev) {
				return utils.NewValidationErrorf("dates must be strictly increasing: %s follows %s at observation %d",
					date.Format(models.DateLayout), prev.Format(models.DateLayout), i)
			}
		}
		observations[i] = models.PriceObservation{Date: date, Price: r.Price}
	}

	s.observations = observations
	s.derived = false
	return nil
}

// Derive computes LogPrice, LogReturn, MovingAverage30, RollingVolatility30
// and MovingAverage90 in one left-to-right pass. The 30-point windows keep a
// running sum and sum of squares so each step is O(1). Calling Derive again
// is a no-op until the next Load.
func (s *PriceSeriesStore) Derive() {
	if s.derived {
		return
	}
	obs := s.observations

	var priceSum float64
	var returnSum, returnSumSq float64
	returnCount := 0

	for i := range obs {
		price := obs[i].Price
		obs[i].LogPrice = math.Log(price)

		priceSum += price
		if i >= MovingAverageWindow {
			priceSum -= obs[i-MovingAverageWindow].Price
		}
		if i >= MovingAverageWindow-1 {
			obs[i].MovingAverage30 = null.FloatFrom(priceSum / MovingAverageWindow)
		}

		if i == 0 {
			continue
		}

		r := math.Log(price / obs[i-1].Price)
		obs[i].LogReturn = null.FloatFrom(r)
		returnSum += r
		returnSumSq += r * r
		returnCount++
		if returnCount > VolatilityWindow {
			old := obs[i-VolatilityWindow].LogReturn.ValueOrZero()
			returnSum -= old
			returnSumSq -= old * old
			returnCount--
		}
		// logReturn[0] is null, so the first full window ends at i == VolatilityWindow.
		if returnCount == VolatilityWindow {
			obs[i].RollingVolatility30 = null.FloatFrom(windowStd(returnSum, returnSumSq, VolatilityWindow))
		}
	}

	s.fillLongMovingAverage()
	s.derived = true
}

// windowStd is the sample standard deviation from a running sum and sum of squares.
func windowStd(sum, sumSq float64, n int) float64 {
	variance := (sumSq - sum*sum/float64(n)) / float64(n-1)
	if variance < 0 {
		// rounding on near-constant windows
		variance = 0
	}
	return math.Sqrt(variance)
}

func (s *PriceSeriesStore) fillLongMovingAverage() {
	obs := s.observations
	if len(obs) < LongMovingAverageWindow {
		return
	}

	prices := make([]float64, len(obs))
	for i := range obs {
		prices[i] = obs[i].Price
	}

	sma := trend.NewSmaWithPeriod[float64](LongMovingAverageWindow)
	values := helper.ChanToSlice(sma.Compute(helper.SliceToChan(prices)))

	offset := len(obs) - len(values)
	for i, v := range values {
		obs[i+offset].MovingAverage90 = null.FloatFrom(v)
	}
}

// Derived reports whether Derive has run since the last Load.
func (s *PriceSeriesStore) Derived() bool {
	return s.derived
}

// Len returns the number of observations.
func (s *PriceSeriesStore) Len() int {
	return len(s.observations)
}

// Start returns the first observation date.
func (s *PriceSeriesStore) Start() time.Time {
	if len(s.observations) == 0 {
		return time.Time{}
	}
	return s.observations[0].Date
}

// End returns the last observation date.
func (s *PriceSeriesStore) End() time.Time {
	if len(s.observations) == 0 {
		return time.Time{}
	}
	return s.observations[len(s.observations)-1].Date
}

// Observations returns a copy of all observations.
func (s *PriceSeriesStore) Observations() []models.PriceObservation {
	out := make([]models.PriceObservation, len(s.observations))
	copy(out, s.observations)
	return out
}

// SliceByDateRange returns a copy of the observations with start <= date <= end.
func (s *PriceSeriesStore) SliceByDateRange(start, end time.Time) ([]models.PriceObservation, error) {
	return SliceByDateRange(s.observations, start, end)
}

// SliceByDateRange returns a copy of the observations of a date-ordered
// slice with start <= date <= end, or an EmptyRangeError.
func SliceByDateRange(observations []models.PriceObservation, start, end time.Time) ([]models.PriceObservation, error) {
	if end.Before(start) {
		return nil, utils.NewEmptyRangeErrorf("start %s is after end %s",
			start.Format(models.DateLayout), end.Format(models.DateLayout))
	}

	lo, hi := dateBounds(observations, start, end, true)
	if lo >= hi {
		return nil, utils.NewEmptyRangeErrorf("no observations between %s and %s",
			start.Format(models.DateLayout), end.Format(models.DateLayout))
	}

	out := make([]models.PriceObservation, hi-lo)
	copy(out, observations[lo:hi])
	return out, nil
}

// dateBounds returns [lo, hi) indices of the observations with date >= start
// and date <= end (includeEnd) or date < end (!includeEnd).
func dateBounds(observations []models.PriceObservation, start, end time.Time, includeEnd bool) (int, int) {
	n := len(observations)
	lo := sort.Search(n, func(i int) bool {
		return !observations[i].Date.Before(start)
	})
	hi := sort.Search(n, func(i int) bool {
		if includeEnd {
			return observations[i].Date.After(end)
		}
		return !observations[i].Date.Before(end)
	})
	return lo, hi
}
