package services

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/oilpulse/internal/utils"
)

func TestMeanAndStd(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.Equal(t, 5.0, Mean(values))
	assert.True(t, math.IsNaN(Mean(nil)))

	sample, err := SampleStd(values)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(32.0/7.0), sample, 1e-12)

	population, err := PopulationStd(values)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, population, 1e-12)

	_, err = SampleStd([]float64{1})
	assert.ErrorIs(t, err, utils.ErrInsufficientData)

	_, err = PopulationStd(nil)
	assert.ErrorIs(t, err, utils.ErrInsufficientData)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{25, 3.25},
		{50, 5.5},
		{75, 7.75},
		{100, 10},
	}
	for _, tt := range tests {
		got, err := Percentile(sorted, tt.p)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "p=%v", tt.p)
	}

	_, err := Percentile(sorted, 101)
	assert.ErrorIs(t, err, utils.ErrValidation)
	_, err = Percentile(sorted, -1)
	assert.ErrorIs(t, err, utils.ErrValidation)
	_, err = Percentile(nil, 50)
	assert.ErrorIs(t, err, utils.ErrInsufficientData)
}

func TestDescribe(t *testing.T) {
	values := []float64{9, 2, 5, 4, 4, 7, 4, 5}
	original := append([]float64(nil), values...)

	stats, err := Describe(values)
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Count)
	assert.Equal(t, 5.0, stats.Mean)
	assert.InDelta(t, math.Sqrt(32.0/7.0), stats.Std, 1e-12)
	assert.Equal(t, 2.0, stats.Min)
	assert.Equal(t, 4.0, stats.P25)
	assert.Equal(t, 4.5, stats.P50)
	assert.Equal(t, 5.5, stats.P75)
	assert.Equal(t, 9.0, stats.Max)
	assert.Equal(t, original, values)

	_, err = Describe([]float64{42})
	assert.ErrorIs(t, err, utils.ErrInsufficientData)
}

func TestAggregate(t *testing.T) {
	store := mustSeries(t, wavePrices(100)...)
	catalog := mustCatalog(t, sampleEvents())

	stats, err := Aggregate(store, catalog)
	require.NoError(t, err)

	require.NotNil(t, stats.PriceStatistics)
	require.NotNil(t, stats.ReturnsStatistics)
	require.NotNil(t, stats.VolatilityStatistics)
	assert.Equal(t, 100, stats.PriceStatistics.Count)
	assert.Equal(t, 99, stats.ReturnsStatistics.Count)
	assert.Equal(t, 100-VolatilityWindow, stats.VolatilityStatistics.Count)

	assert.Equal(t, 100, stats.DataPeriod.TotalDays)
	assert.Equal(t, day(0), stats.DataPeriod.Start)
	assert.Equal(t, day(99), stats.DataPeriod.End)

	assert.Equal(t, 5, stats.EventStatistics.TotalEvents)
	assert.Equal(t, 2, stats.EventStatistics.Categories["Economic"])
	require.NotNil(t, stats.EventStatistics.DateRange)
	assert.Equal(t, day(40), stats.EventStatistics.DateRange.Start)
	assert.Equal(t, day(160), stats.EventStatistics.DateRange.End)

	for _, block := range []float64{stats.PriceStatistics.Min, stats.PriceStatistics.P25, stats.PriceStatistics.P50, stats.PriceStatistics.P75} {
		assert.LessOrEqual(t, block, stats.PriceStatistics.Max)
	}
}

func TestAggregate_ShortSeries(t *testing.T) {
	store := mustSeries(t, 70, 71, 72)
	catalog := mustCatalog(t, nil)

	stats, err := Aggregate(store, catalog)
	require.NoError(t, err)

	assert.NotNil(t, stats.PriceStatistics)
	assert.NotNil(t, stats.ReturnsStatistics)
	assert.Nil(t, stats.VolatilityStatistics)
	assert.Equal(t, 0, stats.EventStatistics.TotalEvents)
	assert.Empty(t, stats.EventStatistics.Categories)
	assert.Nil(t, stats.EventStatistics.DateRange)

	body, err := json.Marshal(stats)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Nil(t, out["volatility_statistics"])
	assert.Contains(t, out, "volatility_statistics")

	single := mustSeries(t, 70)
	stats, err = Aggregate(single, catalog)
	require.NoError(t, err)
	assert.Nil(t, stats.PriceStatistics)
	assert.Nil(t, stats.ReturnsStatistics)
}

func TestAggregate_RequiresSeries(t *testing.T) {
	_, err := Aggregate(nil, nil)
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = Aggregate(NewPriceSeriesStore(), nil)
	assert.ErrorIs(t, err, utils.ErrValidation)
}
