package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/oilpulse/internal/models"
	"github.com/irfndi/oilpulse/internal/services"
)

var baseDate = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func day(i int) time.Time {
	return baseDate.AddDate(0, 0, i)
}

// fixtureSource serves 200 daily prices 100, 101, ... and four events.
type fixtureSource struct{}

func (fixtureSource) Name() string { return "fixture" }

func (fixtureSource) Prices(ctx context.Context) ([]models.RawObservation, error) {
	raw := make([]models.RawObservation, 200)
	for i := range raw {
		raw[i] = models.RawObservation{Date: day(i), Price: 100 + float64(i)}
	}
	return raw, nil
}

func (fixtureSource) Events(ctx context.Context) ([]models.Event, error) {
	return []models.Event{
		{Name: "Early Shock", Date: day(2), Category: "Geopolitical"},
		{Name: "Spring Cut", Date: day(40), Category: "OPEC Policy", Description: "Output cut"},
		{Name: "Midyear Crisis", Date: day(100), Category: "Economic"},
		{Name: "Autumn Sanctions", Date: day(160), Category: "Economic Sanctions"},
	}, nil
}

func (fixtureSource) ChangePoint(ctx context.Context) (models.ChangePointResult, error) {
	return models.ChangePointResult{
		ChangePointDate:                day(100),
		RegimeBefore:                   models.RegimeParams{MeanReturn: 0.001, StdReturn: 0.02},
		RegimeAfter:                    models.RegimeParams{MeanReturn: -0.0005, StdReturn: 0.035},
		ProbabilityMeanIncreased:       0.12,
		ProbabilityVolatilityIncreased: 0.97,
	}, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fixtureHolder(t *testing.T) *services.DatasetHolder {
	t.Helper()
	source := fixtureSource{}
	ds, err := services.LoadDataset(context.Background(), source, services.DefaultImpactConfig(), quietLogger())
	require.NoError(t, err)
	return services.NewDatasetHolder(ds, source, services.DefaultImpactConfig(), quietLogger())
}

func perform(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func init() {
	gin.SetMode(gin.TestMode)
}
