package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/oilpulse/internal/cache"
)

func analysisRouter(h *AnalysisHandler) *gin.Engine {
	router := gin.New()
	router.GET("/api/v1/model-results", h.GetModelResults)
	router.GET("/api/v1/regime-summary", h.GetRegimeSummary)
	router.GET("/api/v1/statistics", h.GetStatistics)
	router.GET("/api/v1/event-impact", h.GetAllEventImpacts)
	router.GET("/api/v1/event-impact/:event_name", h.GetEventImpact)
	return router
}

func TestAnalysisHandler_GetModelResults(t *testing.T) {
	router := analysisRouter(NewAnalysisHandler(fixtureHolder(t), nil, quietLogger()))

	w := perform(router, http.MethodGet, "/api/v1/model-results")
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	assert.Equal(t, "2020-04-10", out["change_point_date"])
	assert.InDelta(t, 0.252, out["annual_return_before"], 1e-12)
	assert.InDelta(t, 0.97, out["prob_sigma_increase"], 1e-12)
	assert.Len(t, out, 11)
}

func TestAnalysisHandler_GetRegimeSummary(t *testing.T) {
	router := analysisRouter(NewAnalysisHandler(fixtureHolder(t), nil, quietLogger()))

	w := perform(router, http.MethodGet, "/api/v1/regime-summary")
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	assert.Equal(t, "2020-04-10", out["change_point_date"])
	empirical, ok := out["empirical"].(map[string]interface{})
	require.True(t, ok)
	before := empirical["before"].(map[string]interface{})
	after := empirical["after"].(map[string]interface{})
	assert.Equal(t, float64(100), before["observations"])
	assert.Equal(t, float64(99), before["returns"])
	assert.Equal(t, float64(100), after["observations"])
	assert.Equal(t, float64(100), after["returns"])
	assert.Equal(t, "2020-04-10", after["start"])
}

func TestAnalysisHandler_GetStatistics(t *testing.T) {
	router := analysisRouter(NewAnalysisHandler(fixtureHolder(t), nil, quietLogger()))

	w := perform(router, http.MethodGet, "/api/v1/statistics")
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	price := out["price_statistics"].(map[string]interface{})
	assert.Equal(t, float64(200), price["count"])
	assert.InDelta(t, 199.5, price["mean"], 1e-9)
	assert.Equal(t, float64(100), price["min"])
	assert.Equal(t, float64(299), price["max"])
	assert.Equal(t, float64(199), out["returns_statistics"].(map[string]interface{})["count"])
	assert.Equal(t, float64(170), out["volatility_statistics"].(map[string]interface{})["count"])

	events := out["event_statistics"].(map[string]interface{})
	assert.Equal(t, float64(4), events["total_events"])
	period := out["data_period"].(map[string]interface{})
	assert.Equal(t, "2020-01-01", period["start"])
	assert.Equal(t, float64(200), period["total_days"])
}

func TestAnalysisHandler_GetEventImpact(t *testing.T) {
	router := analysisRouter(NewAnalysisHandler(fixtureHolder(t), nil, quietLogger()))

	w := perform(router, http.MethodGet, "/api/v1/event-impact/Midyear%20Crisis")
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	assert.Equal(t, "Midyear Crisis", out["event_info"].(map[string]interface{})["Event"])
	assert.InDelta(t, 184.5, out["price_before"], 1e-9)
	assert.InDelta(t, 215, out["price_after"], 1e-9)
	assert.InDelta(t, (215-184.5)/184.5*100, out["percent_change"], 1e-9)
	assert.Equal(t, float64(30), out["window_days"])
	assert.Len(t, out["price_data"], 61)
}

func TestAnalysisHandler_GetEventImpactLookupAndWindow(t *testing.T) {
	router := analysisRouter(NewAnalysisHandler(fixtureHolder(t), nil, quietLogger()))

	w := perform(router, http.MethodGet, "/api/v1/event-impact/midyear?window_days=10")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, float64(10), out["window_days"])
	assert.Equal(t, float64(10), out["observations_before"])
	assert.Equal(t, float64(11), out["observations_after"])
}

func TestAnalysisHandler_GetEventImpactErrors(t *testing.T) {
	router := analysisRouter(NewAnalysisHandler(fixtureHolder(t), nil, quietLogger()))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantKind   string
	}{
		{"unknown event", "/api/v1/event-impact/XYZ", http.StatusNotFound, "not_found"},
		{"too little history", "/api/v1/event-impact/Early%20Shock", http.StatusUnprocessableEntity, "insufficient_data"},
		{"non numeric window", "/api/v1/event-impact/Spring%20Cut?window_days=abc", http.StatusBadRequest, "validation"},
		{"negative window", "/api/v1/event-impact/Spring%20Cut?window_days=-3", http.StatusBadRequest, "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, http.MethodGet, tt.target)
			assert.Equal(t, tt.wantStatus, w.Code)
			out := decode(t, w)
			assert.Equal(t, tt.wantKind, out["kind"])
			assert.NotEmpty(t, out["error"])
		})
	}

	w := perform(router, http.MethodGet, "/api/v1/event-impact/XYZ")
	assert.JSONEq(t, `{"error":"event not found: \"XYZ\"","kind":"not_found"}`, w.Body.String())
}

func TestAnalysisHandler_GetAllEventImpacts(t *testing.T) {
	router := analysisRouter(NewAnalysisHandler(fixtureHolder(t), nil, quietLogger()))

	w := perform(router, http.MethodGet, "/api/v1/event-impact")
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	assert.Equal(t, float64(30), out["window_days"])
	impacts := out["impacts"].([]interface{})
	require.Len(t, impacts, 3)
	assert.Equal(t, "Spring Cut", impacts[0].(map[string]interface{})["event_info"].(map[string]interface{})["Event"])
	skipped := out["skipped"].([]interface{})
	require.Len(t, skipped, 1)
	assert.Equal(t, "Early Shock", skipped[0].(map[string]interface{})["event"])
	assert.Equal(t, "insufficient_data", skipped[0].(map[string]interface{})["kind"])

	w = perform(router, http.MethodGet, "/api/v1/event-impact?window_days=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalysisHandler_CachesResponses(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	holder := fixtureHolder(t)
	analysisCache := cache.NewAnalysisCache(client, time.Minute, quietLogger())
	router := analysisRouter(NewAnalysisHandler(holder, analysisCache, quietLogger()))

	first := perform(router, http.MethodGet, "/api/v1/statistics")
	second := perform(router, http.MethodGet, "/api/v1/statistics")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))

	stats := analysisCache.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.True(t, mr.Exists(cache.Key(holder.Current().Version, "statistics")))

	// Failures are not cached.
	perform(router, http.MethodGet, "/api/v1/event-impact/XYZ")
	assert.False(t, mr.Exists(cache.Key(holder.Current().Version, "impact", "30", "XYZ")))
}
