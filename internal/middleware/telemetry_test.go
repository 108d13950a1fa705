package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func tracedRouter(handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(TelemetryMiddleware("oilpulse-test"))
	router.GET("/api/v1/event-impact/:event_name", handler)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	return router
}

func TestTelemetryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("traces api requests", func(t *testing.T) {
		recorder := recordSpans(t)
		router := tracedRouter(func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"event": c.Param("event_name")})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/event-impact/Gulf%20War", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Name(), "/api/v1/event-impact/:event_name")
	})

	t.Run("skips health probes", func(t *testing.T) {
		recorder := recordSpans(t)
		router := tracedRouter(func(c *gin.Context) {})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, recorder.Ended())
	})

	t.Run("handler annotations land on the request span", func(t *testing.T) {
		recorder := recordSpans(t)
		router := tracedRouter(func(c *gin.Context) {
			AddSpanAttribute(c, "oilpulse.event.name", c.Param("event_name"))
			AddSpanAttribute(c, "oilpulse.window_days", 30)
			AddSpanAttribute(c, "oilpulse.observations", int64(61))
			AddSpanAttribute(c, "oilpulse.percent_change", 12.5)
			AddSpanAttribute(c, "oilpulse.cached", false)
			AddSpanAttribute(c, "oilpulse.other", []int{1})
			RecordError(c, errors.New("event not found"), "lookup failed")
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/event-impact/XYZ", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		spans := recorder.Ended()
		require.Len(t, spans, 1)

		attrs := map[attribute.Key]attribute.Value{}
		for _, kv := range spans[0].Attributes() {
			attrs[kv.Key] = kv.Value
		}
		assert.Equal(t, "XYZ", attrs["oilpulse.event.name"].AsString())
		assert.Equal(t, int64(30), attrs["oilpulse.window_days"].AsInt64())
		assert.Equal(t, int64(61), attrs["oilpulse.observations"].AsInt64())
		assert.Equal(t, 12.5, attrs["oilpulse.percent_change"].AsFloat64())
		assert.False(t, attrs["oilpulse.cached"].AsBool())
		assert.Equal(t, "[1]", attrs["oilpulse.other"].AsString())
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})
}

func TestSpanHelpers_NoRecordingSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	assert.NotPanics(t, func() {
		RecordError(c, errors.New("boom"), "failed")
		AddSpanAttribute(c, "key", "value")
	})
}
