package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/oilpulse/internal/cache"
	"github.com/irfndi/oilpulse/internal/middleware"
	"github.com/irfndi/oilpulse/internal/services"
	"github.com/irfndi/oilpulse/internal/telemetry"
)

// DatasetProvider returns the dataset requests are served from.
type DatasetProvider interface {
	Current() *services.Dataset
}

// AnalysisHandler serves the change-point, impact and statistics views.
type AnalysisHandler struct {
	datasets DatasetProvider
	cache    *cache.AnalysisCache
	logger   *logrus.Logger
}

// NewAnalysisHandler creates an analysis handler. analysisCache may be nil.
func NewAnalysisHandler(datasets DatasetProvider, analysisCache *cache.AnalysisCache, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		datasets: datasets,
		cache:    analysisCache,
		logger:   logger,
	}
}

// GetModelResults returns the change-point result with annualized figures
// @Summary Get change-point model results
// @Tags analysis
// @Produce json
// @Success 200 {object} models.ModelSummary
// @Router /api/v1/model-results [get]
func (h *AnalysisHandler) GetModelResults(c *gin.Context) {
	c.JSON(http.StatusOK, h.datasets.Current().ModelSummary())
}

// GetRegimeSummary returns the model view plus the empirical regimes
// @Summary Get regime summary
// @Tags analysis
// @Produce json
// @Success 200 {object} models.RegimeSummary
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/regime-summary [get]
func (h *AnalysisHandler) GetRegimeSummary(c *gin.Context) {
	ds := h.datasets.Current()
	ctx, span := telemetry.StartAnalysisSpan(c.Request.Context(), telemetry.SpanRegimeSummary,
		telemetry.DatasetAttributes(ds.Version, ds.Series.Len(), ds.Catalog.Len())...)
	defer span.End()

	body, err := h.cache.Fetch(ctx, cache.Key(ds.Version, "regime-summary"), func() (interface{}, error) {
		return ds.RegimeSummary()
	})
	if err != nil {
		telemetry.RecordError(span, err)
		respondError(c, err)
		return
	}
	respondJSON(c, body)
}

// GetStatistics returns the corpus statistics
// @Summary Get corpus statistics
// @Tags analysis
// @Produce json
// @Success 200 {object} models.CorpusStatistics
// @Router /api/v1/statistics [get]
func (h *AnalysisHandler) GetStatistics(c *gin.Context) {
	ds := h.datasets.Current()
	ctx, span := telemetry.StartAnalysisSpan(c.Request.Context(), telemetry.SpanStatistics,
		telemetry.DatasetAttributes(ds.Version, ds.Series.Len(), ds.Catalog.Len())...)
	defer span.End()

	body, err := h.cache.Fetch(ctx, cache.Key(ds.Version, "statistics"), func() (interface{}, error) {
		return ds.Statistics()
	})
	if err != nil {
		telemetry.RecordError(span, err)
		respondError(c, err)
		return
	}
	respondJSON(c, body)
}

// GetEventImpact returns the price and volatility impact of one event
// @Summary Get event impact
// @Tags analysis
// @Param event_name path string true "Event name, matched exactly, case-insensitively or as a substring"
// @Param window_days query int false "Calendar days on each side of the event"
// @Produce json
// @Success 200 {object} models.ImpactResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/event-impact/{event_name} [get]
func (h *AnalysisHandler) GetEventImpact(c *gin.Context) {
	eventName := c.Param("event_name")
	windowDays, err := windowDaysParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ds := h.datasets.Current()
	if windowDays == 0 {
		windowDays = ds.Impact.Config().WindowDays
	}
	middleware.AddSpanAttribute(c, string(telemetry.AttrEventName), eventName)

	ctx, span := telemetry.StartImpactSpan(c.Request.Context(), eventName, windowDays)
	defer span.End()

	key := cache.Key(ds.Version, "impact", strconv.Itoa(windowDays), eventName)
	body, err := h.cache.Fetch(ctx, key, func() (interface{}, error) {
		return ds.Impact.Evaluate(eventName, windowDays)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		h.logger.WithFields(logrus.Fields{
			"event_name":  eventName,
			"window_days": windowDays,
			"request_id":  middleware.GetRequestID(c),
		}).WithError(err).Debug("Event impact unavailable")
		respondError(c, err)
		return
	}
	respondJSON(c, body)
}

// GetAllEventImpacts ranks every catalog event by absolute percent change
// @Summary Rank event impacts
// @Tags analysis
// @Param window_days query int false "Calendar days on each side of each event"
// @Produce json
// @Success 200 {object} models.ImpactRanking
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/event-impact [get]
func (h *AnalysisHandler) GetAllEventImpacts(c *gin.Context) {
	windowDays, err := windowDaysParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ds := h.datasets.Current()
	if windowDays == 0 {
		windowDays = ds.Impact.Config().WindowDays
	}

	ctx, span := telemetry.StartAnalysisSpan(c.Request.Context(), telemetry.SpanImpactEvaluateAll,
		telemetry.AttrWindowDays.Int(windowDays), telemetry.AttrEventCount.Int(ds.Catalog.Len()))
	defer span.End()

	key := cache.Key(ds.Version, "impact-ranking", strconv.Itoa(windowDays))
	body, err := h.cache.Fetch(ctx, key, func() (interface{}, error) {
		return ds.Impact.EvaluateAll(windowDays)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		respondError(c, err)
		return
	}
	respondJSON(c, body)
}
