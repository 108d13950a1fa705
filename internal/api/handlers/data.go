package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/oilpulse/internal/models"
	"github.com/irfndi/oilpulse/internal/utils"
)

// DataHandler serves the raw series and the event catalog.
type DataHandler struct {
	datasets DatasetProvider
}

// NewDataHandler creates a data handler.
func NewDataHandler(datasets DatasetProvider) *DataHandler {
	return &DataHandler{datasets: datasets}
}

// GetOilData returns observations in an inclusive date range
// @Summary Get oil price observations
// @Tags data
// @Param start_date query string false "First date, YYYY-MM-DD"
// @Param end_date query string false "Last date, YYYY-MM-DD"
// @Produce json
// @Success 200 {object} models.OilDataResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/oil-data [get]
func (h *DataHandler) GetOilData(c *gin.Context) {
	ds := h.datasets.Current()

	start, err := dateParam(c, "start_date", ds.Series.Start())
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := dateParam(c, "end_date", ds.Series.End())
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := ds.Series.SliceByDateRange(start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OilDataResponse{
		Data:         data,
		TotalRecords: len(data),
	})
}

// GetEvents returns the event catalog, optionally filtered by category
// @Summary Get events
// @Tags data
// @Param category query string false "Exact category"
// @Produce json
// @Success 200 {object} models.EventsResponse
// @Router /api/v1/events [get]
func (h *DataHandler) GetEvents(c *gin.Context) {
	catalog := h.datasets.Current().Catalog
	events := catalog.FilterByCategory(c.Query("category"))
	c.JSON(http.StatusOK, models.EventsResponse{
		Events:      events,
		Categories:  catalog.Categories(),
		TotalEvents: len(events),
	})
}

// GetPriceData returns the derived series for charting
// @Summary Get derived price data
// @Tags data
// @Produce json
// @Success 200 {object} models.PriceDataResponse
// @Router /api/v1/price-data [get]
func (h *DataHandler) GetPriceData(c *gin.Context) {
	ds := h.datasets.Current()
	c.JSON(http.StatusOK, models.PriceDataResponse{
		PriceData:       ds.Series.Observations(),
		ChangePointDate: ds.ChangePoint.ChangePointDate.Format(models.DateLayout),
	})
}

func dateParam(c *gin.Context, name string, fallback time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return time.Time{}, utils.NewValidationErrorf("invalid %s %q", name, raw)
	}
	return date, nil
}
