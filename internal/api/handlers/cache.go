package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/oilpulse/internal/cache"
)

// CacheInterface defines the cache operations exposed over HTTP
type CacheInterface interface {
	GetStats() cache.CacheStats
	Clear(ctx context.Context) error
}

// CacheHandler handles cache monitoring endpoints
type CacheHandler struct {
	cache CacheInterface
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(analysisCache CacheInterface) *CacheHandler {
	return &CacheHandler{cache: analysisCache}
}

// GetCacheStats returns hit/miss counters of the analysis cache
// @Summary Get cache statistics
// @Tags cache
// @Produce json
// @Success 200 {object} cache.CacheStats
// @Router /api/v1/cache/stats [get]
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	stats := h.cache.GetStats()
	total := stats.Hits + stats.Misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total)
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     stats,
		"hit_rate": hitRate,
	})
}

// ClearCache drops every cached analysis response
// @Summary Clear the analysis cache
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/cache/clear [post]
func (h *CacheHandler) ClearCache(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to clear cache",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Analysis cache cleared",
	})
}
