package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/oilpulse/internal/cache"
)

// MockCache is a mock implementation of CacheInterface
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetStats() cache.CacheStats {
	args := m.Called()
	return args.Get(0).(cache.CacheStats)
}

func (m *MockCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func cacheRouter(h *CacheHandler) *gin.Engine {
	router := gin.New()
	router.GET("/api/v1/cache/stats", h.GetCacheStats)
	router.POST("/api/v1/cache/clear", h.ClearCache)
	return router
}

func TestCacheHandler_GetCacheStats(t *testing.T) {
	mockCache := new(MockCache)
	mockCache.On("GetStats").Return(cache.CacheStats{Hits: 3, Misses: 1, Sets: 1})

	w := perform(cacheRouter(NewCacheHandler(mockCache)), http.MethodGet, "/api/v1/cache/stats")
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	assert.Equal(t, true, out["success"])
	assert.InDelta(t, 0.75, out["hit_rate"], 1e-12)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["hits"])
	mockCache.AssertExpectations(t)
}

func TestCacheHandler_GetCacheStatsEmpty(t *testing.T) {
	mockCache := new(MockCache)
	mockCache.On("GetStats").Return(cache.CacheStats{})

	w := perform(cacheRouter(NewCacheHandler(mockCache)), http.MethodGet, "/api/v1/cache/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["hit_rate"])
}

func TestCacheHandler_ClearCache(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockCache := new(MockCache)
		mockCache.On("Clear", mock.Anything).Return(nil)

		w := perform(cacheRouter(NewCacheHandler(mockCache)), http.MethodPost, "/api/v1/cache/clear")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["success"])
		mockCache.AssertExpectations(t)
	})

	t.Run("redis failure", func(t *testing.T) {
		mockCache := new(MockCache)
		mockCache.On("Clear", mock.Anything).Return(errors.New("redis down"))

		w := perform(cacheRouter(NewCacheHandler(mockCache)), http.MethodPost, "/api/v1/cache/clear")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		out := decode(t, w)
		assert.Equal(t, false, out["success"])
		assert.Equal(t, "Failed to clear cache", out["error"])
	})
}
