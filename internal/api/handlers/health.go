package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/oilpulse/internal/models"
)

var startTime = time.Now()

// HealthChecker is a dependency that can report its own health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports liveness, readiness and dependency health.
type HealthHandler struct {
	datasets DatasetProvider
	version  string
	checks   map[string]HealthChecker
	logger   *logrus.Logger
}

// DatasetInfo describes the dataset being served.
type DatasetInfo struct {
	Version      string    `json:"version"`
	Source       string    `json:"source"`
	LoadedAt     time.Time `json:"loaded_at"`
	Observations int       `json:"observations"`
	Events       int       `json:"events"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
}

// MemoryInfo is a host memory snapshot.
type MemoryInfo struct {
	TotalBytes     uint64  `json:"total_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedPercent    float64 `json:"used_percent"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Dataset   *DatasetInfo      `json:"dataset"`
	Services  map[string]string `json:"services"`
	Memory    *MemoryInfo       `json:"memory,omitempty"`
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(datasets DatasetProvider, version string, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		datasets: datasets,
		version:  version,
		checks:   make(map[string]HealthChecker),
		logger:   logger,
	}
}

// AddCheck registers a named dependency. Only configured dependencies
// should be added.
func (h *HealthHandler) AddCheck(name string, checker HealthChecker) {
	h.checks[name] = checker
}

// HealthCheck reports overall health
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	services, healthy := h.checkServices(ctx)
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Services:  services,
	}

	if ds := h.datasets.Current(); ds != nil {
		response.Dataset = &DatasetInfo{
			Version:      ds.Version,
			Source:       ds.Source,
			LoadedAt:     ds.LoadedAt,
			Observations: ds.Series.Len(),
			Events:       ds.Catalog.Len(),
			Start:        ds.Series.Start().Format(models.DateLayout),
			End:          ds.Series.End().Format(models.DateLayout),
		}
	} else {
		healthy = false
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		response.Memory = &MemoryInfo{
			TotalBytes:     vm.Total,
			AvailableBytes: vm.Available,
			UsedPercent:    vm.UsedPercent,
		}
	} else {
		h.logger.WithError(err).Debug("Host memory stats unavailable")
	}

	status := http.StatusOK
	if !healthy {
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

// ReadinessCheck reports whether the server can serve analysis requests
// @Summary Readiness check
// @Tags health
// @Produce json
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	services, healthy := h.checkServices(c.Request.Context())
	ready := healthy && h.datasets.Current() != nil

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ready":    ready,
		"services": services,
	})
}

// LivenessCheck reports that the process is responsive
// @Summary Liveness check
// @Tags health
// @Produce json
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) checkServices(ctx context.Context) (map[string]string, bool) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	services := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := h.checks[name].HealthCheck(ctx); err != nil {
			services[name] = "unhealthy: " + err.Error()
			healthy = false
			h.logger.WithError(err).WithField("service", name).Warn("Health check failed")
			continue
		}
		services[name] = "healthy"
	}
	return services, healthy
}
