package handler

import (
	"net/http"
	"runtime"
	"time"

	"risewith9-sales-api/internal/cache"
	"risewith9-sales-api/internal/repository"
	"risewith9-sales-api/pkg/apierror"
	"risewith9-sales-api/pkg/response"
)

// AdminHandler handles operational stats requests.
type AdminHandler struct {
	loginKey    string
	units       repository.UnitRepository
	visitBuffer *cache.RedisVisitBuffer
	unitDBType  string
	buyerDBType string
	startTime   time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(loginKey string, units repository.UnitRepository, visitBuffer *cache.RedisVisitBuffer, unitDBType, buyerDBType string) *AdminHandler {
	return &AdminHandler{
		loginKey:    loginKey,
		units:       units,
		visitBuffer: visitBuffer,
		unitDBType:  unitDBType,
		buyerDBType: buyerDBType,
		startTime:   time.Now(),
	}
}

// verifyKey checks the X-Login-Key header against the configured key.
func (h *AdminHandler) verifyKey(r *http.Request) bool {
	return h.loginKey != "" && r.Header.Get("X-Login-Key") == h.loginKey
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if !h.verifyKey(r) {
		response.Error(w, apierror.Unauthorized("Invalid login key"))
		return
	}

	ctx := r.Context()
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["unit_db_type"] = h.unitDBType
	stats["buyer_db_type"] = h.buyerDBType

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb": float64(memStats.HeapAlloc) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if h.visitBuffer != nil {
		count, err := h.visitBuffer.Count(ctx)
		if err == nil {
			stats["visit_buffer"] = map[string]interface{}{
				"pending_items": count,
				"status":        "connected",
			}
		} else {
			stats["visit_buffer"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["visit_buffer"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	if h.units != nil {
		unitStats, err := h.units.Stats(ctx)
		if err == nil {
			unitStats["status"] = "connected"
			stats["units"] = unitStats
		} else {
			stats["units"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
