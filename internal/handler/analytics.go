package handler

import (
	"net/http"

	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/service"
	"risewith9-sales-api/pkg/response"
)

// AnalyticsHandler handles tour analytics HTTP requests.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Visits handles GET /api/v1/analytics/visits
func (h *AnalyticsHandler) Visits(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.RoomStats(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, stats)
}

// InsightResponse carries the generated insight with the data it covers.
type InsightResponse struct {
	Insight string            `json:"insight"`
	Data    []model.VisitData `json:"data"`
}

// Insight handles POST /api/v1/analytics/insight
func (h *AnalyticsHandler) Insight(w http.ResponseWriter, r *http.Request) {
	insight, stats, err := h.analytics.Insight(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, InsightResponse{Insight: insight, Data: stats})
}
