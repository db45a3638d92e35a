package handlers

import (
	"net/http"

	"github.com/mdehaan/portfolio-engine/internal/api/response"
	"github.com/mdehaan/portfolio-engine/internal/service"
)

// SystemHandler handles HTTP requests for system endpoints: health, version
// and the manual materialized-history refresh.
type SystemHandler struct {
	systemService  *service.SystemService
	historyService *service.HistoryService
}

// NewSystemHandler creates a new SystemHandler with the provided service dependencies.
func NewSystemHandler(systemService *service.SystemService, historyService *service.HistoryService) *SystemHandler {
	return &SystemHandler{
		systemService:  systemService,
		historyService: historyService,
	}
}

// Health handles GET requests for the service health check.
//
// Endpoint: GET /api/system/health
// Response: 200 OK with HealthStatus, 503 when the database is unreachable
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	status := h.systemService.Health()
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	response.RespondJSON(w, code, status)
}

// Version handles GET requests for build information.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with VersionInfo
func (h *SystemHandler) Version(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.systemService.VersionInfo())
}

// RefreshHistory handles POST requests to rebuild the materialized history
// table outside the nightly schedule.
//
// Endpoint: POST /api/system/refresh-history
// Response: 204 No Content on success
// Error: 500 Internal Server Error if the rebuild fails
func (h *SystemHandler) RefreshHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.historyService.Refresh(r.Context()); err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to refresh history", err.Error())
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}
