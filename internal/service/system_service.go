package service

import (
	"database/sql"
	"runtime"

	"github.com/mdehaan/portfolio-engine/internal/database"
	"github.com/mdehaan/portfolio-engine/internal/model"
)

// Version is the application version, overridable at build time via
// -ldflags "-X .../internal/service.Version=x.y.z".
var Version = "dev"

// SystemService reports service health and build information.
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService with the provided database connection.
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{db: db}
}

// Health reports whether the service and its database are reachable.
func (s *SystemService) Health() model.HealthStatus {
	status := model.HealthStatus{Status: "ok", Database: "ok"}
	if err := database.HealthCheck(s.db); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
	}
	return status
}

// VersionInfo reports the application version and Go runtime version.
func (s *SystemService) VersionInfo() model.VersionInfo {
	return model.VersionInfo{
		Version:   Version,
		GoVersion: runtime.Version(),
	}
}
