package model

// HealthStatus reports the health of the service and its database.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// VersionInfo reports build information for the running service.
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
}
