// Package handlers contains the HTTP layer adapters: they parse requests,
// delegate to the service layer and shape responses.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/apperrors"
)

// parseJSON decodes the request body into T, rejecting unknown fields.
func parseJSON[T any](r *http.Request) (T, error) {
	var payload T
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return payload, fmt.Errorf("failed to decode request body: %w", err)
	}
	return payload, nil
}

// defaultHistoryRange is used when the caller gives no explicit date range.
const defaultHistoryRange = 365

// parseDateRange reads optional startDate and endDate query parameters in
// YYYY-MM-DD format. Missing values default to the last year ending today.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	startDate := endDate.AddDate(0, 0, -defaultHistoryRange)

	if v := r.URL.Query().Get("endDate"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate: %w", err)
		}
		endDate = parsed
	}
	if v := r.URL.Query().Get("startDate"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate: %w", err)
		}
		startDate = parsed
	}

	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidDateRange
	}

	return startDate, endDate, nil
}
