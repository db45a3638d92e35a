package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/testutil"
)

func TestParseDateRange(t *testing.T) {
	t.Run("defaults to the last year ending today", func(t *testing.T) {
		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/history", nil)

		start, end, err := parseDateRange(req)
		if err != nil {
			t.Fatalf("parseDateRange() returned unexpected error: %v", err)
		}

		today := time.Now().UTC().Truncate(24 * time.Hour)
		if !end.Equal(today) {
			t.Errorf("Expected end date %s, got %s", today.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		if !start.Equal(today.AddDate(0, 0, -365)) {
			t.Errorf("Expected start date 365 days back, got %s", start.Format("2006-01-02"))
		}
	})

	t.Run("parses explicit dates", func(t *testing.T) {
		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/history", map[string]string{
			"startDate": "2024-01-01",
			"endDate":   "2024-03-31",
		})

		start, end, err := parseDateRange(req)
		if err != nil {
			t.Fatalf("parseDateRange() returned unexpected error: %v", err)
		}
		if start.Format("2006-01-02") != "2024-01-01" || end.Format("2006-01-02") != "2024-03-31" {
			t.Errorf("Expected 2024-01-01..2024-03-31, got %s..%s",
				start.Format("2006-01-02"), end.Format("2006-01-02"))
		}
	})

	t.Run("rejects inverted ranges", func(t *testing.T) {
		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/history", map[string]string{
			"startDate": "2024-03-31",
			"endDate":   "2024-01-01",
		})

		_, _, err := parseDateRange(req)
		if !errors.Is(err, apperrors.ErrInvalidDateRange) {
			t.Errorf("Expected ErrInvalidDateRange, got %v", err)
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/history", map[string]string{
			"startDate": "January 1st",
		})

		if _, _, err := parseDateRange(req); err == nil {
			t.Error("Expected error for malformed date, got nil")
		}
	})
}

func TestParseJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("decodes a valid body", func(t *testing.T) {
		req := testutil.NewRequestWithBody(http.MethodPost, "/test", nil, `{"name":"x"}`)

		got, err := parseJSON[payload](req)
		if err != nil {
			t.Fatalf("parseJSON() returned unexpected error: %v", err)
		}
		if got.Name != "x" {
			t.Errorf("Expected name x, got %q", got.Name)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		req := testutil.NewRequestWithBody(http.MethodPost, "/test", nil, `{"name":"x","extra":1}`)

		if _, err := parseJSON[payload](req); err == nil {
			t.Error("Expected error for unknown field, got nil")
		}
	})

	t.Run("rejects an empty body", func(t *testing.T) {
		req := testutil.NewRequestWithBody(http.MethodPost, "/test", nil, "")

		if _, err := parseJSON[payload](req); err == nil {
			t.Error("Expected error for empty body, got nil")
		}
	})
}
