package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/api/request"
)

// ValidTransactionType contains the allowed transaction type values.
var ValidTransactionType = map[string]bool{
	"buy": true, "sell": true, "dividend_reinvestment": true,
}

func isDate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

// ValidateCreateTransaction validates a transaction creation request.
//
// Required fields:
//   - portfolioFundId: Must be a valid UUID
//   - date: Must be in YYYY-MM-DD format
//   - type: Must be one of: buy, sell, dividend_reinvestment
//   - shares: Must be strictly positive
//   - costPerShare: Must be strictly positive
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.PortfolioFundID); err != nil {
		return err
	}

	validateDate(errors, "date", req.Date)

	if strings.TrimSpace(req.Type) == "" {
		errors["type"] = "type is required"
	} else if !ValidTransactionType[req.Type] {
		errors["type"] = fmt.Sprintf("invalid type: %s", req.Type)
	}

	if req.Shares <= 0.0 {
		errors["shares"] = "shares must be positive"
	}

	if req.CostPerShare <= 0.0 {
		errors["costPerShare"] = "costPerShare must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateTransaction validates a transaction update request.
// All fields are optional, but if provided they must meet the same
// constraints as create. Presence is what is checked, not truthiness: an
// explicit zero fails rather than being skipped.
func ValidateUpdateTransaction(req request.UpdateTransactionRequest) error {
	errors := make(map[string]string)

	if req.Date != nil {
		validateDate(errors, "date", *req.Date)
	}
	if req.Type != nil {
		if strings.TrimSpace(*req.Type) == "" {
			errors["type"] = "type is required"
		} else if !ValidTransactionType[*req.Type] {
			errors["type"] = fmt.Sprintf("invalid type: %s", *req.Type)
		}
	}
	if req.Shares != nil && *req.Shares <= 0.0 {
		errors["shares"] = "shares must be positive"
	}
	if req.CostPerShare != nil && *req.CostPerShare <= 0.0 {
		errors["costPerShare"] = "costPerShare must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
