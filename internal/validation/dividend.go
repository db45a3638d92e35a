package validation

import (
	"fmt"
	"strings"

	"github.com/mdehaan/portfolio-engine/internal/api/request"
)

// ValidDividendKind contains the allowed dividend kind values.
var ValidDividendKind = map[string]bool{
	"cash": true, "stock": true,
}

// ValidateCreateDividend validates a dividend creation request.
//
// Required fields:
//   - portfolioFundId: Must be a valid UUID
//   - kind: Must be cash or stock
//   - recordDate, exDividendDate: Must be in YYYY-MM-DD format
//   - dividendPerShare: Must be strictly positive
//
// Optional fields are checked for PRESENCE, not truthiness: a reinvestment
// price of 0 is a supplied-but-invalid value and fails validation, it is
// never silently treated as absent. Reinvestment shares and price must be
// supplied together.
func ValidateCreateDividend(req request.CreateDividendRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.PortfolioFundID); err != nil {
		return err
	}

	if strings.TrimSpace(req.Kind) == "" {
		errors["kind"] = "kind is required"
	} else if !ValidDividendKind[req.Kind] {
		errors["kind"] = fmt.Sprintf("invalid kind: %s", req.Kind)
	}

	validateDate(errors, "recordDate", req.RecordDate)
	validateDate(errors, "exDividendDate", req.ExDividendDate)

	if req.DividendPerShare <= 0.0 {
		errors["dividendPerShare"] = "dividendPerShare must be positive"
	}

	validateReinvestmentFields(errors, req.Kind, req.BuyOrderDate, req.ReinvestmentShares, req.ReinvestmentPrice)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateDividend validates a dividend update request. The dividend's
// kind is immutable, so kind-dependent checks on the optional reinvestment
// fields happen in the service where the stored kind is known.
func ValidateUpdateDividend(req request.UpdateDividendRequest) error {
	errors := make(map[string]string)

	validateDate(errors, "recordDate", req.RecordDate)
	validateDate(errors, "exDividendDate", req.ExDividendDate)

	if req.DividendPerShare <= 0.0 {
		errors["dividendPerShare"] = "dividendPerShare must be positive"
	}

	validateReinvestmentFields(errors, "", req.BuyOrderDate, req.ReinvestmentShares, req.ReinvestmentPrice)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

func validateReinvestmentFields(errors map[string]string, kind string, buyOrderDate *string, shares, price *float64) {
	if buyOrderDate != nil {
		validateDate(errors, "buyOrderDate", *buyOrderDate)
	}
	if kind == "stock" && buyOrderDate == nil {
		errors["buyOrderDate"] = "buyOrderDate is required for stock dividends"
	}
	if kind == "cash" {
		if buyOrderDate != nil {
			errors["buyOrderDate"] = "cash dividends cannot carry a buy order date"
		}
		if shares != nil || price != nil {
			errors["reinvestmentShares"] = "cash dividends cannot be reinvested"
		}
		return
	}

	if (shares != nil) != (price != nil) {
		errors["reinvestmentShares"] = "reinvestmentShares and reinvestmentPrice must be supplied together"
		return
	}
	if shares != nil && *shares <= 0.0 {
		errors["reinvestmentShares"] = "reinvestmentShares must be positive"
	}
	if price != nil && *price <= 0.0 {
		errors["reinvestmentPrice"] = "reinvestmentPrice must be positive"
	}
}
