package validation

import (
	"strings"

	"github.com/mdehaan/portfolio-engine/internal/api/request"
)

// ValidateCreateFund validates a fund creation request.
func ValidateCreateFund(req request.CreateFundRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}
	if strings.TrimSpace(req.Isin) == "" {
		errors["isin"] = "isin is required"
	}
	if strings.TrimSpace(req.Currency) == "" {
		errors["currency"] = "currency is required"
	} else if len(req.Currency) != 3 {
		errors["currency"] = "currency must be a 3-letter code"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateCreateFundPrice validates a fund price creation request.
func ValidateCreateFundPrice(req request.CreateFundPriceRequest) error {
	errors := make(map[string]string)

	validateDate(errors, "date", req.Date)

	if req.Price <= 0.0 {
		errors["price"] = "price must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
