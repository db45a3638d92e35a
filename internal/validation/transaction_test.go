package validation_test

import (
	"testing"

	"github.com/mdehaan/portfolio-engine/internal/api/request"
	"github.com/mdehaan/portfolio-engine/internal/validation"
)

func validTransaction() request.CreateTransactionRequest {
	return request.CreateTransactionRequest{
		PortfolioFundID: "550e8400-e29b-41d4-a716-446655440000",
		Date:            "2024-01-15",
		Type:            "buy",
		Shares:          100,
		CostPerShare:    10.50,
	}
}

// TestValidateCreateTransaction tests the transaction creation checks.
func TestValidateCreateTransaction(t *testing.T) {
	t.Run("valid request passes", func(t *testing.T) {
		if err := validation.ValidateCreateTransaction(validTransaction()); err != nil {
			t.Errorf("Expected valid request, got error: %v", err)
		}
	})

	t.Run("all three types accepted", func(t *testing.T) {
		for _, txType := range []string{"buy", "sell", "dividend_reinvestment"} {
			req := validTransaction()
			req.Type = txType
			if err := validation.ValidateCreateTransaction(req); err != nil {
				t.Errorf("Expected type %s to pass, got error: %v", txType, err)
			}
		}
	})

	t.Run("unknown type fails", func(t *testing.T) {
		req := validTransaction()
		req.Type = "transfer"

		err := validation.ValidateCreateTransaction(req)
		vErr, ok := err.(*validation.Error)
		if !ok {
			t.Fatalf("Expected validation.Error, got %v", err)
		}
		if _, found := vErr.Fields["type"]; !found {
			t.Errorf("Expected type error, got fields: %v", vErr.Fields)
		}
	})

	t.Run("negative shares fail", func(t *testing.T) {
		req := validTransaction()
		req.Shares = -5

		err := validation.ValidateCreateTransaction(req)
		vErr, ok := err.(*validation.Error)
		if !ok {
			t.Fatalf("Expected validation.Error, got %v", err)
		}
		if _, found := vErr.Fields["shares"]; !found {
			t.Errorf("Expected shares error, got fields: %v", vErr.Fields)
		}
	})

	t.Run("zero cost per share fails", func(t *testing.T) {
		req := validTransaction()
		req.CostPerShare = 0

		err := validation.ValidateCreateTransaction(req)
		vErr, ok := err.(*validation.Error)
		if !ok {
			t.Fatalf("Expected validation.Error, got %v", err)
		}
		if _, found := vErr.Fields["costPerShare"]; !found {
			t.Errorf("Expected costPerShare error, got fields: %v", vErr.Fields)
		}
	})

	t.Run("malformed date fails", func(t *testing.T) {
		req := validTransaction()
		req.Date = "15-01-2024"

		err := validation.ValidateCreateTransaction(req)
		vErr, ok := err.(*validation.Error)
		if !ok {
			t.Fatalf("Expected validation.Error, got %v", err)
		}
		if _, found := vErr.Fields["date"]; !found {
			t.Errorf("Expected date error, got fields: %v", vErr.Fields)
		}
	})
}

// TestValidateUpdateTransaction tests that optional fields are validated by
// presence: a supplied zero fails instead of being ignored.
func TestValidateUpdateTransaction(t *testing.T) {
	t.Run("empty update passes", func(t *testing.T) {
		if err := validation.ValidateUpdateTransaction(request.UpdateTransactionRequest{}); err != nil {
			t.Errorf("Expected empty update to pass, got error: %v", err)
		}
	})

	t.Run("explicit zero shares fails", func(t *testing.T) {
		req := request.UpdateTransactionRequest{Shares: ptr(0.0)}

		err := validation.ValidateUpdateTransaction(req)
		vErr, ok := err.(*validation.Error)
		if !ok {
			t.Fatalf("Expected validation.Error, got %v", err)
		}
		if _, found := vErr.Fields["shares"]; !found {
			t.Errorf("Expected shares error, got fields: %v", vErr.Fields)
		}
	})

	t.Run("valid partial update passes", func(t *testing.T) {
		req := request.UpdateTransactionRequest{
			Date:   ptr("2024-02-01"),
			Shares: ptr(25.0),
		}
		if err := validation.ValidateUpdateTransaction(req); err != nil {
			t.Errorf("Expected valid update, got error: %v", err)
		}
	})
}
