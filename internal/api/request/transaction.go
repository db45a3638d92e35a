// Package request defines the JSON request bodies accepted by the API.
// Optional numeric fields are pointers so validation can tell an absent
// field from an explicit zero.
package request

// CreateTransactionRequest is the body for POST /api/transaction.
type CreateTransactionRequest struct {
	PortfolioFundID string  `json:"portfolioFundId"`
	Date            string  `json:"date"` // YYYY-MM-DD
	Type            string  `json:"type"`
	Shares          float64 `json:"shares"`
	CostPerShare    float64 `json:"costPerShare"`
}

// UpdateTransactionRequest is the body for PUT /api/transaction/{id}.
// All fields are optional; absent fields keep their current value.
type UpdateTransactionRequest struct {
	Date         *string  `json:"date,omitempty"`
	Type         *string  `json:"type,omitempty"`
	Shares       *float64 `json:"shares,omitempty"`
	CostPerShare *float64 `json:"costPerShare,omitempty"`
}
