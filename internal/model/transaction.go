package model

import "time"

// TransactionType is the closed set of ledger transaction kinds.
// Using a named type keeps bare strings out of the ledger code paths.
type TransactionType string

const (
	TransactionBuy                  TransactionType = "buy"
	TransactionSell                 TransactionType = "sell"
	TransactionDividendReinvestment TransactionType = "dividend_reinvestment"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionBuy, TransactionSell, TransactionDividendReinvestment:
		return true
	}
	return false
}

// Transaction represents a single ledger entry for a portfolio fund.
// Shares and CostPerShare are always positive; the type determines whether
// the entry adds to or removes from the position.
type Transaction struct {
	ID              string          `json:"id"`
	PortfolioFundID string          `json:"portfolioFundId"`
	Date            time.Time       `json:"date"`
	Type            TransactionType `json:"type"`
	Shares          float64         `json:"shares"`
	CostPerShare    float64         `json:"costPerShare"`
	CreatedAt       time.Time       `json:"createdAt,omitempty"`
}

// TransactionResponse represents a transaction with enriched data for API responses.
type TransactionResponse struct {
	ID              string          `json:"id"`
	PortfolioFundID string          `json:"portfolioFundId"`
	FundName        string          `json:"fundName"`
	Date            time.Time       `json:"date"`
	Type            TransactionType `json:"type"`
	Shares          float64         `json:"shares"`
	CostPerShare    float64         `json:"costPerShare"`
}
