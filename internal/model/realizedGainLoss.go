package model

import "time"

// RealizedGainLoss records the gain or loss recognized by one sell
// transaction: proceeds minus the average acquisition cost of the shares
// sold. One record exists per sell; records are rewritten from the ledger
// whenever the holding's transactions change and removed with their sell.
type RealizedGainLoss struct {
	ID               string    `json:"id"`
	PortfolioID      string    `json:"portfolioId"`
	FundID           string    `json:"fundId"`
	TransactionID    string    `json:"transactionId"`
	TransactionDate  time.Time `json:"transactionDate"`
	SharesSold       float64   `json:"sharesSold"`
	CostBasis        float64   `json:"costBasis"`
	SaleProceeds     float64   `json:"saleProceeds"`
	RealizedGainLoss float64   `json:"realizedGainLoss"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`
}
