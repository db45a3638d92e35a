package model

import "time"

// DividendKind distinguishes cash payouts from stock dividends that can be
// reinvested into additional shares.
type DividendKind string

const (
	DividendCash  DividendKind = "cash"
	DividendStock DividendKind = "stock"
)

// Valid reports whether k is one of the known dividend kinds.
func (k DividendKind) Valid() bool {
	return k == DividendCash || k == DividendStock
}

// ReinvestmentStatus is the closed set of reinvestment lifecycle states.
type ReinvestmentStatus string

const (
	// ReinvestmentNotApplicable marks cash dividends, which are paid out and
	// never produce a reinvestment transaction.
	ReinvestmentNotApplicable ReinvestmentStatus = "not_applicable"

	// ReinvestmentPending marks a stock dividend awaiting reinvestment shares
	// and price.
	ReinvestmentPending ReinvestmentStatus = "pending"

	// ReinvestmentCompleted marks a stock dividend whose reinvestment
	// transaction has been created and linked.
	ReinvestmentCompleted ReinvestmentStatus = "completed"
)

// Dividend represents a dividend entitlement for a portfolio fund.
// SharesOwned is a snapshot of the position on RecordDate, computed from the
// ledger when the dividend is created or its record date changes.
type Dividend struct {
	ID                        string             `json:"id"`
	FundID                    string             `json:"fundId"`
	PortfolioFundID           string             `json:"portfolioFundId"`
	RecordDate                time.Time          `json:"recordDate"`
	ExDividendDate            time.Time          `json:"exDividendDate"`
	SharesOwned               float64            `json:"sharesOwned"`
	DividendPerShare          float64            `json:"dividendPerShare"`
	TotalAmount               float64            `json:"totalAmount"`
	Kind                      DividendKind       `json:"kind"`
	ReinvestmentStatus        ReinvestmentStatus `json:"reinvestmentStatus"`
	BuyOrderDate              *time.Time         `json:"buyOrderDate,omitempty"`
	ReinvestmentTransactionID string             `json:"reinvestmentTransactionId,omitempty"`
	CreatedAt                 time.Time          `json:"createdAt,omitempty"`
}

// DividendResponse represents a dividend with enriched fund information for
// API responses.
type DividendResponse struct {
	Dividend
	FundName string `json:"fundName"`
}
