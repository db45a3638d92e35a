package model

import "time"

// Portfolio represents a portfolio from the database
type Portfolio struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Description         string `json:"description"`
	IsArchived          bool   `json:"isArchived"`
	ExcludeFromOverview bool   `json:"excludeFromOverview"`
}

// PortfolioFilter for querying portfolios
type PortfolioFilter struct {
	IncludeArchived bool
	IncludeExcluded bool
}

// PortfolioSummary represents the state of a portfolio on a given date:
// valuation, cost basis, and gains/losses (realized and unrealized).
// Monetary values are rounded to two decimal places.
type PortfolioSummary struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	Description             string  `json:"description"`
	TotalValue              float64 `json:"totalValue"`
	TotalCost               float64 `json:"totalCost"`
	TotalDividends          float64 `json:"totalDividends"`
	TotalUnrealizedGainLoss float64 `json:"totalUnrealizedGainLoss"`
	TotalRealizedGainLoss   float64 `json:"totalRealizedGainLoss"`
	IsArchived              bool    `json:"isArchived"`
}

// PortfolioHistory represents portfolio valuations for a single date.
// It contains one entry per portfolio showing their state on that date.
type PortfolioHistory struct {
	Date       string             `json:"date"` // YYYY-MM-DD
	Portfolios []PortfolioSummary `json:"portfolios"`
}

// PortfolioHistoryMaterialized is a pre-calculated daily portfolio snapshot
// persisted for fast history reads. The table is rebuilt after mutations and
// by the nightly refresh job.
type PortfolioHistoryMaterialized struct {
	ID             string
	PortfolioID    string
	Date           time.Time
	Value          float64
	Cost           float64
	RealizedGain   float64
	UnrealizedGain float64
	TotalDividends float64
	IsArchived     bool
	CalculatedAt   time.Time
}
