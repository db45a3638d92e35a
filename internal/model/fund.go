package model

import "time"

// Fund represents a tradable fund or stock.
type Fund struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Isin     string `json:"isin"`
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

// FundPrice is a single observed price point for a fund.
type FundPrice struct {
	ID     string    `json:"id"`
	FundID string    `json:"fundId"`
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
}

// PortfolioFund is the holding: a portfolio's position in one fund.
// It owns the ordered transaction sequence and the dividends for that pair.
type PortfolioFund struct {
	ID          string `json:"id"`
	PortfolioID string `json:"portfolioId"`
	FundID      string `json:"fundId"`
}
