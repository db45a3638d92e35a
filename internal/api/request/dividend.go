package request

// CreateDividendRequest is the body for POST /api/dividend.
//
// ReinvestmentShares and ReinvestmentPrice are pointers: presence is what
// matters, and an explicit zero must reach validation (and fail there)
// instead of being treated as "not supplied".
type CreateDividendRequest struct {
	PortfolioFundID    string   `json:"portfolioFundId"`
	Kind               string   `json:"kind"` // cash or stock
	RecordDate         string   `json:"recordDate"`
	ExDividendDate     string   `json:"exDividendDate"`
	DividendPerShare   float64  `json:"dividendPerShare"`
	BuyOrderDate       *string  `json:"buyOrderDate,omitempty"`
	ReinvestmentShares *float64 `json:"reinvestmentShares,omitempty"`
	ReinvestmentPrice  *float64 `json:"reinvestmentPrice,omitempty"`
}

// UpdateDividendRequest is the body for PUT /api/dividend/{id}.
// Kind is immutable and therefore absent here.
type UpdateDividendRequest struct {
	RecordDate         string   `json:"recordDate"`
	ExDividendDate     string   `json:"exDividendDate"`
	DividendPerShare   float64  `json:"dividendPerShare"`
	BuyOrderDate       *string  `json:"buyOrderDate,omitempty"`
	ReinvestmentShares *float64 `json:"reinvestmentShares,omitempty"`
	ReinvestmentPrice  *float64 `json:"reinvestmentPrice,omitempty"`
}
