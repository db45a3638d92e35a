package request

// CreateFundRequest is the body for POST /api/fund.
type CreateFundRequest struct {
	Name     string `json:"name"`
	Isin     string `json:"isin"`
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

// CreateFundPriceRequest is the body for POST /api/fund/{id}/price.
type CreateFundPriceRequest struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Price float64 `json:"price"`
}

// LinkFundRequest is the body for POST /api/portfolio/{id}/fund.
type LinkFundRequest struct {
	FundID string `json:"fundId"`
}
