package request

// CreatePortfolioRequest is the body for POST /api/portfolio.
type CreatePortfolioRequest struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	ExcludeFromOverview bool   `json:"excludeFromOverview"`
}

// UpdatePortfolioRequest is the body for PUT /api/portfolio/{id}.
type UpdatePortfolioRequest struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	IsArchived          bool   `json:"isArchived"`
	ExcludeFromOverview bool   `json:"excludeFromOverview"`
}
