package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/mdehaan/portfolio-engine/internal/model"
	"github.com/mdehaan/portfolio-engine/internal/repository"
)

// PortfolioService handles portfolio CRUD. Valuations and history are the
// HistoryService's job; this service only manages the portfolio records
// themselves.
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
func NewPortfolioService(portfolioRepo *repository.PortfolioRepository) *PortfolioService {
	return &PortfolioService{portfolioRepo: portfolioRepo}
}

// GetPortfolios retrieves portfolios according to the filter.
func (s *PortfolioService) GetPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolios(filter)
}

// GetPortfolio retrieves a single portfolio by ID.
func (s *PortfolioService) GetPortfolio(portfolioID string) (model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolio(portfolioID)
}

// CreatePortfolio creates a new portfolio.
func (s *PortfolioService) CreatePortfolio(ctx context.Context, p model.Portfolio) (model.Portfolio, error) {
	p.ID = uuid.New().String()
	if err := s.portfolioRepo.InsertPortfolio(ctx, p); err != nil {
		return model.Portfolio{}, err
	}
	return p, nil
}

// UpdatePortfolio updates a portfolio's name, description, archive flag and
// overview exclusion.
func (s *PortfolioService) UpdatePortfolio(ctx context.Context, p model.Portfolio) (model.Portfolio, error) {
	if err := s.portfolioRepo.UpdatePortfolio(ctx, p); err != nil {
		return model.Portfolio{}, err
	}
	return p, nil
}

// DeletePortfolio removes a portfolio. Holdings, transactions, dividends and
// derived records go with it through cascading foreign keys.
func (s *PortfolioService) DeletePortfolio(ctx context.Context, portfolioID string) error {
	return s.portfolioRepo.DeletePortfolio(ctx, portfolioID)
}
