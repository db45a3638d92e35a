package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/mdehaan/portfolio-engine/internal/model"
	"github.com/mdehaan/portfolio-engine/internal/repository"
)

// FundService handles fund metadata, price observations and the linking of
// funds into portfolios.
type FundService struct {
	db               *sql.DB
	fundRepo         *repository.FundRepository
	materializedRepo *repository.MaterializedRepository
}

// NewFundService creates a new FundService with the provided dependencies.
func NewFundService(
	db *sql.DB,
	fundRepo *repository.FundRepository,
	materializedRepo *repository.MaterializedRepository,
) *FundService {
	return &FundService{
		db:               db,
		fundRepo:         fundRepo,
		materializedRepo: materializedRepo,
	}
}

// GetFunds retrieves all funds.
func (s *FundService) GetFunds() ([]model.Fund, error) {
	return s.fundRepo.GetFunds()
}

// GetFund retrieves a single fund by ID.
func (s *FundService) GetFund(fundID string) (model.Fund, error) {
	return s.fundRepo.GetFund(fundID)
}

// CreateFund creates a new fund.
func (s *FundService) CreateFund(ctx context.Context, f model.Fund) (model.Fund, error) {
	f.ID = uuid.New().String()
	if err := s.fundRepo.InsertFund(ctx, f); err != nil {
		return model.Fund{}, err
	}
	return f, nil
}

// AddFundPrice records a price observation and invalidates the materialized
// history of every portfolio holding the fund, since their valuations from
// that date onward changed.
func (s *FundService) AddFundPrice(ctx context.Context, fp model.FundPrice) (model.FundPrice, error) {
	if _, err := s.fundRepo.GetFund(fp.FundID); err != nil {
		return model.FundPrice{}, err
	}

	fp.ID = uuid.New().String()

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.fundRepo.WithTx(tx).InsertFundPrice(ctx, fp); err != nil {
			return err
		}
		return s.invalidateHoldersOf(ctx, tx, fp.FundID)
	})
	if err != nil {
		return model.FundPrice{}, err
	}

	return fp, nil
}

// LinkFund attaches a fund to a portfolio, creating the holding new
// transactions and dividends attach to.
func (s *FundService) LinkFund(ctx context.Context, portfolioID, fundID string) (model.PortfolioFund, error) {
	if _, err := s.fundRepo.GetFund(fundID); err != nil {
		return model.PortfolioFund{}, err
	}

	id, err := s.fundRepo.InsertPortfolioFund(ctx, portfolioID, fundID)
	if err != nil {
		return model.PortfolioFund{}, err
	}

	return model.PortfolioFund{ID: id, PortfolioID: portfolioID, FundID: fundID}, nil
}

// UnlinkFund removes a holding along with its transactions and dividends,
// and drops the portfolio's materialized history.
func (s *FundService) UnlinkFund(ctx context.Context, pfID string) error {
	pf, err := s.fundRepo.GetPortfolioFund(pfID)
	if err != nil {
		return err
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.fundRepo.WithTx(tx).DeletePortfolioFund(ctx, pfID); err != nil {
			return err
		}
		return s.materializedRepo.WithTx(tx).DeleteForPortfolio(ctx, pf.PortfolioID)
	})
}

// invalidateHoldersOf drops materialized snapshots of every portfolio that
// holds the fund.
func (s *FundService) invalidateHoldersOf(ctx context.Context, tx *sql.Tx, fundID string) error {
	query := `SELECT DISTINCT portfolio_id FROM portfolio_fund WHERE fund_id = ?`

	rows, err := tx.QueryContext(ctx, query, fundID)
	if err != nil {
		return err
	}
	defer rows.Close()

	portfolioIDs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		portfolioIDs = append(portfolioIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range portfolioIDs {
		if err := s.materializedRepo.WithTx(tx).DeleteForPortfolio(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
