package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/mdehaan/portfolio-engine/internal/ledger"
	"github.com/mdehaan/portfolio-engine/internal/model"
	"github.com/mdehaan/portfolio-engine/internal/repository"
)

// TransactionService handles transaction reads and the mutations that change
// a holding's ledger. Every mutation re-derives the holding's realized gains
// from a fresh replay and invalidates the portfolio's materialized history,
// all inside one database transaction: either the whole change lands or none
// of it does.
type TransactionService struct {
	db               *sql.DB
	transactionRepo  *repository.TransactionRepository
	fundRepo         *repository.FundRepository
	realizedRepo     *repository.RealizedGainLossRepository
	materializedRepo *repository.MaterializedRepository
}

// NewTransactionService creates a new TransactionService with the provided dependencies.
func NewTransactionService(
	db *sql.DB,
	transactionRepo *repository.TransactionRepository,
	fundRepo *repository.FundRepository,
	realizedRepo *repository.RealizedGainLossRepository,
	materializedRepo *repository.MaterializedRepository,
) *TransactionService {
	return &TransactionService{
		db:               db,
		transactionRepo:  transactionRepo,
		fundRepo:         fundRepo,
		realizedRepo:     realizedRepo,
		materializedRepo: materializedRepo,
	}
}

// GetTransactions retrieves transactions with fund names, optionally filtered
// to one portfolio.
func (s *TransactionService) GetTransactions(portfolioID string) ([]model.TransactionResponse, error) {
	return s.transactionRepo.GetTransactionsPerPortfolio(portfolioID)
}

// GetTransaction retrieves a single transaction by ID.
func (s *TransactionService) GetTransaction(transactionID string) (model.Transaction, error) {
	return s.transactionRepo.GetTransaction(transactionID)
}

// CreateTransaction records a new transaction against a holding.
//
// The insert, the replay of the holding's full ledger, the rewrite of its
// realized gains and the materialized-history invalidation run in one
// database transaction. A sell the position cannot cover fails the replay
// with ErrInsufficientShares and rolls everything back.
func (s *TransactionService) CreateTransaction(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	pf, err := s.fundRepo.GetPortfolioFund(t.PortfolioFundID)
	if err != nil {
		return model.Transaction{}, err
	}

	t.ID = uuid.New().String()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.transactionRepo.WithTx(tx).InsertTransaction(ctx, t); err != nil {
			return err
		}
		return s.rebuildHolding(ctx, tx, pf)
	})
	if err != nil {
		return model.Transaction{}, err
	}

	return t, nil
}

// UpdateTransaction changes a transaction's date, type, shares or cost per
// share and re-derives the holding's state, atomically.
func (s *TransactionService) UpdateTransaction(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	existing, err := s.transactionRepo.GetTransaction(t.ID)
	if err != nil {
		return model.Transaction{}, err
	}

	pf, err := s.fundRepo.GetPortfolioFund(existing.PortfolioFundID)
	if err != nil {
		return model.Transaction{}, err
	}
	t.PortfolioFundID = existing.PortfolioFundID

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.transactionRepo.WithTx(tx).UpdateTransaction(ctx, t); err != nil {
			return err
		}
		return s.rebuildHolding(ctx, tx, pf)
	})
	if err != nil {
		return model.Transaction{}, err
	}

	return t, nil
}

// DeleteTransaction removes a transaction and re-derives the holding's state,
// atomically. Deleting a buy that later sells depend on fails the replay and
// rolls back.
func (s *TransactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	existing, err := s.transactionRepo.GetTransaction(transactionID)
	if err != nil {
		return err
	}

	pf, err := s.fundRepo.GetPortfolioFund(existing.PortfolioFundID)
	if err != nil {
		return err
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.transactionRepo.WithTx(tx).DeleteTransaction(ctx, transactionID); err != nil {
			return err
		}
		return s.rebuildHolding(ctx, tx, pf)
	})
}

// rebuildHolding replays the holding's complete ledger inside tx, rewrites
// its realized gain records from the replay, and drops the portfolio's
// materialized snapshots. Replay failure aborts the enclosing transaction.
func (s *TransactionService) rebuildHolding(ctx context.Context, tx *sql.Tx, pf model.PortfolioFund) error {
	transactions, err := s.transactionRepo.WithTx(tx).GetTransactionsForPortfolioFund(pf.ID)
	if err != nil {
		return err
	}

	_, sales, err := ledger.ReplayAll(transactions)
	if err != nil {
		return err
	}

	records := make([]model.RealizedGainLoss, len(sales))
	for i, sale := range sales {
		records[i] = model.RealizedGainLoss{
			PortfolioID:      pf.PortfolioID,
			FundID:           pf.FundID,
			TransactionID:    sale.TransactionID,
			TransactionDate:  sale.Date,
			SharesSold:       sale.SharesSold,
			CostBasis:        sale.CostBasis,
			SaleProceeds:     sale.Proceeds,
			RealizedGainLoss: sale.GainLoss,
		}
	}

	if err := s.realizedRepo.WithTx(tx).ReplaceForHolding(ctx, pf.PortfolioID, pf.FundID, records); err != nil {
		return err
	}

	return s.materializedRepo.WithTx(tx).DeleteForPortfolio(ctx, pf.PortfolioID)
}

