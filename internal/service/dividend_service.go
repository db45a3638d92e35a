package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/ledger"
	"github.com/mdehaan/portfolio-engine/internal/model"
	"github.com/mdehaan/portfolio-engine/internal/repository"
)

// DividendService handles the dividend lifecycle. Cash dividends are paid
// out and stay in the not_applicable reinvestment state forever. Stock
// dividends start pending and complete once reinvestment shares and price
// are supplied, at which point a dividend_reinvestment transaction is
// created on the buy order date and linked back to the dividend.
type DividendService struct {
	db               *sql.DB
	dividendRepo     *repository.DividendRepository
	transactionRepo  *repository.TransactionRepository
	fundRepo         *repository.FundRepository
	realizedRepo     *repository.RealizedGainLossRepository
	materializedRepo *repository.MaterializedRepository
}

// NewDividendService creates a new DividendService with the provided dependencies.
func NewDividendService(
	db *sql.DB,
	dividendRepo *repository.DividendRepository,
	transactionRepo *repository.TransactionRepository,
	fundRepo *repository.FundRepository,
	realizedRepo *repository.RealizedGainLossRepository,
	materializedRepo *repository.MaterializedRepository,
) *DividendService {
	return &DividendService{
		db:               db,
		dividendRepo:     dividendRepo,
		transactionRepo:  transactionRepo,
		fundRepo:         fundRepo,
		realizedRepo:     realizedRepo,
		materializedRepo: materializedRepo,
	}
}

// Reinvestment carries the optional reinvestment details of a dividend
// mutation. Pointers distinguish "absent" from an explicit zero; a zero
// value is rejected by validation, never treated as absent.
type Reinvestment struct {
	Shares *float64
	Price  *float64
}

func (r Reinvestment) present() bool {
	return r.Shares != nil && r.Price != nil
}

func (r Reinvestment) partial() bool {
	return (r.Shares != nil) != (r.Price != nil)
}

// GetDividends retrieves dividends with fund names, optionally filtered to
// one portfolio.
func (s *DividendService) GetDividends(portfolioID string) ([]model.DividendResponse, error) {
	return s.dividendRepo.GetDividendsPerPortfolio(portfolioID)
}

// GetDividend retrieves a single dividend by ID.
func (s *DividendService) GetDividend(dividendID string) (model.Dividend, error) {
	return s.dividendRepo.GetDividend(dividendID)
}

// CreateDividend records a dividend entitlement for a holding.
//
// SharesOwned is always derived from the holding's ledger on the record
// date, never taken from the caller, and TotalAmount is SharesOwned times
// DividendPerShare. A cash dividend must not carry reinvestment details; a
// stock dividend must carry a buy order date and may complete immediately
// when reinvestment shares and price are both supplied.
func (s *DividendService) CreateDividend(ctx context.Context, d model.Dividend, reinvest Reinvestment) (model.Dividend, error) {
	pf, err := s.fundRepo.GetPortfolioFund(d.PortfolioFundID)
	if err != nil {
		return model.Dividend{}, err
	}

	if reinvest.partial() {
		return model.Dividend{}, apperrors.ErrInvalidReinvestment
	}

	switch d.Kind {
	case model.DividendCash:
		if reinvest.present() || d.BuyOrderDate != nil {
			return model.Dividend{}, apperrors.ErrInvalidReinvestment
		}
		d.ReinvestmentStatus = model.ReinvestmentNotApplicable

	case model.DividendStock:
		if d.BuyOrderDate == nil {
			return model.Dividend{}, apperrors.ErrInvalidReinvestment
		}
		d.ReinvestmentStatus = model.ReinvestmentPending

	default:
		return model.Dividend{}, fmt.Errorf("unknown dividend kind %q", d.Kind)
	}

	d.ID = uuid.New().String()
	d.FundID = pf.FundID

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		transactions, err := s.transactionRepo.WithTx(tx).GetTransactionsForPortfolioFund(pf.ID)
		if err != nil {
			return err
		}

		shares, err := ledger.SharesOwnedAt(transactions, d.RecordDate)
		if err != nil {
			return err
		}
		d.SharesOwned = shares
		d.TotalAmount = round(shares * d.DividendPerShare)

		if reinvest.present() {
			if err := s.completeReinvestment(ctx, tx, &d, reinvest); err != nil {
				return err
			}
		}

		if err := s.dividendRepo.WithTx(tx).InsertDividend(ctx, d); err != nil {
			return err
		}

		return s.rebuildHolding(ctx, tx, pf)
	})
	if err != nil {
		return model.Dividend{}, err
	}

	return d, nil
}

// UpdateDividend changes a dividend's dates, rate or reinvestment details.
//
// A record date change re-derives SharesOwned from the ledger. Supplying
// reinvestment details on a pending stock dividend completes it; on an
// already completed dividend the linked reinvestment transaction is updated
// in place.
func (s *DividendService) UpdateDividend(ctx context.Context, d model.Dividend, reinvest Reinvestment) (model.Dividend, error) {
	existing, err := s.dividendRepo.GetDividend(d.ID)
	if err != nil {
		return model.Dividend{}, err
	}

	pf, err := s.fundRepo.GetPortfolioFund(existing.PortfolioFundID)
	if err != nil {
		return model.Dividend{}, err
	}

	if reinvest.partial() {
		return model.Dividend{}, apperrors.ErrInvalidReinvestment
	}
	if existing.Kind == model.DividendCash && (reinvest.present() || d.BuyOrderDate != nil) {
		return model.Dividend{}, apperrors.ErrInvalidReinvestment
	}
	if existing.Kind == model.DividendStock && d.BuyOrderDate == nil {
		return model.Dividend{}, apperrors.ErrInvalidReinvestment
	}

	// Kind and linkage are immutable; carry them over.
	d.PortfolioFundID = existing.PortfolioFundID
	d.FundID = existing.FundID
	d.Kind = existing.Kind
	d.ReinvestmentStatus = existing.ReinvestmentStatus
	d.ReinvestmentTransactionID = existing.ReinvestmentTransactionID

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		transactions, err := s.transactionRepo.WithTx(tx).GetTransactionsForPortfolioFund(pf.ID)
		if err != nil {
			return err
		}

		// Shares owned depend only on ledger entries other than the
		// reinvestment itself, which is dated on or after the buy order date
		// and so never precedes the record date.
		shares, err := ledger.SharesOwnedAt(transactions, d.RecordDate)
		if err != nil {
			return err
		}
		d.SharesOwned = shares
		d.TotalAmount = round(shares * d.DividendPerShare)

		if reinvest.present() {
			switch d.ReinvestmentStatus {
			case model.ReinvestmentPending:
				if err := s.completeReinvestment(ctx, tx, &d, reinvest); err != nil {
					return err
				}
			case model.ReinvestmentCompleted:
				if err := s.transactionRepo.WithTx(tx).UpdateTransaction(ctx, model.Transaction{
					ID:              d.ReinvestmentTransactionID,
					PortfolioFundID: d.PortfolioFundID,
					Date:            *d.BuyOrderDate,
					Type:            model.TransactionDividendReinvestment,
					Shares:          *reinvest.Shares,
					CostPerShare:    *reinvest.Price,
				}); err != nil {
					return err
				}
			default:
				return apperrors.ErrInvalidReinvestment
			}
		}

		if err := s.dividendRepo.WithTx(tx).UpdateDividend(ctx, d); err != nil {
			return err
		}

		return s.rebuildHolding(ctx, tx, pf)
	})
	if err != nil {
		return model.Dividend{}, err
	}

	return d, nil
}

// DeleteDividend removes a dividend. A completed dividend's reinvestment
// transaction is removed with it, and the holding's derived state rebuilt.
func (s *DividendService) DeleteDividend(ctx context.Context, dividendID string) error {
	existing, err := s.dividendRepo.GetDividend(dividendID)
	if err != nil {
		return err
	}

	pf, err := s.fundRepo.GetPortfolioFund(existing.PortfolioFundID)
	if err != nil {
		return err
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.dividendRepo.WithTx(tx).DeleteDividend(ctx, dividendID); err != nil {
			return err
		}

		if existing.ReinvestmentTransactionID != "" {
			if err := s.transactionRepo.WithTx(tx).DeleteTransaction(ctx, existing.ReinvestmentTransactionID); err != nil {
				return err
			}
		}

		return s.rebuildHolding(ctx, tx, pf)
	})
}

// completeReinvestment creates the dividend_reinvestment ledger entry on the
// buy order date and links it to the dividend, moving it to completed.
func (s *DividendService) completeReinvestment(ctx context.Context, tx *sql.Tx, d *model.Dividend, reinvest Reinvestment) error {
	if *reinvest.Shares <= 0 || *reinvest.Price <= 0 {
		return apperrors.ErrInvalidReinvestment
	}

	reinvestTx := model.Transaction{
		ID:              uuid.New().String(),
		PortfolioFundID: d.PortfolioFundID,
		Date:            *d.BuyOrderDate,
		Type:            model.TransactionDividendReinvestment,
		Shares:          *reinvest.Shares,
		CostPerShare:    *reinvest.Price,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.transactionRepo.WithTx(tx).InsertTransaction(ctx, reinvestTx); err != nil {
		return err
	}

	d.ReinvestmentTransactionID = reinvestTx.ID
	d.ReinvestmentStatus = model.ReinvestmentCompleted
	return nil
}

// rebuildHolding mirrors TransactionService.rebuildHolding: reinvestment
// transactions are ledger entries, so dividend mutations invalidate the same
// derived state.
func (s *DividendService) rebuildHolding(ctx context.Context, tx *sql.Tx, pf model.PortfolioFund) error {
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

