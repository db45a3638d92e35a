package service

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mdehaan/portfolio-engine/internal/model"
)

// Narrow data-source interfaces for the loader. The repositories satisfy them
// directly; tests substitute counting stubs to pin down the query count.
type portfolioFundSource interface {
	GetPortfolioFunds(portfolioIDs []string) ([]model.PortfolioFund, error)
}

type transactionSource interface {
	GetTransactions(pfIDs []string, endDate time.Time) (map[string][]model.Transaction, error)
	GetOldestTransactionDate(pfIDs []string) time.Time
}

type dividendSource interface {
	GetDividends(pfIDs []string, endDate time.Time) (map[string][]model.Dividend, error)
}

type priceSource interface {
	GetFundPrices(fundIDs []string, startDate, endDate time.Time) (map[string][]model.FundPrice, error)
}

type realizedGainSource interface {
	GetRealizedGains(portfolioIDs []string, endDate time.Time) (map[string][]model.RealizedGainLoss, error)
}

// DataLoaderService centralizes the loading of all data required for
// portfolio calculations. Each dataset is fetched in one batched query
// covering every requested portfolio, so the number of queries per load is
// fixed no matter how many portfolios, holdings or days are involved.
type DataLoaderService struct {
	portfolioFunds portfolioFundSource
	transactions   transactionSource
	dividends      dividendSource
	prices         priceSource
	realizedGains  realizedGainSource
}

// NewDataLoaderService creates a new DataLoaderService with the provided data sources.
func NewDataLoaderService(
	portfolioFunds portfolioFundSource,
	transactions transactionSource,
	dividends dividendSource,
	prices priceSource,
	realizedGains realizedGainSource,
) *DataLoaderService {
	return &DataLoaderService{
		portfolioFunds: portfolioFunds,
		transactions:   transactions,
		dividends:      dividends,
		prices:         prices,
		realizedGains:  realizedGains,
	}
}

// PortfolioData contains all data needed for portfolio calculations over a
// date range, organized by portfolio fund ID.
//
// Transactions, dividends and realized gains always cover the COMPLETE
// history up to the range end: position replay depends on every prior
// transaction, so there is no start-date cutoff on those datasets. Prices are
// loaded from one year before the range start so the last-observed-price
// lookup has data for range starts that fall in a price gap.
type PortfolioData struct {
	PortfolioFunds           []model.PortfolioFund
	PFIDs                    []string
	FundIDs                  []string
	OldestTransactionDate    time.Time
	TransactionsByPF         map[string][]model.Transaction
	DividendsByPF            map[string][]model.Dividend
	FundPricesByFund         map[string][]model.FundPrice
	RealizedGainsByPortfolio map[string][]model.RealizedGainLoss
	PortfolioFundToPortfolio map[string]string
	PortfolioFundToFund      map[string]string
}

// priceLookback is how far before the requested range prices are loaded, so
// a range starting inside a price gap still finds the prior observation.
const priceLookback = 365 * 24 * time.Hour

// LoadForPortfolios loads all data required for calculations across the given
// portfolios. The four time-series datasets are independent, so they are
// fetched concurrently.
//
// Returns an empty PortfolioData if no portfolios are given or none of them
// hold funds.
func (s *DataLoaderService) LoadForPortfolios(
	portfolios []model.Portfolio,
	startDate, endDate time.Time,
) (*PortfolioData, error) {
	if len(portfolios) == 0 {
		return &PortfolioData{}, nil
	}

	portfolioIDs := make([]string, len(portfolios))
	for i, p := range portfolios {
		portfolioIDs[i] = p.ID
	}

	portfolioFunds, err := s.portfolioFunds.GetPortfolioFunds(portfolioIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio funds: %w", err)
	}

	pfToPortfolio := make(map[string]string, len(portfolioFunds))
	pfToFund := make(map[string]string, len(portfolioFunds))
	pfIDs := make([]string, 0, len(portfolioFunds))
	fundIDSet := make(map[string]bool)
	fundIDs := []string{}

	for _, pf := range portfolioFunds {
		pfToPortfolio[pf.ID] = pf.PortfolioID
		pfToFund[pf.ID] = pf.FundID
		pfIDs = append(pfIDs, pf.ID)
		if !fundIDSet[pf.FundID] {
			fundIDSet[pf.FundID] = true
			fundIDs = append(fundIDs, pf.FundID)
		}
	}

	if len(pfIDs) == 0 {
		return &PortfolioData{
			PortfolioFunds:           portfolioFunds,
			PortfolioFundToPortfolio: pfToPortfolio,
			PortfolioFundToFund:      pfToFund,
		}, nil
	}

	oldestTxDate := s.transactions.GetOldestTransactionDate(pfIDs)

	data := &PortfolioData{
		PortfolioFunds:           portfolioFunds,
		PFIDs:                    pfIDs,
		FundIDs:                  fundIDs,
		OldestTransactionDate:    oldestTxDate,
		PortfolioFundToPortfolio: pfToPortfolio,
		PortfolioFundToFund:      pfToFund,
	}

	var g errgroup.Group

	g.Go(func() error {
		byPF, err := s.transactions.GetTransactions(pfIDs, endDate)
		if err != nil {
			return fmt.Errorf("failed to load transactions: %w", err)
		}
		data.TransactionsByPF = byPF
		return nil
	})

	g.Go(func() error {
		byPF, err := s.dividends.GetDividends(pfIDs, endDate)
		if err != nil {
			return fmt.Errorf("failed to load dividends: %w", err)
		}
		data.DividendsByPF = byPF
		return nil
	})

	// The calendar walk starts at the oldest transaction even when the
	// requested range starts later, so the price window must too.
	priceStart := startDate
	if !oldestTxDate.IsZero() && oldestTxDate.Before(priceStart) {
		priceStart = oldestTxDate
	}

	g.Go(func() error {
		byFund, err := s.prices.GetFundPrices(fundIDs, priceStart.Add(-priceLookback), endDate)
		if err != nil {
			return fmt.Errorf("failed to load fund prices: %w", err)
		}
		data.FundPricesByFund = byFund
		return nil
	})

	g.Go(func() error {
		byPortfolio, err := s.realizedGains.GetRealizedGains(portfolioIDs, endDate)
		if err != nil {
			return fmt.Errorf("failed to load realized gains: %w", err)
		}
		data.RealizedGainsByPortfolio = byPortfolio
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return data, nil
}
