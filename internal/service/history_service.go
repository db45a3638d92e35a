package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/ledger"
	"github.com/mdehaan/portfolio-engine/internal/model"
	"github.com/mdehaan/portfolio-engine/internal/repository"
)

// HistoryService produces day-by-day portfolio valuations. Reads are served
// from the materialized snapshot table when it fully covers the requested
// range; otherwise the history is computed on demand from the ledger.
type HistoryService struct {
	portfolioRepo    *repository.PortfolioRepository
	materializedRepo *repository.MaterializedRepository
	loader           *DataLoaderService
}

// NewHistoryService creates a new HistoryService with the provided dependencies.
func NewHistoryService(
	portfolioRepo *repository.PortfolioRepository,
	materializedRepo *repository.MaterializedRepository,
	loader *DataLoaderService,
) *HistoryService {
	return &HistoryService{
		portfolioRepo:    portfolioRepo,
		materializedRepo: materializedRepo,
		loader:           loader,
	}
}

// GetPortfolioHistory returns one entry per calendar day in [startDate,
// endDate], each holding the valuation of every requested portfolio on that
// day. If portfolioID is empty, all portfolios matching the filter are
// included; an unknown portfolioID yields an empty history rather than an
// error.
//
// Days before the first transaction carry zero positions; the walk starts at
// the oldest transaction even when the display range starts earlier, because
// a position on any day is a function of the complete prior ledger.
func (s *HistoryService) GetPortfolioHistory(portfolioID string, filter model.PortfolioFilter, startDate, endDate time.Time) ([]model.PortfolioHistory, error) {
	if startDate.After(endDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	portfolios, err := s.resolvePortfolios(portfolioID, filter)
	if err != nil {
		return nil, err
	}
	if len(portfolios) == 0 {
		return []model.PortfolioHistory{}, nil
	}

	// Serve from snapshots when they fully cover the range.
	if history, ok := s.historyFromSnapshots(portfolios, startDate, endDate); ok {
		return history, nil
	}

	return s.computeHistory(portfolios, startDate, endDate)
}

// GetPortfolioSummaries returns today's valuation of each portfolio matching
// the filter.
func (s *HistoryService) GetPortfolioSummaries(filter model.PortfolioFilter) ([]model.PortfolioSummary, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	portfolios, err := s.resolvePortfolios("", filter)
	if err != nil {
		return nil, err
	}
	if len(portfolios) == 0 {
		return []model.PortfolioSummary{}, nil
	}

	history, err := s.computeHistory(portfolios, today, today)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return []model.PortfolioSummary{}, nil
	}

	return history[len(history)-1].Portfolios, nil
}

// Refresh recomputes the materialized snapshot table for every portfolio,
// archived ones included, from the oldest transaction through today. The
// nightly job and the system endpoint call this.
func (s *HistoryService) Refresh(ctx context.Context) error {
	start := time.Now()

	portfolios, err := s.portfolioRepo.GetPortfolios(model.PortfolioFilter{
		IncludeArchived: true,
		IncludeExcluded: true,
	})
	if err != nil {
		return fmt.Errorf("failed to load portfolios for refresh: %w", err)
	}
	if len(portfolios) == 0 {
		return nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	data, err := s.loader.LoadForPortfolios(portfolios, today, today)
	if err != nil {
		return err
	}
	if data.OldestTransactionDate.IsZero() {
		return nil
	}

	history, err := s.walk(portfolios, data, data.OldestTransactionDate, today)
	if err != nil {
		return err
	}

	snapshots := make([]model.PortfolioHistoryMaterialized, 0, len(history)*len(portfolios))
	for _, day := range history {
		date, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			return fmt.Errorf("failed to parse history date: %w", err)
		}
		for _, summary := range day.Portfolios {
			snapshots = append(snapshots, model.PortfolioHistoryMaterialized{
				PortfolioID:    summary.ID,
				Date:           date,
				Value:          summary.TotalValue,
				Cost:           summary.TotalCost,
				TotalDividends: summary.TotalDividends,
				UnrealizedGain: summary.TotalUnrealizedGainLoss,
				RealizedGain:   summary.TotalRealizedGainLoss,
			})
		}
	}

	if err := s.materializedRepo.UpsertSnapshots(ctx, snapshots); err != nil {
		return err
	}

	log.Printf("Materialized history refreshed: %d snapshots across %d portfolios in %s",
		len(snapshots), len(portfolios), time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *HistoryService) resolvePortfolios(portfolioID string, filter model.PortfolioFilter) ([]model.Portfolio, error) {
	if portfolioID != "" {
		p, err := s.portfolioRepo.GetPortfolio(portfolioID)
		if err == apperrors.ErrPortfolioNotFound {
			return []model.Portfolio{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []model.Portfolio{p}, nil
	}
	return s.portfolioRepo.GetPortfolios(filter)
}

// historyFromSnapshots builds the history from the materialized table.
// Returns false when the table does not hold a snapshot for every requested
// (portfolio, day) pair, in which case the caller falls back to computing.
func (s *HistoryService) historyFromSnapshots(portfolios []model.Portfolio, startDate, endDate time.Time) ([]model.PortfolioHistory, bool) {
	portfolioIDs := make([]string, len(portfolios))
	byID := make(map[string]model.Portfolio, len(portfolios))
	for i, p := range portfolios {
		portfolioIDs[i] = p.ID
		byID[p.ID] = p
	}

	days := int(endDate.Sub(startDate).Hours()/24) + 1
	expected := days * len(portfolios)

	count, err := s.materializedRepo.CountForRange(portfolioIDs, startDate, endDate)
	if err != nil || count != expected {
		return nil, false
	}

	snapshots, err := s.materializedRepo.GetHistory(portfolioIDs, startDate, endDate)
	if err != nil {
		log.Printf("Materialized history read failed, computing on demand: %v", err)
		return nil, false
	}

	history := []model.PortfolioHistory{}
	var current *model.PortfolioHistory

	for _, snap := range snapshots {
		dateStr := snap.Date.Format("2006-01-02")
		if current == nil || current.Date != dateStr {
			history = append(history, model.PortfolioHistory{Date: dateStr})
			current = &history[len(history)-1]
		}
		p := byID[snap.PortfolioID]
		current.Portfolios = append(current.Portfolios, model.PortfolioSummary{
			ID:                      snap.PortfolioID,
			Name:                    p.Name,
			Description:             p.Description,
			TotalValue:              snap.Value,
			TotalCost:               snap.Cost,
			TotalDividends:          snap.TotalDividends,
			TotalUnrealizedGainLoss: snap.UnrealizedGain,
			TotalRealizedGainLoss:   snap.RealizedGain,
			IsArchived:              snap.IsArchived,
		})
	}

	return history, true
}

// computeHistory loads all data in one batch and walks the calendar.
func (s *HistoryService) computeHistory(portfolios []model.Portfolio, startDate, endDate time.Time) ([]model.PortfolioHistory, error) {
	data, err := s.loader.LoadForPortfolios(portfolios, startDate, endDate)
	if err != nil {
		return nil, err
	}

	if data.OldestTransactionDate.IsZero() {
		return []model.PortfolioHistory{}, nil
	}

	// The walk must start at the first transaction even when the display
	// range starts earlier or later: positions are cumulative.
	walkStart := data.OldestTransactionDate
	if startDate.Before(walkStart) {
		walkStart = startDate
	}

	history, err := s.walk(portfolios, data, walkStart, endDate)
	if err != nil {
		return nil, err
	}

	// Clamp the output to the display range.
	display := make([]model.PortfolioHistory, 0, len(history))
	startStr := startDate.Format("2006-01-02")
	for _, day := range history {
		if day.Date >= startStr {
			display = append(display, day)
		}
	}

	return display, nil
}

// pfCursor tracks the incremental replay state of one holding during the
// calendar walk.
type pfCursor struct {
	pfID        string
	portfolioID string
	fundID      string

	transactions []model.Transaction
	txIdx        int
	position     ledger.Position

	prices    []model.FundPrice
	priceIdx  int
	lastPrice float64

	dividends   []model.Dividend
	dividendIdx int
}

// walk advances every holding one day at a time from startDate through
// endDate, applying that day's transactions to the running position and
// valuing it at the last observed price on or before the day. Running
// dividend and realized-gain totals accumulate per portfolio as their
// ex-dividend and transaction dates pass.
//
// The incremental walk visits every transaction exactly once, so its cost is
// O(days + transactions) rather than O(days * transactions), and it produces
// the same positions as a full replay per day.
func (s *HistoryService) walk(portfolios []model.Portfolio, data *PortfolioData, startDate, endDate time.Time) ([]model.PortfolioHistory, error) {
	cursors := make([]*pfCursor, 0, len(data.PFIDs))
	for _, pf := range data.PortfolioFunds {
		cursors = append(cursors, &pfCursor{
			pfID:         pf.ID,
			portfolioID:  pf.PortfolioID,
			fundID:       pf.FundID,
			transactions: ledger.Sort(data.TransactionsByPF[pf.ID]),
			prices:       data.FundPricesByFund[pf.FundID],
			dividends:    data.DividendsByPF[pf.ID],
		})
	}

	// Seed price cursors with observations before the walk start.
	for _, c := range cursors {
		for c.priceIdx < len(c.prices) && c.prices[c.priceIdx].Date.Before(startDate) {
			c.lastPrice = c.prices[c.priceIdx].Price
			c.priceIdx++
		}
	}

	dividendTotals := make(map[string]float64, len(portfolios))
	realizedTotals := make(map[string]float64, len(portfolios))
	realizedIdx := make(map[string]int, len(portfolios))

	// Seed realized totals with gains recognized before the walk start.
	for _, p := range portfolios {
		gains := data.RealizedGainsByPortfolio[p.ID]
		for realizedIdx[p.ID] < len(gains) && gains[realizedIdx[p.ID]].TransactionDate.Before(startDate) {
			realizedTotals[p.ID] += gains[realizedIdx[p.ID]].RealizedGainLoss
			realizedIdx[p.ID]++
		}
	}

	history := []model.PortfolioHistory{}

	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		// Advance every holding to end-of-day state.
		for _, c := range cursors {
			for c.txIdx < len(c.transactions) && !c.transactions[c.txIdx].Date.After(day) {
				tx := c.transactions[c.txIdx]
				if _, err := c.position.Apply(tx); err != nil {
					return nil, fmt.Errorf("holding %s: transaction %s on %s: %w",
						c.pfID, tx.ID, tx.Date.Format("2006-01-02"), err)
				}
				c.txIdx++
			}
			for c.priceIdx < len(c.prices) && !c.prices[c.priceIdx].Date.After(day) {
				c.lastPrice = c.prices[c.priceIdx].Price
				c.priceIdx++
			}
			for c.dividendIdx < len(c.dividends) && !c.dividends[c.dividendIdx].ExDividendDate.After(day) {
				dividendTotals[c.portfolioID] += c.dividends[c.dividendIdx].TotalAmount
				c.dividendIdx++
			}
		}

		for _, p := range portfolios {
			gains := data.RealizedGainsByPortfolio[p.ID]
			for realizedIdx[p.ID] < len(gains) && !gains[realizedIdx[p.ID]].TransactionDate.After(day) {
				realizedTotals[p.ID] += gains[realizedIdx[p.ID]].RealizedGainLoss
				realizedIdx[p.ID]++
			}
		}

		// Aggregate holdings into per-portfolio summaries.
		values := make(map[string]float64, len(portfolios))
		costs := make(map[string]float64, len(portfolios))
		for _, c := range cursors {
			values[c.portfolioID] += c.position.Shares * c.lastPrice
			costs[c.portfolioID] += c.position.CostBasis
		}

		entry := model.PortfolioHistory{Date: day.Format("2006-01-02")}
		for _, p := range portfolios {
			entry.Portfolios = append(entry.Portfolios, model.PortfolioSummary{
				ID:                      p.ID,
				Name:                    p.Name,
				Description:             p.Description,
				TotalValue:              round(values[p.ID]),
				TotalCost:               round(costs[p.ID]),
				TotalDividends:          round(dividendTotals[p.ID]),
				TotalUnrealizedGainLoss: round(values[p.ID] - costs[p.ID]),
				TotalRealizedGainLoss:   round(realizedTotals[p.ID]),
				IsArchived:              p.IsArchived,
			})
		}
		history = append(history, entry)
	}

	return history, nil
}
