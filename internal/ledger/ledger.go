// Package ledger implements the position and cost-basis engine for a single
// holding. It replays an ordered transaction stream into a running position
// using the weighted-average-cost model: one pooled average cost per holding,
// no per-lot tracking.
//
// The package is pure: it never touches the database, which is what makes the
// replay logic unit-testable without fixtures. All arithmetic is float64; the
// Epsilon tolerance absorbs the drift that repeated average-cost division
// introduces, so a fully sold position always snaps back to exactly zero
// shares and zero cost basis.
package ledger

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/model"
)

// Epsilon is the share-count tolerance below which a position is considered
// fully closed. Positions with |shares| < Epsilon snap to zero shares and
// zero cost basis.
const Epsilon = 1e-7

// Position is the running state of one holding: share count and pooled cost
// basis. The zero value is a valid empty position.
type Position struct {
	Shares    float64
	CostBasis float64
}

// AverageCost returns the pooled average acquisition cost per share, or 0
// for an empty position.
func (p Position) AverageCost() float64 {
	if p.Shares <= 0 {
		return 0
	}
	return p.CostBasis / p.Shares
}

// SaleResult records the realized gain or loss recognized by one sell:
// proceeds minus the average acquisition cost of the shares sold.
type SaleResult struct {
	TransactionID string
	Date          time.Time
	SharesSold    float64
	CostBasis     float64 // average cost removed from the position
	Proceeds      float64 // shares sold * sale price
	GainLoss      float64 // Proceeds - CostBasis
}

// Apply folds a single transaction into the position.
//
// Buys and dividend reinvestments add shares at the transaction price. Sells
// remove shares at the current average cost — never at the sale price: the
// cost basis shrinks by what the sold shares originally cost, and the
// difference to the proceeds is the realized gain. A sell that the position
// cannot cover fails with apperrors.ErrInsufficientShares and leaves the
// position unchanged.
func (p *Position) Apply(tx model.Transaction) (*SaleResult, error) {
	switch tx.Type {
	case model.TransactionBuy, model.TransactionDividendReinvestment:
		p.Shares += tx.Shares
		p.CostBasis += tx.Shares * tx.CostPerShare
		p.snap()
		return nil, nil

	case model.TransactionSell:
		if p.Shares <= 0 || tx.Shares > p.Shares+Epsilon {
			return nil, apperrors.ErrInsufficientShares
		}
		averageCost := p.CostBasis / p.Shares
		removed := averageCost * tx.Shares
		proceeds := tx.Shares * tx.CostPerShare

		p.CostBasis -= removed
		p.Shares -= tx.Shares
		p.snap()

		return &SaleResult{
			TransactionID: tx.ID,
			Date:          tx.Date,
			SharesSold:    tx.Shares,
			CostBasis:     removed,
			Proceeds:      proceeds,
			GainLoss:      proceeds - removed,
		}, nil

	default:
		return nil, fmt.Errorf("unknown transaction type %q", tx.Type)
	}
}

// snap zeroes out float drift once a position is fully closed.
func (p *Position) snap() {
	if math.Abs(p.Shares) < Epsilon {
		p.Shares = 0
		p.CostBasis = 0
	}
}

// Replay folds all transactions dated on or before asOf into a fresh
// position, in chronological order with ties broken by creation order.
// It returns the resulting position and one SaleResult per sell.
//
// Replaying to a date in one pass and applying the same transactions
// day by day produce identical positions; the history aggregation relies on
// that equivalence.
func Replay(transactions []model.Transaction, asOf time.Time) (Position, []SaleResult, error) {
	sorted := Sort(transactions)

	var pos Position
	var sales []SaleResult
	for _, tx := range sorted {
		if tx.Date.After(asOf) {
			break
		}
		sale, err := pos.Apply(tx)
		if err != nil {
			return Position{}, nil, fmt.Errorf("transaction %s on %s: %w", tx.ID, tx.Date.Format("2006-01-02"), err)
		}
		if sale != nil {
			sales = append(sales, *sale)
		}
	}
	return pos, sales, nil
}

// ReplayAll replays the complete transaction sequence regardless of date.
func ReplayAll(transactions []model.Transaction) (Position, []SaleResult, error) {
	if len(transactions) == 0 {
		return Position{}, nil, nil
	}
	latest := transactions[0].Date
	for _, tx := range transactions[1:] {
		if tx.Date.After(latest) {
			latest = tx.Date
		}
	}
	return Replay(transactions, latest)
}

// SharesOwnedAt returns the share count of the holding on the given date.
// Buys and dividend reinvestments count additively, sells subtractively.
func SharesOwnedAt(transactions []model.Transaction, date time.Time) (float64, error) {
	pos, _, err := Replay(transactions, date)
	if err != nil {
		return 0, err
	}
	return pos.Shares, nil
}

// Sort returns a copy of transactions ordered by (date, creation time).
// The sort is stable, so transactions sharing both fall back to insertion
// order — the same tie-break the incremental day-by-day walk uses.
func Sort(transactions []model.Transaction) []model.Transaction {
	sorted := slices.Clone(transactions)
	slices.SortStableFunc(sorted, func(a, b model.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return sorted
}
