package ledger_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/ledger"
	"github.com/mdehaan/portfolio-engine/internal/model"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func tx(id, day string, txType model.TransactionType, shares, price float64) model.Transaction {
	return model.Transaction{
		ID:            id,
		Date:          date(day),
		Type:          txType,
		Shares:        shares,
		CostPerShare: price,
		CreatedAt:     date(day),
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// TestReplay_BuyOnly tests that buy-only sequences produce straightforward sums.
//
// WHY: The simplest ledger invariant: with no sells, shares and cost basis are
// plain sums and the average cost is total cost over total shares.
func TestReplay_BuyOnly(t *testing.T) {
	txs := []model.Transaction{
		tx("t1", "2024-01-01", model.TransactionBuy, 100, 10),
		tx("t2", "2024-02-01", model.TransactionBuy, 50, 12),
	}

	pos, sales, err := ledger.Replay(txs, date("2024-12-31"))
	if err != nil {
		t.Fatalf("Replay() returned unexpected error: %v", err)
	}

	if len(sales) != 0 {
		t.Errorf("Expected no sale results, got %d", len(sales))
	}
	if !almostEqual(pos.Shares, 150) {
		t.Errorf("Expected 150 shares, got %f", pos.Shares)
	}
	if !almostEqual(pos.CostBasis, 1600) {
		t.Errorf("Expected cost basis 1600, got %f", pos.CostBasis)
	}
	if !almostEqual(pos.AverageCost(), 1600.0/150.0) {
		t.Errorf("Expected average cost %f, got %f", 1600.0/150.0, pos.AverageCost())
	}
}

// TestReplay_SellUsesAverageCost tests that sells reduce the cost basis by
// the average acquisition cost of the shares sold, not by the sale proceeds.
//
// WHY: Reducing cost basis by proceeds instead of average cost was a real
// financial-correctness defect: it understates the remaining basis and
// misstates every later gain. Buy 100@$10, sell 30@$15 must leave 70 shares
// at basis 700 with a realized gain of 150.
func TestReplay_SellUsesAverageCost(t *testing.T) {
	txs := []model.Transaction{
		tx("buy1", "2024-01-01", model.TransactionBuy, 100, 10),
		tx("sell1", "2024-03-01", model.TransactionSell, 30, 15),
	}

	pos, sales, err := ledger.Replay(txs, date("2024-12-31"))
	if err != nil {
		t.Fatalf("Replay() returned unexpected error: %v", err)
	}

	if !almostEqual(pos.Shares, 70) {
		t.Errorf("Expected 70 shares, got %f", pos.Shares)
	}
	if !almostEqual(pos.CostBasis, 700) {
		t.Errorf("Expected cost basis 700, got %f", pos.CostBasis)
	}
	if !almostEqual(pos.AverageCost(), 10) {
		t.Errorf("Expected average cost 10, got %f", pos.AverageCost())
	}

	if len(sales) != 1 {
		t.Fatalf("Expected 1 sale result, got %d", len(sales))
	}
	sale := sales[0]
	if sale.TransactionID != "sell1" {
		t.Errorf("Expected sale for sell1, got %s", sale.TransactionID)
	}
	if !almostEqual(sale.CostBasis, 300) {
		t.Errorf("Expected cost basis removed 300, got %f", sale.CostBasis)
	}
	if !almostEqual(sale.Proceeds, 450) {
		t.Errorf("Expected proceeds 450, got %f", sale.Proceeds)
	}
	if !almostEqual(sale.GainLoss, 150) {
		t.Errorf("Expected realized gain 150, got %f", sale.GainLoss)
	}
}

// TestReplay_InsufficientShares tests that overselling fails and is never clamped.
func TestReplay_InsufficientShares(t *testing.T) {
	t.Run("sell exceeding held shares fails", func(t *testing.T) {
		txs := []model.Transaction{
			tx("buy1", "2024-01-01", model.TransactionBuy, 10, 10),
			tx("sell1", "2024-02-01", model.TransactionSell, 11, 10),
		}

		_, _, err := ledger.Replay(txs, date("2024-12-31"))
		if !errors.Is(err, apperrors.ErrInsufficientShares) {
			t.Errorf("Expected ErrInsufficientShares, got %v", err)
		}
	})

	t.Run("sell from empty position fails", func(t *testing.T) {
		txs := []model.Transaction{
			tx("sell1", "2024-02-01", model.TransactionSell, 1, 10),
		}

		_, _, err := ledger.Replay(txs, date("2024-12-31"))
		if !errors.Is(err, apperrors.ErrInsufficientShares) {
			t.Errorf("Expected ErrInsufficientShares, got %v", err)
		}
	})

	t.Run("failed apply leaves position unchanged", func(t *testing.T) {
		pos := ledger.Position{Shares: 10, CostBasis: 100}

		_, err := pos.Apply(tx("sell1", "2024-02-01", model.TransactionSell, 20, 10))
		if !errors.Is(err, apperrors.ErrInsufficientShares) {
			t.Fatalf("Expected ErrInsufficientShares, got %v", err)
		}
		if pos.Shares != 10 || pos.CostBasis != 100 {
			t.Errorf("Position changed after failed sell: %+v", pos)
		}
	})
}

// TestReplay_DividendReinvestment tests that reinvested dividends count
// additively toward the share count on any later date.
func TestReplay_DividendReinvestment(t *testing.T) {
	txs := []model.Transaction{
		tx("buy1", "2024-01-01", model.TransactionBuy, 100, 10),
		tx("reinv1", "2024-02-01", model.TransactionDividendReinvestment, 5, 11),
	}

	shares, err := ledger.SharesOwnedAt(txs, date("2024-03-01"))
	if err != nil {
		t.Fatalf("SharesOwnedAt() returned unexpected error: %v", err)
	}
	if !almostEqual(shares, 105) {
		t.Errorf("Expected 105 shares on record date, got %f", shares)
	}

	// Before the reinvestment only the buy counts.
	shares, err = ledger.SharesOwnedAt(txs, date("2024-01-15"))
	if err != nil {
		t.Fatalf("SharesOwnedAt() returned unexpected error: %v", err)
	}
	if !almostEqual(shares, 100) {
		t.Errorf("Expected 100 shares before reinvestment, got %f", shares)
	}
}

// TestReplay_FullSaleSnapsToZero tests the epsilon cleanup.
//
// WHY: Repeated average-cost division leaves sub-epsilon float residue after
// selling an entire position. The position must snap to exactly zero shares
// and zero cost basis so later buys start from a clean slate.
func TestReplay_FullSaleSnapsToZero(t *testing.T) {
	txs := []model.Transaction{
		tx("buy1", "2024-01-01", model.TransactionBuy, 3, 9.99),
		tx("buy2", "2024-01-02", model.TransactionBuy, 7, 10.37),
		tx("sell1", "2024-02-01", model.TransactionSell, 4.3333333, 11),
		tx("sell2", "2024-03-01", model.TransactionSell, 5.6666667, 11),
	}

	pos, _, err := ledger.Replay(txs, date("2024-12-31"))
	if err != nil {
		t.Fatalf("Replay() returned unexpected error: %v", err)
	}
	if pos.Shares != 0 {
		t.Errorf("Expected exactly 0 shares after full sale, got %g", pos.Shares)
	}
	if pos.CostBasis != 0 {
		t.Errorf("Expected exactly 0 cost basis after full sale, got %g", pos.CostBasis)
	}
}

// TestReplay_AsOfDateFiltering tests that transactions after the as-of date
// are ignored.
func TestReplay_AsOfDateFiltering(t *testing.T) {
	txs := []model.Transaction{
		tx("buy1", "2024-01-01", model.TransactionBuy, 100, 10),
		tx("sell1", "2024-06-01", model.TransactionSell, 40, 12),
	}

	pos, sales, err := ledger.Replay(txs, date("2024-03-01"))
	if err != nil {
		t.Fatalf("Replay() returned unexpected error: %v", err)
	}
	if !almostEqual(pos.Shares, 100) {
		t.Errorf("Expected 100 shares as of March, got %f", pos.Shares)
	}
	if len(sales) != 0 {
		t.Errorf("Expected no sales as of March, got %d", len(sales))
	}
}

// TestReplay_SameDayOrdering tests the (date, creation order) tie-break.
//
// WHY: A same-day buy and sell must apply in creation order. If the sell were
// applied first it would fail with insufficient shares even though the ledger
// is perfectly valid.
func TestReplay_SameDayOrdering(t *testing.T) {
	buy := tx("buy1", "2024-01-01", model.TransactionBuy, 100, 10)
	sell := tx("sell1", "2024-01-01", model.TransactionSell, 100, 12)
	buy.CreatedAt = date("2024-01-01").Add(1 * time.Hour)
	sell.CreatedAt = date("2024-01-01").Add(2 * time.Hour)

	// Pass them out of order; Replay must sort by creation time within the day.
	pos, sales, err := ledger.Replay([]model.Transaction{sell, buy}, date("2024-01-01"))
	if err != nil {
		t.Fatalf("Replay() returned unexpected error: %v", err)
	}
	if pos.Shares != 0 {
		t.Errorf("Expected 0 shares after same-day round trip, got %f", pos.Shares)
	}
	if len(sales) != 1 || !almostEqual(sales[0].GainLoss, 200) {
		t.Errorf("Expected one sale with gain 200, got %+v", sales)
	}
}

// TestReplay_IncrementalEquivalence tests that one-shot replay and a
// day-by-day application of the same transactions agree.
//
// WHY: The history aggregator applies each day's transactions incrementally
// instead of replaying from epoch every day. That optimization is only sound
// if both walks land on identical state for every date.
func TestReplay_IncrementalEquivalence(t *testing.T) {
	txs := []model.Transaction{
		tx("t1", "2024-01-02", model.TransactionBuy, 100, 10),
		tx("t2", "2024-01-05", model.TransactionBuy, 20, 12.50),
		tx("t3", "2024-01-05", model.TransactionSell, 30, 14),
		tx("t4", "2024-01-09", model.TransactionDividendReinvestment, 2.5, 13),
		tx("t5", "2024-01-15", model.TransactionSell, 92.5, 15),
		tx("t6", "2024-01-20", model.TransactionBuy, 10, 16),
	}

	sorted := ledger.Sort(txs)
	var incremental ledger.Position
	idx := 0

	for day := date("2024-01-01"); !day.After(date("2024-01-31")); day = day.AddDate(0, 0, 1) {
		for idx < len(sorted) && !sorted[idx].Date.After(day) {
			if _, err := incremental.Apply(sorted[idx]); err != nil {
				t.Fatalf("Apply(%s) returned unexpected error: %v", sorted[idx].ID, err)
			}
			idx++
		}

		full, _, err := ledger.Replay(txs, day)
		if err != nil {
			t.Fatalf("Replay(%s) returned unexpected error: %v", day.Format("2006-01-02"), err)
		}

		if !almostEqual(full.Shares, incremental.Shares) || !almostEqual(full.CostBasis, incremental.CostBasis) {
			t.Errorf("Divergence on %s: full=%+v incremental=%+v",
				day.Format("2006-01-02"), full, incremental)
		}
	}
}

// TestReplayAll tests replay of the complete sequence regardless of date.
func TestReplayAll(t *testing.T) {
	t.Run("empty sequence yields empty position", func(t *testing.T) {
		pos, sales, err := ledger.ReplayAll(nil)
		if err != nil {
			t.Fatalf("ReplayAll() returned unexpected error: %v", err)
		}
		if pos.Shares != 0 || pos.CostBasis != 0 || len(sales) != 0 {
			t.Errorf("Expected empty result, got pos=%+v sales=%d", pos, len(sales))
		}
	})

	t.Run("covers every transaction", func(t *testing.T) {
		txs := []model.Transaction{
			tx("t1", "2024-01-01", model.TransactionBuy, 10, 10),
			tx("t2", "2025-06-01", model.TransactionSell, 4, 20),
		}

		pos, sales, err := ledger.ReplayAll(txs)
		if err != nil {
			t.Fatalf("ReplayAll() returned unexpected error: %v", err)
		}
		if !almostEqual(pos.Shares, 6) {
			t.Errorf("Expected 6 shares, got %f", pos.Shares)
		}
		if len(sales) != 1 || !almostEqual(sales[0].GainLoss, 40) {
			t.Errorf("Expected one sale with gain 40, got %+v", sales)
		}
	})
}
