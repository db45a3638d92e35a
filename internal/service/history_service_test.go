package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/model"
	"github.com/mdehaan/portfolio-engine/internal/testutil"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// findPortfolio returns the summary for one portfolio on one history day.
func findPortfolio(t *testing.T, entry model.PortfolioHistory, portfolioID string) model.PortfolioSummary {
	t.Helper()
	for _, p := range entry.Portfolios {
		if p.ID == portfolioID {
			return p
		}
	}
	t.Fatalf("Portfolio %s not found on %s", portfolioID, entry.Date)
	return model.PortfolioSummary{}
}

// TestHistoryService_GetPortfolioHistory tests the day-by-day walk.
//
// WHY: The walk replays each transaction exactly once while producing one
// entry per calendar day. These cases pin the carry-forward price policy,
// zero positions before the first buy, and the dividend and realized-gain
// running totals.
func TestHistoryService_GetPortfolioHistory(t *testing.T) {
	t.Run("values positions at the last observed price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestHistoryService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "FND")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pf.ID).
			WithDate(day(2024, 1, 10)).
			WithShares(10).WithCostPerShare(10).
			Build(t, db)
		testutil.NewFundPrice(fund.ID).WithDate(day(2024, 1, 10)).WithPrice(10).Build(t, db)
		testutil.NewFundPrice(fund.ID).WithDate(day(2024, 1, 12)).WithPrice(12).Build(t, db)

		history, err := svc.GetPortfolioHistory("", model.PortfolioFilter{}, day(2024, 1, 9), day(2024, 1, 13))
		if err != nil {
			t.Fatalf("GetPortfolioHistory() returned unexpected error: %v", err)
		}

		if len(history) != 5 {
			t.Fatalf("Expected 5 days of history, got %d", len(history))
		}

		expected := []struct {
			date  string
			value float64
			cost  float64
		}{
			{"2024-01-09", 0, 0},     // before the first buy
			{"2024-01-10", 100, 100}, // 10 shares at the day's price
			{"2024-01-11", 100, 100}, // price gap: carry 10 forward
			{"2024-01-12", 120, 100}, // new observation
			{"2024-01-13", 120, 100},
		}
		for i, want := range expected {
			if history[i].Date != want.date {
				t.Errorf("Day %d: expected date %s, got %s", i, want.date, history[i].Date)
				continue
			}
			got := findPortfolio(t, history[i], portfolio.ID)
			if got.TotalValue != want.value {
				t.Errorf("%s: expected value %v, got %v", want.date, want.value, got.TotalValue)
			}
			if got.TotalCost != want.cost {
				t.Errorf("%s: expected cost %v, got %v", want.date, want.cost, got.TotalCost)
			}
			if got.TotalUnrealizedGainLoss != want.value-want.cost {
				t.Errorf("%s: expected unrealized %v, got %v",
					want.date, want.value-want.cost, got.TotalUnrealizedGainLoss)
			}
		}
	})

	t.Run("accumulates dividends from their ex-dividend date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestHistoryService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "FND")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pf.ID).
			WithDate(day(2024, 1, 10)).
			WithShares(100).WithCostPerShare(10).
			Build(t, db)
		testutil.NewDividend(fund.ID, pf.ID).Cash().
			WithRecordDate(day(2024, 1, 15)).
			WithSharesOwned(100).
			WithDividendPerShare(0.5).
			Build(t, db)

		// The factory dates ex-dividend relative to now; pin it for the walk.
		if _, err := db.Exec(`UPDATE dividend SET ex_dividend_date = '2024-01-20'`); err != nil {
			t.Fatalf("Failed to pin ex-dividend date: %v", err)
		}

		history, err := svc.GetPortfolioHistory("", model.PortfolioFilter{}, day(2024, 1, 18), day(2024, 1, 22))
		if err != nil {
			t.Fatalf("GetPortfolioHistory() returned unexpected error: %v", err)
		}

		before := findPortfolio(t, history[0], portfolio.ID) // Jan 18
		after := findPortfolio(t, history[4], portfolio.ID)  // Jan 22
		if before.TotalDividends != 0 {
			t.Errorf("Expected no dividends before ex-dividend date, got %v", before.TotalDividends)
		}
		if after.TotalDividends != 50 {
			t.Errorf("Expected 50 in dividends after ex-dividend date, got %v", after.TotalDividends)
		}
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestHistoryService(t, db)

		_, err := svc.GetPortfolioHistory("", model.PortfolioFilter{}, day(2024, 2, 1), day(2024, 1, 1))
		if !errors.Is(err, apperrors.ErrInvalidDateRange) {
			t.Errorf("Expected ErrInvalidDateRange, got %v", err)
		}
	})

	t.Run("unknown portfolio yields empty history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestHistoryService(t, db)

		history, err := svc.GetPortfolioHistory(testutil.MakeID(), model.PortfolioFilter{}, day(2024, 1, 1), day(2024, 1, 5))
		if err != nil {
			t.Fatalf("GetPortfolioHistory() returned unexpected error: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("Expected empty history, got %d days", len(history))
		}
	})

	t.Run("no transactions yields empty history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestHistoryService(t, db)

		testutil.CreatePortfolio(t, db, "Empty")

		history, err := svc.GetPortfolioHistory("", model.PortfolioFilter{}, day(2024, 1, 1), day(2024, 1, 5))
		if err != nil {
			t.Fatalf("GetPortfolioHistory() returned unexpected error: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("Expected empty history, got %d days", len(history))
		}
	})

	t.Run("archived portfolios are excluded unless requested", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestHistoryService(t, db)

		active := testutil.CreatePortfolio(t, db, "Active")
		archived := testutil.NewPortfolio().WithName("Archived").Archived().Build(t, db)
		fund := testutil.CreateFund(t, db, "FND")
		pfActive := testutil.NewPortfolioFund(active.ID, fund.ID).Build(t, db)
		pfArchived := testutil.NewPortfolioFund(archived.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pfActive.ID).WithDate(day(2024, 1, 10)).Build(t, db)
		testutil.NewTransaction(pfArchived.ID).WithDate(day(2024, 1, 10)).Build(t, db)

		history, err := svc.GetPortfolioHistory("", model.PortfolioFilter{}, day(2024, 1, 10), day(2024, 1, 10))
		if err != nil {
			t.Fatalf("GetPortfolioHistory() returned unexpected error: %v", err)
		}
		if len(history) != 1 || len(history[0].Portfolios) != 1 {
			t.Fatalf("Expected 1 day with 1 portfolio, got %+v", history)
		}
		if history[0].Portfolios[0].ID != active.ID {
			t.Errorf("Expected only the active portfolio, got %s", history[0].Portfolios[0].ID)
		}

		wide, err := svc.GetPortfolioHistory("", model.PortfolioFilter{IncludeArchived: true}, day(2024, 1, 10), day(2024, 1, 10))
		if err != nil {
			t.Fatalf("GetPortfolioHistory() returned unexpected error: %v", err)
		}
		if len(wide[0].Portfolios) != 2 {
			t.Errorf("Expected both portfolios with includeArchived, got %d", len(wide[0].Portfolios))
		}
	})
}

// TestHistoryService_MaterializedPath tests the snapshot read path.
//
// WHY: The materialized table is only usable when it covers every requested
// (portfolio, day) pair. Serving a partial range would silently show zeroed
// days, so coverage gating matters more than the fast path itself.
func TestHistoryService_MaterializedPath(t *testing.T) {
	t.Run("fully covered range is served from snapshots", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestHistoryService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")

		// Distinctive values no walk would compute; matching output proves
		// the snapshot path served the read.
		for i, date := range []string{"2024-01-10", "2024-01-11", "2024-01-12"} {
			_, err := db.Exec(`
				INSERT INTO portfolio_history_materialized
					(id, portfolio_id, date, total_value, total_cost, total_dividends,
					 unrealized_gain_loss, realized_gain_loss)
				VALUES (?, ?, ?, ?, 500, 7, ?, 13)`,
				testutil.MakeID(), portfolio.ID, date, 1000+i, float64(500+i))
			if err != nil {
				t.Fatalf("Failed to seed snapshot: %v", err)
			}
		}

		history, err := svc.GetPortfolioHistory("", model.PortfolioFilter{}, day(2024, 1, 10), day(2024, 1, 12))
		if err != nil {
			t.Fatalf("GetPortfolioHistory() returned unexpected error: %v", err)
		}

		if len(history) != 3 {
			t.Fatalf("Expected 3 days, got %d", len(history))
		}
		got := findPortfolio(t, history[2], portfolio.ID)
		if got.TotalValue != 1002 || got.TotalDividends != 7 || got.TotalRealizedGainLoss != 13 {
			t.Errorf("Expected seeded snapshot values (1002, 7, 13), got (%v, %v, %v)",
				got.TotalValue, got.TotalDividends, got.TotalRealizedGainLoss)
		}
	})

	t.Run("partial coverage falls back to computing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestHistoryService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "FND")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pf.ID).
			WithDate(day(2024, 1, 10)).
			WithShares(10).WithCostPerShare(10).
			Build(t, db)
		testutil.NewFundPrice(fund.ID).WithDate(day(2024, 1, 10)).WithPrice(10).Build(t, db)

		// One snapshot for a three-day range: coverage check must fail and
		// the walk must produce real values, not the seeded outlier.
		_, err := db.Exec(`
			INSERT INTO portfolio_history_materialized
				(id, portfolio_id, date, total_value, total_cost, total_dividends,
				 unrealized_gain_loss, realized_gain_loss)
			VALUES (?, ?, '2024-01-10', 9999, 9999, 0, 0, 0)`,
			testutil.MakeID(), portfolio.ID)
		if err != nil {
			t.Fatalf("Failed to seed snapshot: %v", err)
		}

		history, err := svc.GetPortfolioHistory("", model.PortfolioFilter{}, day(2024, 1, 10), day(2024, 1, 12))
		if err != nil {
			t.Fatalf("GetPortfolioHistory() returned unexpected error: %v", err)
		}

		got := findPortfolio(t, history[0], portfolio.ID)
		if got.TotalValue != 100 {
			t.Errorf("Expected computed value 100, got %v", got.TotalValue)
		}
	})
}

// TestHistoryService_Refresh tests the nightly snapshot rebuild.
//
// WHY: Refresh is what keeps reads off the replay path. It must cover every
// portfolio including archived ones and write values identical to an
// on-demand computation.
func TestHistoryService_Refresh(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestHistoryService(t, db)

	portfolio := testutil.NewPortfolio().WithName("Archived").Archived().Build(t, db)
	fund := testutil.CreateFund(t, db, "FND")
	pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

	testutil.NewTransaction(pf.ID).
		WithDate(day(2024, 1, 10)).
		WithShares(10).WithCostPerShare(10).
		Build(t, db)
	testutil.NewFundPrice(fund.ID).WithDate(day(2024, 1, 10)).WithPrice(10).Build(t, db)
	testutil.NewFundPrice(fund.ID).WithDate(day(2024, 1, 12)).WithPrice(12).Build(t, db)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() returned unexpected error: %v", err)
	}

	if got := testutil.CountRows(t, db, "portfolio_history_materialized"); got == 0 {
		t.Fatal("Expected materialized snapshots after refresh, got none")
	}

	var value float64
	err := db.QueryRow(`
		SELECT total_value FROM portfolio_history_materialized
		WHERE portfolio_id = ? AND date = '2024-01-15'`, portfolio.ID).Scan(&value)
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	if value != 120 {
		t.Errorf("Expected snapshot value 120 on 2024-01-15, got %v", value)
	}

	// Refresh is idempotent: running it again upserts rather than duplicating.
	before := testutil.CountRows(t, db, "portfolio_history_materialized")
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() returned unexpected error: %v", err)
	}
	if after := testutil.CountRows(t, db, "portfolio_history_materialized"); after != before {
		t.Errorf("Expected %d snapshots after second refresh, got %d", before, after)
	}
}
