package service_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/model"
	"github.com/mdehaan/portfolio-engine/internal/service"
	"github.com/mdehaan/portfolio-engine/internal/testutil"
)

// countingSources implements the loader's data-source interfaces and counts
// every call. The counter is atomic because the loader fetches the four
// time-series datasets concurrently.
type countingSources struct {
	calls atomic.Int64

	portfolioFunds []model.PortfolioFund
	oldestTxDate   time.Time
	priceStart     atomic.Value // time.Time of the last GetFundPrices start
}

func (c *countingSources) GetPortfolioFunds(portfolioIDs []string) ([]model.PortfolioFund, error) {
	c.calls.Add(1)
	return c.portfolioFunds, nil
}

func (c *countingSources) GetTransactions(pfIDs []string, endDate time.Time) (map[string][]model.Transaction, error) {
	c.calls.Add(1)
	return map[string][]model.Transaction{}, nil
}

func (c *countingSources) GetOldestTransactionDate(pfIDs []string) time.Time {
	c.calls.Add(1)
	if c.oldestTxDate.IsZero() {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return c.oldestTxDate
}

func (c *countingSources) GetDividends(pfIDs []string, endDate time.Time) (map[string][]model.Dividend, error) {
	c.calls.Add(1)
	return map[string][]model.Dividend{}, nil
}

func (c *countingSources) GetFundPrices(fundIDs []string, startDate, endDate time.Time) (map[string][]model.FundPrice, error) {
	c.calls.Add(1)
	c.priceStart.Store(startDate)
	return map[string][]model.FundPrice{}, nil
}

func (c *countingSources) GetRealizedGains(portfolioIDs []string, endDate time.Time) (map[string][]model.RealizedGainLoss, error) {
	c.calls.Add(1)
	return map[string][]model.RealizedGainLoss{}, nil
}

// holdingsFor fabricates n holdings per portfolio for the counting stubs.
func holdingsFor(portfolios []model.Portfolio, perPortfolio int) []model.PortfolioFund {
	var pfs []model.PortfolioFund
	for _, p := range portfolios {
		for i := 0; i < perPortfolio; i++ {
			pfs = append(pfs, model.PortfolioFund{
				ID:          testutil.MakeID(),
				PortfolioID: p.ID,
				FundID:      testutil.MakeID(),
			})
		}
	}
	return pfs
}

func makePortfolios(count int) []model.Portfolio {
	portfolios := make([]model.Portfolio, count)
	for i := range portfolios {
		portfolios[i] = model.Portfolio{ID: testutil.MakeID(), Name: testutil.MakePortfolioName("")}
	}
	return portfolios
}

// TestDataLoader_QueryCountIsConstant pins down the loader's batching.
//
// WHY: History calculations used to be the slowest path in the system when
// each holding issued its own queries. The loader exists to make the query
// count independent of portfolio and holding counts, so a regression here is
// a performance bug even though every test still passes functionally.
func TestDataLoader_QueryCountIsConstant(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	load := func(t *testing.T, portfolioCount, holdingsPerPortfolio int) int64 {
		t.Helper()

		portfolios := makePortfolios(portfolioCount)
		src := &countingSources{portfolioFunds: holdingsFor(portfolios, holdingsPerPortfolio)}
		loader := service.NewDataLoaderService(src, src, src, src, src)

		if _, err := loader.LoadForPortfolios(portfolios, start, end); err != nil {
			t.Fatalf("LoadForPortfolios() returned unexpected error: %v", err)
		}
		return src.calls.Load()
	}

	t.Run("six queries for one portfolio", func(t *testing.T) {
		if got := load(t, 1, 1); got != 6 {
			t.Errorf("Expected 6 queries, got %d", got)
		}
	})

	t.Run("query count does not grow with portfolios or holdings", func(t *testing.T) {
		small := load(t, 1, 1)
		large := load(t, 25, 8)

		if small != large {
			t.Errorf("Query count grew with input size: %d for 1 portfolio, %d for 25 portfolios", small, large)
		}
	})

	t.Run("no dataset queries when no portfolios given", func(t *testing.T) {
		src := &countingSources{}
		loader := service.NewDataLoaderService(src, src, src, src, src)

		data, err := loader.LoadForPortfolios(nil, start, end)
		if err != nil {
			t.Fatalf("LoadForPortfolios() returned unexpected error: %v", err)
		}
		if got := src.calls.Load(); got != 0 {
			t.Errorf("Expected 0 queries for empty input, got %d", got)
		}
		if len(data.PFIDs) != 0 {
			t.Errorf("Expected empty data, got %d holdings", len(data.PFIDs))
		}
	})

	t.Run("stops after holdings query when portfolios hold nothing", func(t *testing.T) {
		portfolios := makePortfolios(3)
		src := &countingSources{}
		loader := service.NewDataLoaderService(src, src, src, src, src)

		if _, err := loader.LoadForPortfolios(portfolios, start, end); err != nil {
			t.Fatalf("LoadForPortfolios() returned unexpected error: %v", err)
		}
		if got := src.calls.Load(); got != 1 {
			t.Errorf("Expected only the holdings query, got %d queries", got)
		}
	})
}

// TestDataLoader_PriceLookback verifies the price window opens a year early.
//
// WHY: Valuation uses the last observed price on or before each day, and the
// calendar walk begins at the oldest transaction. Prices must cover a year
// before whichever comes first, or days inside a price gap would value
// positions at zero.
func TestDataLoader_PriceLookback(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	priceStartFor := func(t *testing.T, oldestTx time.Time) time.Time {
		t.Helper()

		portfolios := makePortfolios(1)
		src := &countingSources{
			portfolioFunds: holdingsFor(portfolios, 1),
			oldestTxDate:   oldestTx,
		}
		loader := service.NewDataLoaderService(src, src, src, src, src)

		if _, err := loader.LoadForPortfolios(portfolios, start, end); err != nil {
			t.Fatalf("LoadForPortfolios() returned unexpected error: %v", err)
		}
		got, ok := src.priceStart.Load().(time.Time)
		if !ok {
			t.Fatal("GetFundPrices was never called")
		}
		return got
	}

	t.Run("a year before the range start", func(t *testing.T) {
		oldestTx := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
		got := priceStartFor(t, oldestTx)
		want := start.Add(-365 * 24 * time.Hour)
		if !got.Equal(want) {
			t.Errorf("Expected price load from %s, got %s",
				want.Format("2006-01-02"), got.Format("2006-01-02"))
		}
	})

	t.Run("a year before the oldest transaction when it is earlier", func(t *testing.T) {
		oldestTx := time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC)
		got := priceStartFor(t, oldestTx)
		want := oldestTx.Add(-365 * 24 * time.Hour)
		if !got.Equal(want) {
			t.Errorf("Expected price load from %s, got %s",
				want.Format("2006-01-02"), got.Format("2006-01-02"))
		}
	})
}

// TestDataLoader_FromDatabase exercises the loader against real repositories.
//
// WHY: The counting stubs pin the query count; this test pins the shape of
// the loaded data, in particular that datasets come back keyed by holding and
// that the oldest transaction date spans all holdings.
func TestDataLoader_FromDatabase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	loader := testutil.NewTestDataLoaderService(t, db)

	portfolio := testutil.CreatePortfolio(t, db, "Loader Portfolio")
	fundA := testutil.CreateFund(t, db, "AAA")
	fundB := testutil.CreateFund(t, db, "BBB")
	pfA := testutil.NewPortfolioFund(portfolio.ID, fundA.ID).Build(t, db)
	pfB := testutil.NewPortfolioFund(portfolio.ID, fundB.ID).Build(t, db)

	jan10 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	mar5 := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	testutil.NewTransaction(pfA.ID).WithDate(jan10).Build(t, db)
	testutil.NewTransaction(pfB.ID).WithDate(mar5).Build(t, db)
	testutil.NewFundPrice(fundA.ID).WithDate(jan10).WithPrice(11.5).Build(t, db)

	data, err := loader.LoadForPortfolios(
		[]model.Portfolio{portfolio},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("LoadForPortfolios() returned unexpected error: %v", err)
	}

	if len(data.PFIDs) != 2 {
		t.Fatalf("Expected 2 holdings, got %d", len(data.PFIDs))
	}
	if !data.OldestTransactionDate.Equal(jan10) {
		t.Errorf("Expected oldest transaction date %s, got %s",
			jan10.Format("2006-01-02"), data.OldestTransactionDate.Format("2006-01-02"))
	}
	if len(data.TransactionsByPF[pfA.ID]) != 1 || len(data.TransactionsByPF[pfB.ID]) != 1 {
		t.Errorf("Expected one transaction per holding, got %d and %d",
			len(data.TransactionsByPF[pfA.ID]), len(data.TransactionsByPF[pfB.ID]))
	}
	if len(data.FundPricesByFund[fundA.ID]) != 1 {
		t.Errorf("Expected 1 price for fund A, got %d", len(data.FundPricesByFund[fundA.ID]))
	}
	if data.PortfolioFundToPortfolio[pfA.ID] != portfolio.ID {
		t.Errorf("Holding %s mapped to portfolio %s, want %s",
			pfA.ID, data.PortfolioFundToPortfolio[pfA.ID], portfolio.ID)
	}
}
