package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/model"
)

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Custom Portfolio").
//	    Archived().
//	    Build(t, db)
type PortfolioBuilder struct {
	ID                  string
	Name                string
	Description         string
	IsArchived          bool
	ExcludeFromOverview bool
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:          MakeID(),
		Name:        MakePortfolioName("Test Portfolio"),
		Description: "Test description",
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// Archived marks the portfolio as archived.
func (b *PortfolioBuilder) Archived() *PortfolioBuilder {
	b.IsArchived = true
	return b
}

// ExcludedFromOverview marks the portfolio as excluded from overview.
func (b *PortfolioBuilder) ExcludedFromOverview() *PortfolioBuilder {
	b.ExcludeFromOverview = true
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	query := `
		INSERT INTO portfolio (id, name, description, is_archived, exclude_from_overview)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name, b.Description, b.IsArchived, b.ExcludeFromOverview)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:                  b.ID,
		Name:                b.Name,
		Description:         b.Description,
		IsArchived:          b.IsArchived,
		ExcludeFromOverview: b.ExcludeFromOverview,
	}
}

// CreatePortfolio creates a portfolio with the given name and default values.
func CreatePortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Build(t, db)
}

// FundBuilder provides a fluent interface for creating test funds.
type FundBuilder struct {
	ID       string
	Name     string
	ISIN     string
	Symbol   string
	Currency string
}

// NewFund creates a FundBuilder with sensible defaults.
func NewFund() *FundBuilder {
	return &FundBuilder{
		ID:       MakeID(),
		Name:     MakeFundName("Test Fund"),
		ISIN:     MakeISIN("US"),
		Symbol:   MakeSymbol("TEST"),
		Currency: "USD",
	}
}

// WithName sets a custom name.
func (b *FundBuilder) WithName(name string) *FundBuilder {
	b.Name = name
	return b
}

// WithSymbol sets a custom symbol.
func (b *FundBuilder) WithSymbol(symbol string) *FundBuilder {
	b.Symbol = symbol
	return b
}

// WithCurrency sets the currency.
func (b *FundBuilder) WithCurrency(currency string) *FundBuilder {
	b.Currency = currency
	return b
}

// Build creates the fund in the database and returns it.
func (b *FundBuilder) Build(t *testing.T, db *sql.DB) model.Fund {
	t.Helper()

	query := `
		INSERT INTO fund (id, name, isin, symbol, currency)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name, b.ISIN, b.Symbol, b.Currency)
	if err != nil {
		t.Fatalf("Failed to create test fund: %v", err)
	}

	return model.Fund{
		ID:       b.ID,
		Name:     b.Name,
		Isin:     b.ISIN,
		Symbol:   b.Symbol,
		Currency: b.Currency,
	}
}

// CreateFund creates a fund with the given symbol and default values.
func CreateFund(t *testing.T, db *sql.DB, symbol string) model.Fund {
	t.Helper()
	return NewFund().WithSymbol(symbol).Build(t, db)
}

// PortfolioFundBuilder provides a fluent interface for creating portfolio-fund relationships
type PortfolioFundBuilder struct {
	ID          string
	PortfolioID string
	FundID      string
}

// NewPortfolioFund creates a PortfolioFundBuilder
func NewPortfolioFund(portfolioID, fundID string) *PortfolioFundBuilder {
	return &PortfolioFundBuilder{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		FundID:      fundID,
	}
}

// Build creates the portfolio_fund in the database
func (b *PortfolioFundBuilder) Build(t *testing.T, db *sql.DB) model.PortfolioFund {
	t.Helper()

	query := `
		INSERT INTO portfolio_fund (id, portfolio_id, fund_id)
		VALUES (?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.PortfolioID, b.FundID)
	if err != nil {
		t.Fatalf("Failed to create portfolio_fund: %v", err)
	}

	return model.PortfolioFund{
		ID:          b.ID,
		PortfolioID: b.PortfolioID,
		FundID:      b.FundID,
	}
}

// TransactionBuilder provides a fluent interface for creating transactions
type TransactionBuilder struct {
	ID              string
	PortfolioFundID string
	Date            time.Time
	Type            model.TransactionType
	Shares          float64
	CostPerShare    float64
}

// NewTransaction creates a TransactionBuilder with defaults
func NewTransaction(portfolioFundID string) *TransactionBuilder {
	return &TransactionBuilder{
		ID:              MakeID(),
		PortfolioFundID: portfolioFundID,
		Date:            time.Now(),
		Type:            model.TransactionBuy,
		Shares:          100.0,
		CostPerShare:    10.0,
	}
}

// WithID sets a custom ID
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.ID = id
	return b
}

// WithDate sets the transaction date
func (b *TransactionBuilder) WithDate(date time.Time) *TransactionBuilder {
	b.Date = date
	return b
}

// WithType sets the transaction type
func (b *TransactionBuilder) WithType(txType model.TransactionType) *TransactionBuilder {
	b.Type = txType
	return b
}

// WithShares sets the number of shares
func (b *TransactionBuilder) WithShares(shares float64) *TransactionBuilder {
	b.Shares = shares
	return b
}

// WithCostPerShare sets the cost per share
func (b *TransactionBuilder) WithCostPerShare(cost float64) *TransactionBuilder {
	b.CostPerShare = cost
	return b
}

// Build creates the transaction in the database
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	query := `
		INSERT INTO "transaction" (id, portfolio_fund_id, date, type, shares, cost_per_share)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.PortfolioFundID, b.Date.Format("2006-01-02"), string(b.Type), b.Shares, b.CostPerShare)
	if err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}

	return model.Transaction{
		ID:              b.ID,
		PortfolioFundID: b.PortfolioFundID,
		Date:            b.Date,
		Type:            b.Type,
		Shares:          b.Shares,
		CostPerShare:    b.CostPerShare,
		CreatedAt:       time.Now(),
	}
}

// FundPriceBuilder provides a fluent interface for creating fund prices
type FundPriceBuilder struct {
	ID     string
	FundID string
	Date   time.Time
	Price  float64
}

// NewFundPrice creates a FundPriceBuilder
func NewFundPrice(fundID string) *FundPriceBuilder {
	return &FundPriceBuilder{
		ID:     MakeID(),
		FundID: fundID,
		Date:   time.Now(),
		Price:  12.0,
	}
}

// WithDate sets the price date
func (b *FundPriceBuilder) WithDate(date time.Time) *FundPriceBuilder {
	b.Date = date
	return b
}

// WithPrice sets the price
func (b *FundPriceBuilder) WithPrice(price float64) *FundPriceBuilder {
	b.Price = price
	return b
}

// Build creates the fund price in the database
func (b *FundPriceBuilder) Build(t *testing.T, db *sql.DB) model.FundPrice {
	t.Helper()

	query := `
		INSERT INTO fund_price (id, fund_id, date, price)
		VALUES (?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.FundID, b.Date.Format("2006-01-02"), b.Price)
	if err != nil {
		t.Fatalf("Failed to create fund price: %v", err)
	}

	return model.FundPrice{
		ID:     b.ID,
		FundID: b.FundID,
		Date:   b.Date,
		Price:  b.Price,
	}
}

// DividendBuilder provides a fluent interface for creating dividends
type DividendBuilder struct {
	ID                        string
	FundID                    string
	PortfolioFundID           string
	RecordDate                time.Time
	ExDividendDate            time.Time
	SharesOwned               float64
	DividendPerShare          float64
	TotalAmount               float64
	Kind                      model.DividendKind
	ReinvestmentStatus        model.ReinvestmentStatus
	BuyOrderDate              *time.Time
	ReinvestmentTransactionID string
}

// NewDividend creates a DividendBuilder defaulting to a pending stock dividend
func NewDividend(fundID, portfolioFundID string) *DividendBuilder {
	buyOrderDate := time.Now().AddDate(0, 0, -3)
	return &DividendBuilder{
		ID:                 MakeID(),
		FundID:             fundID,
		PortfolioFundID:    portfolioFundID,
		RecordDate:         time.Now().AddDate(0, 0, -10),
		ExDividendDate:     time.Now().AddDate(0, 0, -5),
		SharesOwned:        100.0,
		DividendPerShare:   0.50,
		TotalAmount:        50.0,
		Kind:               model.DividendStock,
		ReinvestmentStatus: model.ReinvestmentPending,
		BuyOrderDate:       &buyOrderDate,
	}
}

// Cash turns the dividend into a cash payout
func (b *DividendBuilder) Cash() *DividendBuilder {
	b.Kind = model.DividendCash
	b.ReinvestmentStatus = model.ReinvestmentNotApplicable
	b.BuyOrderDate = nil
	return b
}

// WithReinvestmentTransaction sets the reinvestment transaction ID
func (b *DividendBuilder) WithReinvestmentTransaction(txID string) *DividendBuilder {
	b.ReinvestmentTransactionID = txID
	b.ReinvestmentStatus = model.ReinvestmentCompleted
	return b
}

// WithRecordDate sets the record date
func (b *DividendBuilder) WithRecordDate(date time.Time) *DividendBuilder {
	b.RecordDate = date
	return b
}

// WithSharesOwned sets shares owned
func (b *DividendBuilder) WithSharesOwned(shares float64) *DividendBuilder {
	b.SharesOwned = shares
	b.TotalAmount = b.DividendPerShare * shares
	return b
}

// WithDividendPerShare sets dividend per share
func (b *DividendBuilder) WithDividendPerShare(amount float64) *DividendBuilder {
	b.DividendPerShare = amount
	b.TotalAmount = amount * b.SharesOwned
	return b
}

// Build creates the dividend in the database
func (b *DividendBuilder) Build(t *testing.T, db *sql.DB) model.Dividend {
	t.Helper()

	query := `
		INSERT INTO dividend (id, fund_id, portfolio_fund_id, record_date, ex_dividend_date,
		                     shares_owned, dividend_per_share, total_amount, kind,
		                     reinvestment_status, buy_order_date, reinvestment_transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var buyOrderDate any
	if b.BuyOrderDate != nil {
		buyOrderDate = b.BuyOrderDate.Format("2006-01-02")
	}

	var reinvTxID any
	if b.ReinvestmentTransactionID != "" {
		reinvTxID = b.ReinvestmentTransactionID
	}

	_, err := db.Exec(query,
		b.ID, b.FundID, b.PortfolioFundID,
		b.RecordDate.Format("2006-01-02"),
		b.ExDividendDate.Format("2006-01-02"),
		b.SharesOwned, b.DividendPerShare, b.TotalAmount,
		string(b.Kind), string(b.ReinvestmentStatus), buyOrderDate, reinvTxID)

	if err != nil {
		t.Fatalf("Failed to create dividend: %v", err)
	}

	return model.Dividend{
		ID:                        b.ID,
		FundID:                    b.FundID,
		PortfolioFundID:           b.PortfolioFundID,
		RecordDate:                b.RecordDate,
		ExDividendDate:            b.ExDividendDate,
		SharesOwned:               b.SharesOwned,
		DividendPerShare:          b.DividendPerShare,
		TotalAmount:               b.TotalAmount,
		Kind:                      b.Kind,
		ReinvestmentStatus:        b.ReinvestmentStatus,
		BuyOrderDate:              b.BuyOrderDate,
		ReinvestmentTransactionID: b.ReinvestmentTransactionID,
		CreatedAt:                 time.Now(),
	}
}

// RealizedGainLossBuilder provides a fluent interface for creating realized gain/loss records
type RealizedGainLossBuilder struct {
	ID               string
	PortfolioID      string
	FundID           string
	TransactionID    string
	TransactionDate  time.Time
	SharesSold       float64
	CostBasis        float64
	SaleProceeds     float64
	RealizedGainLoss float64
}

// NewRealizedGainLoss creates a RealizedGainLossBuilder
func NewRealizedGainLoss(portfolioID, fundID, transactionID string) *RealizedGainLossBuilder {
	return &RealizedGainLossBuilder{
		ID:               MakeID(),
		PortfolioID:      portfolioID,
		FundID:           fundID,
		TransactionID:    transactionID,
		TransactionDate:  time.Now(),
		SharesSold:       30.0,
		CostBasis:        300.0,
		SaleProceeds:     450.0,
		RealizedGainLoss: 150.0,
	}
}

// WithDate sets the transaction date
func (b *RealizedGainLossBuilder) WithDate(date time.Time) *RealizedGainLossBuilder {
	b.TransactionDate = date
	return b
}

// Build creates the realized gain/loss in the database
func (b *RealizedGainLossBuilder) Build(t *testing.T, db *sql.DB) model.RealizedGainLoss {
	t.Helper()

	query := `
		INSERT INTO realized_gain_loss (id, portfolio_id, fund_id, transaction_id, transaction_date,
		                                shares_sold, cost_basis, sale_proceeds, realized_gain_loss)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.PortfolioID, b.FundID, b.TransactionID,
		b.TransactionDate.Format("2006-01-02"),
		b.SharesSold, b.CostBasis, b.SaleProceeds, b.RealizedGainLoss)

	if err != nil {
		t.Fatalf("Failed to create realized gain/loss: %v", err)
	}

	return model.RealizedGainLoss{
		ID:               b.ID,
		PortfolioID:      b.PortfolioID,
		FundID:           b.FundID,
		TransactionID:    b.TransactionID,
		TransactionDate:  b.TransactionDate,
		SharesSold:       b.SharesSold,
		CostBasis:        b.CostBasis,
		SaleProceeds:     b.SaleProceeds,
		RealizedGainLoss: b.RealizedGainLoss,
		CreatedAt:        time.Now(),
	}
}
