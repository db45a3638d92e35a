package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/model"
)

// FundRepository provides data access methods for the fund, fund_price and
// portfolio_fund tables. It handles fund metadata, historical price data and
// the portfolio-fund holdings that own transactions and dividends.
type FundRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewFundRepository creates a new FundRepository with the provided database connection.
func NewFundRepository(db *sql.DB) *FundRepository {
	return &FundRepository{db: db}
}

// WithTx returns a copy of the repository that runs all statements inside tx.
func (r *FundRepository) WithTx(tx *sql.Tx) *FundRepository {
	return &FundRepository{db: r.db, tx: tx}
}

func (r *FundRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetFunds retrieves all funds, sorted by name.
func (r *FundRepository) GetFunds() ([]model.Fund, error) {
	query := `
		SELECT id, name, isin, symbol, currency
		FROM fund
		ORDER BY name ASC
	`

	rows, err := r.getQuerier().Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund table: %w", err)
	}
	defer rows.Close()

	funds := []model.Fund{}

	for rows.Next() {
		var f model.Fund
		var symbol sql.NullString

		err := rows.Scan(
			&f.ID,
			&f.Name,
			&f.Isin,
			&symbol,
			&f.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund table results: %w", err)
		}
		if symbol.Valid {
			f.Symbol = symbol.String
		}
		funds = append(funds, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund table: %w", err)
	}

	return funds, nil
}

// GetFund retrieves a single fund by ID.
// Returns ErrFundNotFound if no fund exists with the given ID.
func (r *FundRepository) GetFund(fundID string) (model.Fund, error) {
	query := `
		SELECT id, name, isin, symbol, currency
		FROM fund
		WHERE id = ?
	`

	var f model.Fund
	var symbol sql.NullString

	err := r.getQuerier().QueryRow(query, fundID).Scan(
		&f.ID,
		&f.Name,
		&f.Isin,
		&symbol,
		&f.Currency,
	)
	if err == sql.ErrNoRows {
		return model.Fund{}, apperrors.ErrFundNotFound
	}
	if err != nil {
		return model.Fund{}, fmt.Errorf("failed to scan fund table results: %w", err)
	}
	if symbol.Valid {
		f.Symbol = symbol.String
	}

	return f, nil
}

// InsertFund inserts a new fund record.
func (r *FundRepository) InsertFund(ctx context.Context, f model.Fund) error {
	query := `
		INSERT INTO fund (id, name, isin, symbol, currency)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		f.ID,
		f.Name,
		f.Isin,
		f.Symbol,
		f.Currency,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fund: %w", err)
	}

	return nil
}

// GetFundPrices retrieves historical price data for the given fund IDs within
// the specified date range, inclusive on both ends.
//
// Returns a map of fundID -> []FundPrice sorted by date ascending within each
// fund. Ascending order lets date-walking callers advance a cursor instead of
// re-searching for every date. If fundIDs is empty, returns an empty map.
func (r *FundRepository) GetFundPrices(fundIDs []string, startDate, endDate time.Time) (map[string][]model.FundPrice, error) {
	if len(fundIDs) == 0 {
		return make(map[string][]model.FundPrice), nil
	}
	if startDate.After(endDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT id, fund_id, date, price
		FROM fund_price
		WHERE fund_id IN (` + placeholders(len(fundIDs)) + `)
		AND date >= ?
		AND date <= ?
		ORDER BY fund_id ASC, date ASC
	`

	args := make([]any, 0, len(fundIDs)+2)
	args = append(args, idArgs(fundIDs)...)
	args = append(args, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund_price table: %w", err)
	}
	defer rows.Close()

	pricesByFund := make(map[string][]model.FundPrice)

	for rows.Next() {
		var dateStr string
		var fp model.FundPrice

		err := rows.Scan(
			&fp.ID,
			&fp.FundID,
			&dateStr,
			&fp.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund_price table results: %w", err)
		}

		fp.Date, err = ParseTime(dateStr)
		if err != nil || fp.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		pricesByFund[fp.FundID] = append(pricesByFund[fp.FundID], fp)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund_price table: %w", err)
	}

	return pricesByFund, nil
}

// InsertFundPrice records a price observation for a fund. An existing
// observation on the same date is overwritten.
func (r *FundRepository) InsertFundPrice(ctx context.Context, fp model.FundPrice) error {
	query := `
		INSERT INTO fund_price (id, fund_id, date, price)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fund_id, date) DO UPDATE SET price = excluded.price
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		fp.ID,
		fp.FundID,
		fp.Date.Format("2006-01-02"),
		fp.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fund_price: %w", err)
	}

	return nil
}

// GetPortfolioFund retrieves a single portfolio-fund holding by ID.
// Returns ErrPortfolioFundNotFound if no holding exists with the given ID.
func (r *FundRepository) GetPortfolioFund(pfID string) (model.PortfolioFund, error) {
	query := `
		SELECT id, portfolio_id, fund_id
		FROM portfolio_fund
		WHERE id = ?
	`

	var pf model.PortfolioFund

	err := r.getQuerier().QueryRow(query, pfID).Scan(
		&pf.ID,
		&pf.PortfolioID,
		&pf.FundID,
	)
	if err == sql.ErrNoRows {
		return model.PortfolioFund{}, apperrors.ErrPortfolioFundNotFound
	}
	if err != nil {
		return model.PortfolioFund{}, fmt.Errorf("failed to scan portfolio_fund table results: %w", err)
	}

	return pf, nil
}

// GetPortfolioFunds retrieves all holdings for the given portfolio IDs in one
// query. Returns an empty slice if portfolioIDs is empty.
func (r *FundRepository) GetPortfolioFunds(portfolioIDs []string) ([]model.PortfolioFund, error) {
	if len(portfolioIDs) == 0 {
		return []model.PortfolioFund{}, nil
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT id, portfolio_id, fund_id
		FROM portfolio_fund
		WHERE portfolio_id IN (` + placeholders(len(portfolioIDs)) + `)
	`

	rows, err := r.getQuerier().Query(query, idArgs(portfolioIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_fund table: %w", err)
	}
	defer rows.Close()

	portfolioFunds := []model.PortfolioFund{}

	for rows.Next() {
		var pf model.PortfolioFund

		err := rows.Scan(
			&pf.ID,
			&pf.PortfolioID,
			&pf.FundID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_fund table results: %w", err)
		}
		portfolioFunds = append(portfolioFunds, pf)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_fund table: %w", err)
	}

	return portfolioFunds, nil
}

// InsertPortfolioFund links a fund to a portfolio, creating the holding that
// transactions and dividends attach to.
func (r *FundRepository) InsertPortfolioFund(ctx context.Context, portfolioID, fundID string) (string, error) {
	query := `
		INSERT INTO portfolio_fund (id, portfolio_id, fund_id)
		VALUES (?, ?, ?)
	`

	id := uuid.New().String()
	_, err := r.getQuerier().ExecContext(ctx, query, id, portfolioID, fundID)
	if err != nil {
		return "", fmt.Errorf("failed to insert portfolio_fund: %w", err)
	}

	return id, nil
}

// DeletePortfolioFund removes a holding and, through cascading foreign keys,
// its transactions and dividends.
func (r *FundRepository) DeletePortfolioFund(ctx context.Context, pfID string) error {
	query := `DELETE FROM portfolio_fund WHERE id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, pfID)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio_fund: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrPortfolioFundNotFound
	}

	return nil
}
