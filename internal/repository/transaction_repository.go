package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/model"
)

// TransactionRepository provides data access methods for the transaction table.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a copy of the repository that runs all statements inside tx.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{db: r.db, tx: tx}
}

func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetTransactions retrieves all transactions for the given portfolio_fund IDs
// with date <= endDate, in one query regardless of how many holdings are
// requested. Position replay needs the full history from the first
// transaction, so there is no start-date bound.
//
// Returns a map of portfolioFundID -> []Transaction sorted by (date,
// created_at) ascending, the replay order. If pfIDs is empty, returns an
// empty map.
func (r *TransactionRepository) GetTransactions(pfIDs []string, endDate time.Time) (map[string][]model.Transaction, error) {
	if len(pfIDs) == 0 {
		return make(map[string][]model.Transaction), nil
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT id, portfolio_fund_id, date, type, shares, cost_per_share, created_at
		FROM "transaction"
		WHERE portfolio_fund_id IN (` + placeholders(len(pfIDs)) + `)
		AND date <= ?
		ORDER BY date ASC, created_at ASC
	`

	args := make([]any, 0, len(pfIDs)+1)
	args = append(args, idArgs(pfIDs)...)
	args = append(args, endDate.Format("2006-01-02"))

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactionsByPortfolioFund := make(map[string][]model.Transaction)

	for rows.Next() {
		var dateStr, createdAtStr string
		var t model.Transaction

		err := rows.Scan(
			&t.ID,
			&t.PortfolioFundID,
			&dateStr,
			&t.Type,
			&t.Shares,
			&t.CostPerShare,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}

		t.Date, err = ParseTime(dateStr)
		if err != nil || t.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		t.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil || t.CreatedAt.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		transactionsByPortfolioFund[t.PortfolioFundID] = append(transactionsByPortfolioFund[t.PortfolioFundID], t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactionsByPortfolioFund, nil
}

// GetTransactionsForPortfolioFund retrieves the full transaction history of a
// single holding in replay order. Used by mutations that re-derive the
// holding's position and realized gains.
func (r *TransactionRepository) GetTransactionsForPortfolioFund(pfID string) ([]model.Transaction, error) {
	byPF, err := r.GetTransactions([]string{pfID}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	return byPF[pfID], nil
}

// GetOldestTransactionDate finds the date of the earliest transaction across
// the given portfolio_fund IDs. This is the starting point for historical
// portfolio calculations.
//
// Returns time.Time{} (zero value) if pfIDs is empty or no transactions exist.
func (r *TransactionRepository) GetOldestTransactionDate(pfIDs []string) time.Time {
	if len(pfIDs) == 0 {
		return time.Time{}
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT MIN(date)
		FROM "transaction"
		WHERE portfolio_fund_id IN (` + placeholders(len(pfIDs)) + `)
	`

	var oldestDateStr sql.NullString
	err := r.getQuerier().QueryRow(query, idArgs(pfIDs)...).Scan(&oldestDateStr)
	if err != nil || !oldestDateStr.Valid {
		return time.Time{}
	}

	oldestDate, err := time.Parse("2006-01-02", oldestDateStr.String)
	if err != nil {
		return time.Time{}
	}

	return oldestDate
}

// GetTransactionsPerPortfolio retrieves transactions enriched with fund names
// for API responses. If portfolioID is empty, transactions across all
// portfolios are returned.
func (r *TransactionRepository) GetTransactionsPerPortfolio(portfolioID string) ([]model.TransactionResponse, error) {
	query := `
		SELECT t.id, t.portfolio_fund_id, f.name, t.date, t.type, t.shares, t.cost_per_share
		FROM "transaction" t
		JOIN portfolio_fund pf ON t.portfolio_fund_id = pf.id
		JOIN fund f ON pf.fund_id = f.id
	`

	var args []any
	if portfolioID != "" {
		query += ` WHERE pf.portfolio_id = ?`
		args = append(args, portfolioID)
	}
	query += ` ORDER BY t.date ASC, t.created_at ASC`

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.TransactionResponse{}

	for rows.Next() {
		var dateStr string
		var t model.TransactionResponse

		err := rows.Scan(
			&t.ID,
			&t.PortfolioFundID,
			&t.FundName,
			&dateStr,
			&t.Type,
			&t.Shares,
			&t.CostPerShare,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}

		t.Date, err = ParseTime(dateStr)
		if err != nil || t.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactions, nil
}

// GetTransaction retrieves a single transaction by ID.
// Returns ErrTransactionNotFound if no transaction exists with the given ID.
func (r *TransactionRepository) GetTransaction(transactionID string) (model.Transaction, error) {
	query := `
		SELECT id, portfolio_fund_id, date, type, shares, cost_per_share, created_at
		FROM "transaction"
		WHERE id = ?
	`

	var dateStr, createdAtStr string
	var t model.Transaction

	err := r.getQuerier().QueryRow(query, transactionID).Scan(
		&t.ID,
		&t.PortfolioFundID,
		&dateStr,
		&t.Type,
		&t.Shares,
		&t.CostPerShare,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction table results: %w", err)
	}

	t.Date, err = ParseTime(dateStr)
	if err != nil || t.Date.IsZero() {
		return model.Transaction{}, fmt.Errorf("failed to parse date: %w", err)
	}

	t.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil || t.CreatedAt.IsZero() {
		return model.Transaction{}, fmt.Errorf("failed to parse date: %w", err)
	}

	return t, nil
}

// InsertTransaction inserts a new transaction record.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t model.Transaction) error {
	query := `
		INSERT INTO "transaction" (id, portfolio_fund_id, date, type, shares, cost_per_share)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		t.ID,
		t.PortfolioFundID,
		t.Date.Format("2006-01-02"),
		string(t.Type),
		t.Shares,
		t.CostPerShare,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// UpdateTransaction updates an existing transaction's date, type, shares and
// cost per share.
// Returns ErrTransactionNotFound if no transaction exists with the given ID.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, t model.Transaction) error {
	query := `
		UPDATE "transaction"
		SET date = ?, type = ?, shares = ?, cost_per_share = ?
		WHERE id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		t.Date.Format("2006-01-02"),
		string(t.Type),
		t.Shares,
		t.CostPerShare,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

// DeleteTransaction removes a transaction record.
// Returns ErrTransactionNotFound if no transaction exists with the given ID.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, transactionID string) error {
	query := `DELETE FROM "transaction" WHERE id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}
