package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mdehaan/portfolio-engine/internal/model"
)

// RealizedGainLossRepository provides data access methods for the
// realized_gain_loss table. Rows in that table are derived state: they are
// rewritten from transaction replay whenever a holding's ledger changes.
type RealizedGainLossRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewRealizedGainLossRepository creates a new RealizedGainLossRepository with the provided database connection.
func NewRealizedGainLossRepository(db *sql.DB) *RealizedGainLossRepository {
	return &RealizedGainLossRepository{db: db}
}

// WithTx returns a copy of the repository that runs all statements inside tx.
func (r *RealizedGainLossRepository) WithTx(tx *sql.Tx) *RealizedGainLossRepository {
	return &RealizedGainLossRepository{db: r.db, tx: tx}
}

func (r *RealizedGainLossRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetRealizedGains retrieves realized gain/loss records for the given
// portfolio IDs with transaction_date <= endDate, in one query.
//
// Returns a map of portfolioID -> []RealizedGainLoss sorted by
// transaction_date ascending. If portfolioIDs is empty, returns an empty map.
func (r *RealizedGainLossRepository) GetRealizedGains(portfolioIDs []string, endDate time.Time) (map[string][]model.RealizedGainLoss, error) {
	if len(portfolioIDs) == 0 {
		return make(map[string][]model.RealizedGainLoss), nil
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT id, portfolio_id, fund_id, transaction_id, transaction_date,
			shares_sold, cost_basis, sale_proceeds, realized_gain_loss, created_at
		FROM realized_gain_loss
		WHERE portfolio_id IN (` + placeholders(len(portfolioIDs)) + `)
		AND transaction_date <= ?
		ORDER BY transaction_date ASC
	`

	args := make([]any, 0, len(portfolioIDs)+1)
	args = append(args, idArgs(portfolioIDs)...)
	args = append(args, endDate.Format("2006-01-02"))

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query realized_gain_loss table: %w", err)
	}
	defer rows.Close()

	gainsByPortfolio := make(map[string][]model.RealizedGainLoss)

	for rows.Next() {
		var dateStr, createdAtStr string
		var g model.RealizedGainLoss

		err := rows.Scan(
			&g.ID,
			&g.PortfolioID,
			&g.FundID,
			&g.TransactionID,
			&dateStr,
			&g.SharesSold,
			&g.CostBasis,
			&g.SaleProceeds,
			&g.RealizedGainLoss,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan realized_gain_loss table results: %w", err)
		}

		g.TransactionDate, err = ParseTime(dateStr)
		if err != nil || g.TransactionDate.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		g.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil || g.CreatedAt.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		gainsByPortfolio[g.PortfolioID] = append(gainsByPortfolio[g.PortfolioID], g)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating realized_gain_loss table: %w", err)
	}

	return gainsByPortfolio, nil
}

// ReplaceForHolding rewrites the realized gain/loss records of one holding:
// all existing rows for the (portfolio, fund) pair are deleted and the given
// records inserted. Callers run this inside the same transaction as the
// ledger mutation that invalidated the old rows.
func (r *RealizedGainLossRepository) ReplaceForHolding(ctx context.Context, portfolioID, fundID string, records []model.RealizedGainLoss) error {
	deleteQuery := `DELETE FROM realized_gain_loss WHERE portfolio_id = ? AND fund_id = ?`

	if _, err := r.getQuerier().ExecContext(ctx, deleteQuery, portfolioID, fundID); err != nil {
		return fmt.Errorf("failed to delete realized_gain_loss rows: %w", err)
	}

	insertQuery := `
		INSERT INTO realized_gain_loss (id, portfolio_id, fund_id, transaction_id,
			transaction_date, shares_sold, cost_basis, sale_proceeds, realized_gain_loss)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, g := range records {
		id := g.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := r.getQuerier().ExecContext(ctx, insertQuery,
			id,
			portfolioID,
			fundID,
			g.TransactionID,
			g.TransactionDate.Format("2006-01-02"),
			g.SharesSold,
			g.CostBasis,
			g.SaleProceeds,
			g.RealizedGainLoss,
		)
		if err != nil {
			return fmt.Errorf("failed to insert realized_gain_loss row: %w", err)
		}
	}

	return nil
}
