package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mdehaan/portfolio-engine/internal/model"
)

// MaterializedRepository provides data access methods for the
// portfolio_history_materialized table, the pre-calculated daily snapshots
// that back fast history reads.
type MaterializedRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewMaterializedRepository creates a new MaterializedRepository with the provided database connection.
func NewMaterializedRepository(db *sql.DB) *MaterializedRepository {
	return &MaterializedRepository{db: db}
}

// WithTx returns a copy of the repository that runs all statements inside tx.
func (r *MaterializedRepository) WithTx(tx *sql.Tx) *MaterializedRepository {
	return &MaterializedRepository{db: r.db, tx: tx}
}

func (r *MaterializedRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetHistory retrieves materialized snapshots for the given portfolio IDs
// within the date range, inclusive on both ends, joined with the portfolio
// table for archive status. Results are sorted by date then portfolio ID.
func (r *MaterializedRepository) GetHistory(portfolioIDs []string, startDate, endDate time.Time) ([]model.PortfolioHistoryMaterialized, error) {
	if len(portfolioIDs) == 0 {
		return []model.PortfolioHistoryMaterialized{}, nil
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT m.id, m.portfolio_id, m.date, m.total_value, m.total_cost, m.total_dividends,
			m.unrealized_gain_loss, m.realized_gain_loss, p.is_archived, m.calculated_at
		FROM portfolio_history_materialized m
		JOIN portfolio p ON m.portfolio_id = p.id
		WHERE m.portfolio_id IN (` + placeholders(len(portfolioIDs)) + `)
		AND m.date >= ?
		AND m.date <= ?
		ORDER BY m.date ASC, m.portfolio_id ASC
	`

	args := make([]any, 0, len(portfolioIDs)+2)
	args = append(args, idArgs(portfolioIDs)...)
	args = append(args, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_history_materialized table: %w", err)
	}
	defer rows.Close()

	snapshots := []model.PortfolioHistoryMaterialized{}

	for rows.Next() {
		var dateStr, calculatedAtStr string
		var s model.PortfolioHistoryMaterialized

		err := rows.Scan(
			&s.ID,
			&s.PortfolioID,
			&dateStr,
			&s.Value,
			&s.Cost,
			&s.TotalDividends,
			&s.UnrealizedGain,
			&s.RealizedGain,
			&s.IsArchived,
			&calculatedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_history_materialized table results: %w", err)
		}

		s.Date, err = ParseTime(dateStr)
		if err != nil || s.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		s.CalculatedAt, err = ParseTime(calculatedAtStr)
		if err != nil || s.CalculatedAt.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		snapshots = append(snapshots, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_history_materialized table: %w", err)
	}

	return snapshots, nil
}

// CountForRange reports how many snapshots exist for the portfolios in the
// date range. Used to decide whether the materialized table can serve a read
// or the history has to be computed on demand.
func (r *MaterializedRepository) CountForRange(portfolioIDs []string, startDate, endDate time.Time) (int, error) {
	if len(portfolioIDs) == 0 {
		return 0, nil
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT COUNT(*)
		FROM portfolio_history_materialized
		WHERE portfolio_id IN (` + placeholders(len(portfolioIDs)) + `)
		AND date >= ?
		AND date <= ?
	`

	args := make([]any, 0, len(portfolioIDs)+2)
	args = append(args, idArgs(portfolioIDs)...)
	args = append(args, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	var count int
	if err := r.getQuerier().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count portfolio_history_materialized rows: %w", err)
	}

	return count, nil
}

// UpsertSnapshots writes daily snapshots, overwriting any existing snapshot
// for the same portfolio and date.
func (r *MaterializedRepository) UpsertSnapshots(ctx context.Context, snapshots []model.PortfolioHistoryMaterialized) error {
	query := `
		INSERT INTO portfolio_history_materialized (id, portfolio_id, date, total_value,
			total_cost, total_dividends, unrealized_gain_loss, realized_gain_loss)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, date) DO UPDATE SET
			total_value = excluded.total_value,
			total_cost = excluded.total_cost,
			total_dividends = excluded.total_dividends,
			unrealized_gain_loss = excluded.unrealized_gain_loss,
			realized_gain_loss = excluded.realized_gain_loss,
			calculated_at = CURRENT_TIMESTAMP
	`

	for _, s := range snapshots {
		id := s.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := r.getQuerier().ExecContext(ctx, query,
			id,
			s.PortfolioID,
			s.Date.Format("2006-01-02"),
			s.Value,
			s.Cost,
			s.TotalDividends,
			s.UnrealizedGain,
			s.RealizedGain,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert portfolio_history_materialized row: %w", err)
		}
	}

	return nil
}

// DeleteForPortfolio drops all snapshots of one portfolio. Mutations call
// this inside their transaction so stale snapshots never outlive the change
// that invalidated them.
func (r *MaterializedRepository) DeleteForPortfolio(ctx context.Context, portfolioID string) error {
	query := `DELETE FROM portfolio_history_materialized WHERE portfolio_id = ?`

	if _, err := r.getQuerier().ExecContext(ctx, query, portfolioID); err != nil {
		return fmt.Errorf("failed to delete portfolio_history_materialized rows: %w", err)
	}

	return nil
}
