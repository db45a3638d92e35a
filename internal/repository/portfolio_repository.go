package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// WithTx returns a copy of the repository that runs all statements inside tx.
func (r *PortfolioRepository) WithTx(tx *sql.Tx) *PortfolioRepository {
	return &PortfolioRepository{db: r.db, tx: tx}
}

func (r *PortfolioRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetPortfolios retrieves portfolios according to the filter. Archived and
// overview-excluded portfolios are skipped unless the filter includes them.
func (r *PortfolioRepository) GetPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	query := `
		SELECT id, name, description, is_archived, exclude_from_overview
		FROM portfolio
		WHERE 1=1
	`
	if !filter.IncludeArchived {
		query += " AND is_archived = 0"
	}
	if !filter.IncludeExcluded {
		query += " AND exclude_from_overview = 0"
	}
	query += " ORDER BY name ASC"

	rows, err := r.getQuerier().Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}

	for rows.Next() {
		var p model.Portfolio
		var description sql.NullString

		err := rows.Scan(
			&p.ID,
			&p.Name,
			&description,
			&p.IsArchived,
			&p.ExcludeFromOverview,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}
		if description.Valid {
			p.Description = description.String
		}
		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// GetPortfolio retrieves a single portfolio by ID.
// Returns ErrPortfolioNotFound if no portfolio exists with the given ID.
func (r *PortfolioRepository) GetPortfolio(portfolioID string) (model.Portfolio, error) {
	query := `
		SELECT id, name, description, is_archived, exclude_from_overview
		FROM portfolio
		WHERE id = ?
	`

	var p model.Portfolio
	var description sql.NullString

	err := r.getQuerier().QueryRow(query, portfolioID).Scan(
		&p.ID,
		&p.Name,
		&description,
		&p.IsArchived,
		&p.ExcludeFromOverview,
	)
	if err == sql.ErrNoRows {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to scan portfolio table results: %w", err)
	}
	if description.Valid {
		p.Description = description.String
	}

	return p, nil
}

// InsertPortfolio inserts a new portfolio record.
func (r *PortfolioRepository) InsertPortfolio(ctx context.Context, p model.Portfolio) error {
	query := `
		INSERT INTO portfolio (id, name, description, is_archived, exclude_from_overview)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.IsArchived,
		p.ExcludeFromOverview,
	)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}

	return nil
}

// UpdatePortfolio updates an existing portfolio record.
// Returns ErrPortfolioNotFound if no portfolio exists with the given ID.
func (r *PortfolioRepository) UpdatePortfolio(ctx context.Context, p model.Portfolio) error {
	query := `
		UPDATE portfolio
		SET name = ?, description = ?, is_archived = ?, exclude_from_overview = ?
		WHERE id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		p.Name,
		p.Description,
		p.IsArchived,
		p.ExcludeFromOverview,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrPortfolioNotFound
	}

	return nil
}

// DeletePortfolio removes a portfolio and, through cascading foreign keys,
// its holdings, transactions, dividends and derived records.
func (r *PortfolioRepository) DeletePortfolio(ctx context.Context, portfolioID string) error {
	query := `DELETE FROM portfolio WHERE id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrPortfolioNotFound
	}

	return nil
}
