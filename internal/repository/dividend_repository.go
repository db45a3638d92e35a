package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/model"
)

// DividendRepository provides data access methods for the dividend table.
type DividendRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewDividendRepository creates a new DividendRepository with the provided database connection.
func NewDividendRepository(db *sql.DB) *DividendRepository {
	return &DividendRepository{db: db}
}

// WithTx returns a copy of the repository that runs all statements inside tx.
func (r *DividendRepository) WithTx(tx *sql.Tx) *DividendRepository {
	return &DividendRepository{db: r.db, tx: tx}
}

func (r *DividendRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const dividendColumns = `id, fund_id, portfolio_fund_id, record_date, ex_dividend_date, shares_owned,
		dividend_per_share, total_amount, kind, reinvestment_status, buy_order_date,
		reinvestment_transaction_id, created_at`

// GetDividends retrieves all dividends for the given portfolio_fund IDs with
// ex_dividend_date <= endDate, in one query regardless of how many holdings
// are requested. The ex-dividend date is when the payout becomes part of a
// portfolio's cumulative dividend total, so the aggregation has no use for
// rows past endDate.
//
// Returns a map of portfolioFundID -> []Dividend sorted by ex_dividend_date
// ascending. If pfIDs is empty, returns an empty map.
func (r *DividendRepository) GetDividends(pfIDs []string, endDate time.Time) (map[string][]model.Dividend, error) {
	if len(pfIDs) == 0 {
		return make(map[string][]model.Dividend), nil
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT ` + dividendColumns + `
		FROM dividend
		WHERE portfolio_fund_id IN (` + placeholders(len(pfIDs)) + `)
		AND ex_dividend_date <= ?
		ORDER BY ex_dividend_date ASC
	`

	args := make([]any, 0, len(pfIDs)+1)
	args = append(args, idArgs(pfIDs)...)
	args = append(args, endDate.Format("2006-01-02"))

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend table: %w", err)
	}
	defer rows.Close()

	dividendsByPortfolioFund := make(map[string][]model.Dividend)

	for rows.Next() {
		d, err := scanDividend(rows)
		if err != nil {
			return nil, err
		}
		dividendsByPortfolioFund[d.PortfolioFundID] = append(dividendsByPortfolioFund[d.PortfolioFundID], d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividend table: %w", err)
	}

	return dividendsByPortfolioFund, nil
}

// GetDividendsPerPortfolio retrieves dividends enriched with fund names for
// API responses. If portfolioID is empty, dividends across all portfolios are
// returned.
func (r *DividendRepository) GetDividendsPerPortfolio(portfolioID string) ([]model.DividendResponse, error) {
	query := `
		SELECT d.id, d.fund_id, d.portfolio_fund_id, d.record_date, d.ex_dividend_date, d.shares_owned,
			d.dividend_per_share, d.total_amount, d.kind, d.reinvestment_status, d.buy_order_date,
			d.reinvestment_transaction_id, d.created_at, f.name
		FROM dividend d
		JOIN portfolio_fund pf ON d.portfolio_fund_id = pf.id
		JOIN fund f ON d.fund_id = f.id
	`

	var args []any
	if portfolioID != "" {
		query += ` WHERE pf.portfolio_id = ?`
		args = append(args, portfolioID)
	}
	query += ` ORDER BY d.record_date ASC`

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend table: %w", err)
	}
	defer rows.Close()

	dividends := []model.DividendResponse{}

	for rows.Next() {
		var recordDateStr, exDividendStr, createdAtStr string
		var buyOrderStr, reinvestmentTxID sql.NullString
		var d model.DividendResponse

		err := rows.Scan(
			&d.ID,
			&d.FundID,
			&d.PortfolioFundID,
			&recordDateStr,
			&exDividendStr,
			&d.SharesOwned,
			&d.DividendPerShare,
			&d.TotalAmount,
			&d.Kind,
			&d.ReinvestmentStatus,
			&buyOrderStr,
			&reinvestmentTxID,
			&createdAtStr,
			&d.FundName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend table results: %w", err)
		}

		if err := parseDividendDates(&d.Dividend, recordDateStr, exDividendStr, createdAtStr, buyOrderStr, reinvestmentTxID); err != nil {
			return nil, err
		}

		dividends = append(dividends, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividend table: %w", err)
	}

	return dividends, nil
}

// GetDividend retrieves a single dividend by ID.
// Returns ErrDividendNotFound if no dividend exists with the given ID.
func (r *DividendRepository) GetDividend(dividendID string) (model.Dividend, error) {
	query := `
		SELECT ` + dividendColumns + `
		FROM dividend
		WHERE id = ?
	`

	row := r.getQuerier().QueryRow(query, dividendID)
	d, err := scanDividendRow(row)
	if err == sql.ErrNoRows {
		return model.Dividend{}, apperrors.ErrDividendNotFound
	}
	if err != nil {
		return model.Dividend{}, err
	}

	return d, nil
}

// InsertDividend inserts a new dividend record.
func (r *DividendRepository) InsertDividend(ctx context.Context, d model.Dividend) error {
	query := `
		INSERT INTO dividend (id, fund_id, portfolio_fund_id, record_date, ex_dividend_date,
			shares_owned, dividend_per_share, total_amount, kind, reinvestment_status,
			buy_order_date, reinvestment_transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		d.ID,
		d.FundID,
		d.PortfolioFundID,
		d.RecordDate.Format("2006-01-02"),
		d.ExDividendDate.Format("2006-01-02"),
		d.SharesOwned,
		d.DividendPerShare,
		d.TotalAmount,
		string(d.Kind),
		string(d.ReinvestmentStatus),
		formatNullableDate(d.BuyOrderDate),
		nullableString(d.ReinvestmentTransactionID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert dividend: %w", err)
	}

	return nil
}

// UpdateDividend updates an existing dividend record.
// Returns ErrDividendNotFound if no dividend exists with the given ID.
func (r *DividendRepository) UpdateDividend(ctx context.Context, d model.Dividend) error {
	query := `
		UPDATE dividend
		SET record_date = ?, ex_dividend_date = ?, shares_owned = ?, dividend_per_share = ?,
			total_amount = ?, reinvestment_status = ?, buy_order_date = ?,
			reinvestment_transaction_id = ?
		WHERE id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		d.RecordDate.Format("2006-01-02"),
		d.ExDividendDate.Format("2006-01-02"),
		d.SharesOwned,
		d.DividendPerShare,
		d.TotalAmount,
		string(d.ReinvestmentStatus),
		formatNullableDate(d.BuyOrderDate),
		nullableString(d.ReinvestmentTransactionID),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dividend: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrDividendNotFound
	}

	return nil
}

// DeleteDividend removes a dividend record.
// Returns ErrDividendNotFound if no dividend exists with the given ID.
func (r *DividendRepository) DeleteDividend(ctx context.Context, dividendID string) error {
	query := `DELETE FROM dividend WHERE id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, dividendID)
	if err != nil {
		return fmt.Errorf("failed to delete dividend: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrDividendNotFound
	}

	return nil
}

func scanDividend(rows *sql.Rows) (model.Dividend, error) {
	var recordDateStr, exDividendStr, createdAtStr string
	var buyOrderStr, reinvestmentTxID sql.NullString
	var d model.Dividend

	err := rows.Scan(
		&d.ID,
		&d.FundID,
		&d.PortfolioFundID,
		&recordDateStr,
		&exDividendStr,
		&d.SharesOwned,
		&d.DividendPerShare,
		&d.TotalAmount,
		&d.Kind,
		&d.ReinvestmentStatus,
		&buyOrderStr,
		&reinvestmentTxID,
		&createdAtStr,
	)
	if err != nil {
		return model.Dividend{}, fmt.Errorf("failed to scan dividend table results: %w", err)
	}

	if err := parseDividendDates(&d, recordDateStr, exDividendStr, createdAtStr, buyOrderStr, reinvestmentTxID); err != nil {
		return model.Dividend{}, err
	}

	return d, nil
}

func scanDividendRow(row *sql.Row) (model.Dividend, error) {
	var recordDateStr, exDividendStr, createdAtStr string
	var buyOrderStr, reinvestmentTxID sql.NullString
	var d model.Dividend

	err := row.Scan(
		&d.ID,
		&d.FundID,
		&d.PortfolioFundID,
		&recordDateStr,
		&exDividendStr,
		&d.SharesOwned,
		&d.DividendPerShare,
		&d.TotalAmount,
		&d.Kind,
		&d.ReinvestmentStatus,
		&buyOrderStr,
		&reinvestmentTxID,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return model.Dividend{}, err
	}
	if err != nil {
		return model.Dividend{}, fmt.Errorf("failed to scan dividend table results: %w", err)
	}

	if err := parseDividendDates(&d, recordDateStr, exDividendStr, createdAtStr, buyOrderStr, reinvestmentTxID); err != nil {
		return model.Dividend{}, err
	}

	return d, nil
}

func parseDividendDates(d *model.Dividend, recordDateStr, exDividendStr, createdAtStr string, buyOrderStr, reinvestmentTxID sql.NullString) error {
	var err error

	d.RecordDate, err = ParseTime(recordDateStr)
	if err != nil || d.RecordDate.IsZero() {
		return fmt.Errorf("failed to parse date: %w", err)
	}

	d.ExDividendDate, err = ParseTime(exDividendStr)
	if err != nil || d.ExDividendDate.IsZero() {
		return fmt.Errorf("failed to parse date: %w", err)
	}

	// BuyOrderDate is nullable
	if buyOrderStr.Valid {
		buyOrder, err := ParseTime(buyOrderStr.String)
		if err != nil || buyOrder.IsZero() {
			return fmt.Errorf("failed to parse buy_order_date: %w", err)
		}
		d.BuyOrderDate = &buyOrder
	}

	// ReinvestmentTransactionID is nullable
	if reinvestmentTxID.Valid {
		d.ReinvestmentTransactionID = reinvestmentTxID.String
	}

	d.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil || d.CreatedAt.IsZero() {
		return fmt.Errorf("failed to parse date: %w", err)
	}

	return nil
}

func formatNullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
