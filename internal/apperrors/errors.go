package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrFundNotFound indicates that a fund with the given ID does not exist.
	ErrFundNotFound = errors.New("fund not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDividendNotFound indicates that a dividend record with the given ID does not exist.
	ErrDividendNotFound = errors.New("dividend not found")

	// ErrPortfolioFundNotFound indicates that a portfolio-fund relationship does not exist.
	ErrPortfolioFundNotFound = errors.New("portfolio-fund relationship not found")
)

// Business logic errors represent constraint violations. These errors
// indicate that an operation cannot be completed due to business rules; the
// store is left unchanged when they are raised.
var (
	// ErrInsufficientShares indicates that a sell transaction would reduce a
	// holding's share count below zero. Sells are never silently clamped.
	ErrInsufficientShares = errors.New("insufficient shares for sale")

	// ErrInvalidReinvestment indicates that reinvestment shares or price were
	// supplied for a dividend but are not both strictly positive, or that a
	// reinvestment was attempted on a cash dividend.
	ErrInvalidReinvestment = errors.New("invalid reinvestment")

	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Operation failure errors represent system-level failures when retrieving
// or processing data.
var (
	ErrFailedToRetrievePortfolios   = errors.New("failed to retrieve portfolios")
	ErrFailedToGetPortfolioSummary  = errors.New("failed to get portfolio summary")
	ErrFailedToGetPortfolioHistory  = errors.New("failed to get portfolio history")
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToRetrieveTransaction  = errors.New("failed to retrieve transaction")
	ErrFailedToRetrieveDividends    = errors.New("failed to retrieve dividends")
	ErrFailedToRetrieveFunds        = errors.New("failed to retrieve funds")
	ErrFailedToRetrieveFundPrices   = errors.New("failed to retrieve fund prices")
	ErrFailedToGetVersionInfo       = errors.New("failed to get version information")
)
