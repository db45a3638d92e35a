package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mdehaan/portfolio-engine/internal/api/request"
	"github.com/mdehaan/portfolio-engine/internal/api/response"
	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/model"
	"github.com/mdehaan/portfolio-engine/internal/service"
	"github.com/mdehaan/portfolio-engine/internal/validation"
)

// DividendHandler handles HTTP requests for dividend endpoints.
type DividendHandler struct {
	dividendService *service.DividendService
}

// NewDividendHandler creates a new DividendHandler with the provided service dependency.
func NewDividendHandler(dividendService *service.DividendService) *DividendHandler {
	return &DividendHandler{
		dividendService: dividendService,
	}
}

// AllDividends handles GET requests to retrieve all dividends across all portfolios.
//
// Endpoint: GET /api/dividend
// Response: 200 OK with array of DividendResponse
// Error: 500 Internal Server Error if retrieval fails
func (h *DividendHandler) AllDividends(w http.ResponseWriter, _ *http.Request) {
	dividends, err := h.dividendService.GetDividends("")
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveDividends.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, dividends)
}

// DividendsPerPortfolio handles GET requests to retrieve all dividends for one portfolio.
//
// Endpoint: GET /api/dividend/portfolio/{uuid}
// Response: 200 OK with array of DividendResponse
// Error: 400 Bad Request if portfolio ID is invalid (validated by middleware)
// Error: 500 Internal Server Error if retrieval fails
func (h *DividendHandler) DividendsPerPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	dividends, err := h.dividendService.GetDividends(portfolioID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveDividends.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, dividends)
}

// GetDividend handles GET requests to retrieve a single dividend by ID.
//
// Endpoint: GET /api/dividend/{uuid}
// Response: 200 OK with Dividend
// Error: 404 Not Found if the dividend does not exist
func (h *DividendHandler) GetDividend(w http.ResponseWriter, r *http.Request) {
	dividendID := chi.URLParam(r, "uuid")

	dividend, err := h.dividendService.GetDividend(dividendID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDividendNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrDividendNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveDividends.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, dividend)
}

// CreateDividend handles POST requests to record a dividend.
//
// Endpoint: POST /api/dividend
// Request Body: CreateDividendRequest
// Response: 201 Created with Dividend (sharesOwned and totalAmount derived)
// Error: 400 Bad Request if validation fails or the reinvestment details are inconsistent
// Error: 404 Not Found if the holding does not exist
func (h *DividendHandler) CreateDividend(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateDividendRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateDividend(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	recordDate, _ := time.Parse("2006-01-02", req.RecordDate)
	exDividendDate, _ := time.Parse("2006-01-02", req.ExDividendDate)

	dividend := model.Dividend{
		PortfolioFundID:  req.PortfolioFundID,
		Kind:             model.DividendKind(req.Kind),
		RecordDate:       recordDate,
		ExDividendDate:   exDividendDate,
		DividendPerShare: req.DividendPerShare,
	}
	if req.BuyOrderDate != nil {
		buyOrderDate, _ := time.Parse("2006-01-02", *req.BuyOrderDate)
		dividend.BuyOrderDate = &buyOrderDate
	}

	created, err := h.dividendService.CreateDividend(r.Context(), dividend, service.Reinvestment{
		Shares: req.ReinvestmentShares,
		Price:  req.ReinvestmentPrice,
	})
	if err != nil {
		respondDividendError(w, err, "failed to create dividend")
		return
	}

	response.RespondJSON(w, http.StatusCreated, created)
}

// UpdateDividend handles PUT requests to update a dividend. Supplying
// reinvestment shares and price on a pending stock dividend completes its
// reinvestment.
//
// Endpoint: PUT /api/dividend/{uuid}
// Request Body: UpdateDividendRequest
// Response: 200 OK with updated Dividend
// Error: 404 Not Found if the dividend does not exist
func (h *DividendHandler) UpdateDividend(w http.ResponseWriter, r *http.Request) {
	dividendID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdateDividendRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateDividend(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	recordDate, _ := time.Parse("2006-01-02", req.RecordDate)
	exDividendDate, _ := time.Parse("2006-01-02", req.ExDividendDate)

	dividend := model.Dividend{
		ID:               dividendID,
		RecordDate:       recordDate,
		ExDividendDate:   exDividendDate,
		DividendPerShare: req.DividendPerShare,
	}
	if req.BuyOrderDate != nil {
		buyOrderDate, _ := time.Parse("2006-01-02", *req.BuyOrderDate)
		dividend.BuyOrderDate = &buyOrderDate
	}

	updated, err := h.dividendService.UpdateDividend(r.Context(), dividend, service.Reinvestment{
		Shares: req.ReinvestmentShares,
		Price:  req.ReinvestmentPrice,
	})
	if err != nil {
		respondDividendError(w, err, "failed to update dividend")
		return
	}

	response.RespondJSON(w, http.StatusOK, updated)
}

// DeleteDividend handles DELETE requests to remove a dividend and any linked
// reinvestment transaction.
//
// Endpoint: DELETE /api/dividend/{uuid}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if the dividend does not exist
func (h *DividendHandler) DeleteDividend(w http.ResponseWriter, r *http.Request) {
	dividendID := chi.URLParam(r, "uuid")

	if err := h.dividendService.DeleteDividend(r.Context(), dividendID); err != nil {
		respondDividendError(w, err, "failed to delete dividend")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// respondDividendError maps dividend lifecycle failures onto HTTP statuses.
func respondDividendError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrDividendNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrDividendNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrPortfolioFundNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioFundNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInvalidReinvestment):
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidReinvestment.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInsufficientShares):
		response.RespondError(w, http.StatusConflict, apperrors.ErrInsufficientShares.Error(), err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}
