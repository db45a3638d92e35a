package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mdehaan/portfolio-engine/internal/api/request"
	"github.com/mdehaan/portfolio-engine/internal/api/response"
	"github.com/mdehaan/portfolio-engine/internal/apperrors"
	"github.com/mdehaan/portfolio-engine/internal/model"
	"github.com/mdehaan/portfolio-engine/internal/service"
	"github.com/mdehaan/portfolio-engine/internal/validation"
)

// PortfolioHandler handles HTTP requests for portfolio endpoints.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	historyService   *service.HistoryService
	fundService      *service.FundService
}

// NewPortfolioHandler creates a new PortfolioHandler with the provided service dependencies.
func NewPortfolioHandler(
	portfolioService *service.PortfolioService,
	historyService *service.HistoryService,
	fundService *service.FundService,
) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		historyService:   historyService,
		fundService:      fundService,
	}
}

// filterFromQuery builds a PortfolioFilter from query parameters.
// includeArchived=true and includeExcluded=true widen the result set.
func filterFromQuery(r *http.Request) model.PortfolioFilter {
	q := r.URL.Query()
	return model.PortfolioFilter{
		IncludeArchived: q.Get("includeArchived") == "true",
		IncludeExcluded: q.Get("includeExcluded") == "true",
	}
}

// Portfolios handles GET requests to list portfolios.
//
// Endpoint: GET /api/portfolio?includeArchived=&includeExcluded=
// Response: 200 OK with array of Portfolio
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.portfolioService.GetPortfolios(filterFromQuery(r))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePortfolios.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolios)
}

// GetPortfolio handles GET requests for a single portfolio.
//
// Endpoint: GET /api/portfolio/{uuid}
// Response: 200 OK with Portfolio
// Error: 404 Not Found if the portfolio does not exist
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	portfolio, err := h.portfolioService.GetPortfolio(portfolioID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePortfolios.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolio)
}

// PortfolioSummary handles GET requests for today's valuation of every
// portfolio.
//
// Endpoint: GET /api/portfolio/summary
// Response: 200 OK with array of PortfolioSummary
// Error: 500 Internal Server Error if the calculation fails
func (h *PortfolioHandler) PortfolioSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.historyService.GetPortfolioSummaries(filterFromQuery(r))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetPortfolioSummary.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, summaries)
}

// PortfolioHistory handles GET requests for day-by-day portfolio valuations.
//
// Endpoint: GET /api/portfolio/history?startDate=&endDate=
// Endpoint: GET /api/portfolio/{uuid}/history?startDate=&endDate=
// Response: 200 OK with array of PortfolioHistory (one entry per day)
// Error: 400 Bad Request if the date range is malformed or inverted
// Error: 500 Internal Server Error if the calculation fails
func (h *PortfolioHandler) PortfolioHistory(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date range", err.Error())
		return
	}

	history, err := h.historyService.GetPortfolioHistory(portfolioID, filterFromQuery(r), startDate, endDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidDateRange) {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidDateRange.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetPortfolioHistory.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, history)
}

// CreatePortfolio handles POST requests to create a portfolio.
//
// Endpoint: POST /api/portfolio
// Request Body: CreatePortfolioRequest (name, description, excludeFromOverview)
// Response: 201 Created with Portfolio
// Error: 400 Bad Request if validation fails
func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreatePortfolioRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreatePortfolio(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(r.Context(), model.Portfolio{
		Name:                req.Name,
		Description:         req.Description,
		ExcludeFromOverview: req.ExcludeFromOverview,
	})
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to create portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, portfolio)
}

// UpdatePortfolio handles PUT requests to update a portfolio.
//
// Endpoint: PUT /api/portfolio/{uuid}
// Request Body: UpdatePortfolioRequest
// Response: 200 OK with updated Portfolio
// Error: 404 Not Found if the portfolio does not exist
func (h *PortfolioHandler) UpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdatePortfolioRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdatePortfolio(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	portfolio, err := h.portfolioService.UpdatePortfolio(r.Context(), model.Portfolio{
		ID:                  portfolioID,
		Name:                req.Name,
		Description:         req.Description,
		IsArchived:          req.IsArchived,
		ExcludeFromOverview: req.ExcludeFromOverview,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to update portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolio)
}

// DeletePortfolio handles DELETE requests to remove a portfolio.
//
// Endpoint: DELETE /api/portfolio/{uuid}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if the portfolio does not exist
func (h *PortfolioHandler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	if err := h.portfolioService.DeletePortfolio(r.Context(), portfolioID); err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to delete portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// LinkFund handles POST requests to attach a fund to a portfolio.
//
// Endpoint: POST /api/portfolio/{uuid}/fund
// Request Body: LinkFundRequest (fundId)
// Response: 201 Created with PortfolioFund
// Error: 404 Not Found if the portfolio or fund does not exist
func (h *PortfolioHandler) LinkFund(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.LinkFundRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUUID(req.FundID); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid fund ID", err.Error())
		return
	}

	if _, err := h.portfolioService.GetPortfolio(portfolioID); err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePortfolios.Error(), err.Error())
		return
	}

	pf, err := h.fundService.LinkFund(r.Context(), portfolioID, req.FundID)
	if err != nil {
		if errors.Is(err, apperrors.ErrFundNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrFundNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to link fund", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, pf)
}
