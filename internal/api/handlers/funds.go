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

// FundHandler handles HTTP requests for fund endpoints.
type FundHandler struct {
	fundService *service.FundService
}

// NewFundHandler creates a new FundHandler with the provided service dependency.
func NewFundHandler(fundService *service.FundService) *FundHandler {
	return &FundHandler{
		fundService: fundService,
	}
}

// Funds handles GET requests to list all funds.
//
// Endpoint: GET /api/fund
// Response: 200 OK with array of Fund
// Error: 500 Internal Server Error if retrieval fails
func (h *FundHandler) Funds(w http.ResponseWriter, _ *http.Request) {
	funds, err := h.fundService.GetFunds()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveFunds.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, funds)
}

// GetFund handles GET requests for a single fund.
//
// Endpoint: GET /api/fund/{uuid}
// Response: 200 OK with Fund
// Error: 404 Not Found if the fund does not exist
func (h *FundHandler) GetFund(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "uuid")

	fund, err := h.fundService.GetFund(fundID)
	if err != nil {
		if errors.Is(err, apperrors.ErrFundNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrFundNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveFunds.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, fund)
}

// CreateFund handles POST requests to create a fund.
//
// Endpoint: POST /api/fund
// Request Body: CreateFundRequest (name, isin, symbol, currency)
// Response: 201 Created with Fund
// Error: 400 Bad Request if validation fails
func (h *FundHandler) CreateFund(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateFundRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateFund(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	fund, err := h.fundService.CreateFund(r.Context(), model.Fund{
		Name:     req.Name,
		Isin:     req.Isin,
		Symbol:   req.Symbol,
		Currency: req.Currency,
	})
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to create fund", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, fund)
}

// AddFundPrice handles POST requests to record a price observation.
//
// Endpoint: POST /api/fund/{uuid}/price
// Request Body: CreateFundPriceRequest (date, price)
// Response: 201 Created with FundPrice
// Error: 404 Not Found if the fund does not exist
func (h *FundHandler) AddFundPrice(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.CreateFundPriceRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateFundPrice(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	date, _ := time.Parse("2006-01-02", req.Date)

	price, err := h.fundService.AddFundPrice(r.Context(), model.FundPrice{
		FundID: fundID,
		Date:   date,
		Price:  req.Price,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrFundNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrFundNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to record fund price", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, price)
}

// UnlinkPortfolioFund handles DELETE requests to detach a fund from a
// portfolio, removing the holding and everything attached to it.
//
// Endpoint: DELETE /api/fund/holding/{uuid}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if the holding does not exist
func (h *FundHandler) UnlinkPortfolioFund(w http.ResponseWriter, r *http.Request) {
	pfID := chi.URLParam(r, "uuid")

	if err := h.fundService.UnlinkFund(r.Context(), pfID); err != nil {
		if errors.Is(err, apperrors.ErrPortfolioFundNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioFundNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to unlink fund", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
