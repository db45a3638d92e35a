package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mdehaan/portfolio-engine/internal/model"
	"github.com/mdehaan/portfolio-engine/internal/testutil"
)

func setupDividendHandler(t *testing.T) (*DividendHandler, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ds := testutil.NewTestDividendService(t, db)
	return NewDividendHandler(ds), db
}

func TestDividendHandler_CreateDividend(t *testing.T) {
	t.Run("creates a cash dividend with derived shares", func(t *testing.T) {
		handler, db := setupDividendHandler(t)

		portfolio := testutil.NewPortfolio().Build(t, db)
		fund := testutil.NewFund().Build(t, db)
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pf.ID).
			WithDate(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)).
			WithShares(100).WithCostPerShare(10).
			Build(t, db)

		body := fmt.Sprintf(`{"portfolioFundId":%q,"kind":"cash","recordDate":"2024-02-01","exDividendDate":"2024-02-05","dividendPerShare":0.5}`, pf.ID)
		req := testutil.NewRequestWithBody(http.MethodPost, "/api/dividend", nil, body)
		w := httptest.NewRecorder()

		handler.CreateDividend(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var created model.Dividend
		if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if created.SharesOwned != 100 {
			t.Errorf("Expected derived shares 100, got %v", created.SharesOwned)
		}
		if created.TotalAmount != 50 {
			t.Errorf("Expected total amount 50, got %v", created.TotalAmount)
		}
	})

	t.Run("rejects reinvestment shares without a price", func(t *testing.T) {
		handler, db := setupDividendHandler(t)

		portfolio := testutil.NewPortfolio().Build(t, db)
		fund := testutil.NewFund().Build(t, db)
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		body := fmt.Sprintf(`{"portfolioFundId":%q,"kind":"stock","recordDate":"2024-02-01","exDividendDate":"2024-02-05","dividendPerShare":0.5,"buyOrderDate":"2024-02-08","reinvestmentShares":4}`, pf.ID)
		req := testutil.NewRequestWithBody(http.MethodPost, "/api/dividend", nil, body)
		w := httptest.NewRecorder()

		handler.CreateDividend(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for unpaired reinvestment fields, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects an explicit zero reinvestment price", func(t *testing.T) {
		handler, db := setupDividendHandler(t)

		portfolio := testutil.NewPortfolio().Build(t, db)
		fund := testutil.NewFund().Build(t, db)
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		body := fmt.Sprintf(`{"portfolioFundId":%q,"kind":"stock","recordDate":"2024-02-01","exDividendDate":"2024-02-05","dividendPerShare":0.5,"buyOrderDate":"2024-02-08","reinvestmentShares":4,"reinvestmentPrice":0}`, pf.ID)
		req := testutil.NewRequestWithBody(http.MethodPost, "/api/dividend", nil, body)
		w := httptest.NewRecorder()

		handler.CreateDividend(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for zero price, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		handler, db := setupDividendHandler(t)

		portfolio := testutil.NewPortfolio().Build(t, db)
		fund := testutil.NewFund().Build(t, db)
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		body := fmt.Sprintf(`{"portfolioFundId":%q,"kind":"scrip","recordDate":"2024-02-01","exDividendDate":"2024-02-05","dividendPerShare":0.5}`, pf.ID)
		req := testutil.NewRequestWithBody(http.MethodPost, "/api/dividend", nil, body)
		w := httptest.NewRecorder()

		handler.CreateDividend(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for unknown kind, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 404 for unknown holding", func(t *testing.T) {
		handler, _ := setupDividendHandler(t)

		body := fmt.Sprintf(`{"portfolioFundId":%q,"kind":"cash","recordDate":"2024-02-01","exDividendDate":"2024-02-05","dividendPerShare":0.5}`, testutil.MakeID())
		req := testutil.NewRequestWithBody(http.MethodPost, "/api/dividend", nil, body)
		w := httptest.NewRecorder()

		handler.CreateDividend(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestDividendHandler_DeleteDividend(t *testing.T) {
	t.Run("deletes and returns 204", func(t *testing.T) {
		handler, db := setupDividendHandler(t)

		portfolio := testutil.NewPortfolio().Build(t, db)
		fund := testutil.NewFund().Build(t, db)
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)
		dividend := testutil.NewDividend(fund.ID, pf.ID).Cash().Build(t, db)

		req := testutil.NewRequestWithURLParams(http.MethodDelete, "/api/dividend/"+dividend.ID,
			map[string]string{"uuid": dividend.ID})
		w := httptest.NewRecorder()

		handler.DeleteDividend(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("Expected 204, got %d: %s", w.Code, w.Body.String())
		}
		testutil.AssertRowCount(t, db, "dividend", 0)
	})

	t.Run("returns 404 for unknown dividend", func(t *testing.T) {
		handler, _ := setupDividendHandler(t)

		id := testutil.MakeID()
		req := testutil.NewRequestWithURLParams(http.MethodDelete, "/api/dividend/"+id,
			map[string]string{"uuid": id})
		w := httptest.NewRecorder()

		handler.DeleteDividend(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}
