package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pesaprime/internal/config"
	"pesaprime/internal/logger"
	"pesaprime/internal/middleware"
	"pesaprime/internal/models"
	"pesaprime/internal/pagination"
	"pesaprime/internal/pricefeed"
	"pesaprime/internal/services"
	"pesaprime/internal/store"
	"pesaprime/internal/validator"
)

const testUserID = "0190f1a2-0000-7000-8000-0000000000aa"

// --- mock services ---

type mockUserService struct {
	registerFn     func(in services.RegisterInput) (*models.User, error)
	authenticateFn func(email, password string) (*models.User, error)
	getUserByIDFn  func(id string) (*models.User, error)
}

func (m *mockUserService) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	if m.registerFn != nil {
		return m.registerFn(in)
	}
	return &models.User{}, nil
}

func (m *mockUserService) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

type mockWalletService struct {
	getBalanceFn func(userID string) (*services.Balance, error)
	depositFn    func(userID string, amount decimal.Decimal, phone string) (*services.Receipt, error)
	withdrawFn   func(userID string, amount decimal.Decimal, phone string) (*services.Receipt, error)
	getPnLFn     func(userID string) (*services.PnL, error)
}

func (m *mockWalletService) GetBalance(_ context.Context, userID string) (*services.Balance, error) {
	if m.getBalanceFn != nil {
		return m.getBalanceFn(userID)
	}
	return &services.Balance{}, nil
}

func (m *mockWalletService) Deposit(_ context.Context, userID string, amount decimal.Decimal, phone string) (*services.Receipt, error) {
	if m.depositFn != nil {
		return m.depositFn(userID, amount, phone)
	}
	return &services.Receipt{}, nil
}

func (m *mockWalletService) Withdraw(_ context.Context, userID string, amount decimal.Decimal, phone string) (*services.Receipt, error) {
	if m.withdrawFn != nil {
		return m.withdrawFn(userID, amount, phone)
	}
	return &services.Receipt{}, nil
}

func (m *mockWalletService) GetPnL(_ context.Context, userID string) (*services.PnL, error) {
	if m.getPnLFn != nil {
		return m.getPnLFn(userID)
	}
	return &services.PnL{Trend: services.TrendNeutral}, nil
}

type mockInvestmentService struct {
	buyFn        func(userID string, assetID int, amount decimal.Decimal, phone string) (*services.InvestmentResult, error)
	listActiveFn func(userID string) ([]models.Investment, error)
	closeFn      func(userID, investmentID string) (*services.InvestmentResult, error)
}

func (m *mockInvestmentService) Buy(_ context.Context, userID string, assetID int, amount decimal.Decimal, phone string) (*services.InvestmentResult, error) {
	if m.buyFn != nil {
		return m.buyFn(userID, assetID, amount, phone)
	}
	return &services.InvestmentResult{}, nil
}

func (m *mockInvestmentService) RefreshValuation(_ context.Context, _ string) (*services.Valuation, error) {
	return &services.Valuation{}, nil
}

func (m *mockInvestmentService) GetPnL(_ context.Context, _ string) (*services.PnL, error) {
	return &services.PnL{}, nil
}

func (m *mockInvestmentService) ListActive(_ context.Context, userID string) ([]models.Investment, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(userID)
	}
	return []models.Investment{}, nil
}

func (m *mockInvestmentService) Close(_ context.Context, userID, investmentID string) (*services.InvestmentResult, error) {
	if m.closeFn != nil {
		return m.closeFn(userID, investmentID)
	}
	return &services.InvestmentResult{}, nil
}

type mockActivityService struct {
	listRecentFn func(userID string) ([]models.Activity, error)
	listFn       func(userID string, filter services.ActivityFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Activity], error)
}

func (m *mockActivityService) Record(context.Context, store.Ledger, *models.User, models.ActivityType, decimal.Decimal, string) (*models.Activity, error) {
	return &models.Activity{}, nil
}

func (m *mockActivityService) ListRecent(_ context.Context, userID string) ([]models.Activity, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(userID)
	}
	return []models.Activity{}, nil
}

func (m *mockActivityService) List(_ context.Context, userID string, filter services.ActivityFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Activity], error) {
	if m.listFn != nil {
		return m.listFn(userID, filter, page)
	}
	resp := pagination.NewPageResponse[models.Activity](nil, 1, pagination.DefaultPageSize, 0)
	return &resp, nil
}

type mockQuoter struct {
	quoteFn func(ids ...int) ([]pricefeed.Quote, error)
}

func (m *mockQuoter) Quote(_ context.Context, ids ...int) ([]pricefeed.Quote, error) {
	if m.quoteFn != nil {
		return m.quoteFn(ids...)
	}
	return []pricefeed.Quote{}, nil
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
	config.Set(&config.Config{JWTSecret: "handler-test-secret", JWTExpirationDur: time.Hour})
}

// newTestEngine returns an engine with the error middleware the handlers
// report through.
func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func parseJSONArray(t *testing.T, rec *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var result []interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON array: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
