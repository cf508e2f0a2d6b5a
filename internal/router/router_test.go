package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pesaprime/internal/config"
	"pesaprime/internal/lock"
	"pesaprime/internal/logger"
	"pesaprime/internal/pricefeed"
	"pesaprime/internal/services"
	"pesaprime/internal/store"
	"pesaprime/internal/testutil"
	"pesaprime/internal/validator"
)

// midRand makes every simulated draw land on the middle of its range, so
// quotes equal catalog base prices.
type midRand struct{}

func (midRand) Float64() float64 { return 0.5 }

// testApp holds the full application stack for end-to-end tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
	config.Set(&config.Config{JWTSecret: "router-test-secret", JWTExpirationDur: time.Hour})
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T, bonus string) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	feed := pricefeed.NewFeed(pricefeed.DefaultCatalog(), pricefeed.Config{Rand: midRand{}}, nil)
	bundle := services.NewBundle(store.NewGormLedger(db), lock.NewLocalLocker(), feed, services.Settings{
		Currency:    "KES",
		SignupBonus: decimal.RequireFromString(bonus),
	})
	return &testApp{DB: db, Router: New(bundle, []string{"*"})}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
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

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error body, got %s", rec.Body.String())
	}
	return errObj["code"].(string)
}

// registerUser registers a new user and returns the access token and user ID.
func (app *testApp) registerUser(t *testing.T, email, phone string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"name":"Test User","email":%q,"phone_number":%q,"password":"password123"}`, email, phone)
	rec := app.request(http.MethodPost, "/api/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), user["id"].(string)
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestHealthAndMarketArePublic(t *testing.T) {
	app := setupApp(t, "0")

	rec := app.request(http.MethodGet, "/api/health", "", "")
	expectStatus(t, rec, http.StatusOK)

	rec = app.request(http.MethodGet, "/api/assets/market", "", "")
	expectStatus(t, rec, http.StatusOK)
	quotes := parseJSONArray(t, rec)
	if len(quotes) != 8 {
		t.Fatalf("expected 8 quotes, got %d", len(quotes))
	}
	btc := quotes[4].(map[string]interface{})
	if btc["symbol"] != "BTC" || btc["current_price"] != float64(5587900) {
		t.Errorf("unexpected BTC quote %v", btc)
	}
	if btc["source"] != pricefeed.SourceSimulated {
		t.Errorf("expected simulated source, got %v", btc["source"])
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t, "0")

	for _, path := range []string{"/api/auth/me", "/api/wallet/balance", "/api/investments/my", "/api/activities/my"} {
		rec := app.request(http.MethodGet, path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}

	rec := app.request(http.MethodGet, "/api/wallet/balance", "", "not-a-token")
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t, "0")
	token, userID := app.registerUser(t, "auth@test.com", "+254711000001")

	rec := app.request(http.MethodPost, "/api/auth/login", `{"email":"AUTH@test.com","password":"password123"}`, "")
	expectStatus(t, rec, http.StatusOK)
	if parseJSON(t, rec)["token_type"] != "bearer" {
		t.Error("expected bearer token type")
	}

	rec = app.request(http.MethodGet, "/api/auth/me", "", token)
	expectStatus(t, rec, http.StatusOK)
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["id"] != userID || user["email"] != "auth@test.com" {
		t.Errorf("unexpected profile %v", user)
	}

	rec = app.request(http.MethodPost, "/api/auth/login", `{"email":"auth@test.com","password":"wrong-password"}`, "")
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = app.request(http.MethodPost, "/api/auth/register",
		`{"name":"Dup","email":"other@test.com","phone_number":"+254711000001","password":"password123"}`, "")
	expectStatus(t, rec, http.StatusConflict)
	if code := errorCode(t, rec); code != "DUPLICATE_PHONE" {
		t.Errorf("expected DUPLICATE_PHONE, got %s", code)
	}
}

func TestWalletFlow(t *testing.T) {
	app := setupApp(t, "5000")
	token, _ := app.registerUser(t, "wallet@test.com", "+254711000002")

	rec := app.request(http.MethodGet, "/api/wallet/balance", "", token)
	expectStatus(t, rec, http.StatusOK)
	if b := parseJSON(t, rec); b["balance"] != float64(5000) || b["equity"] != float64(5000) {
		t.Fatalf("expected signup bonus in wallet, got %v", b)
	}

	rec = app.request(http.MethodPost, "/api/wallet/deposit", `{"amount":2000,"phone_number":"+254711000002"}`, token)
	expectStatus(t, rec, http.StatusOK)
	receipt := parseJSON(t, rec)
	if receipt["new_balance"] != float64(7000) || receipt["new_equity"] != float64(7000) {
		t.Errorf("unexpected deposit receipt %v", receipt)
	}
	if id, _ := receipt["transaction_id"].(string); !strings.HasPrefix(id, "DEP") {
		t.Errorf("unexpected transaction id %q", id)
	}

	// A mismatched phone is rejected without touching the wallet.
	rec = app.request(http.MethodPost, "/api/wallet/withdraw", `{"amount":100,"phone_number":"+254799999999"}`, token)
	expectStatus(t, rec, http.StatusForbidden)

	rec = app.request(http.MethodPost, "/api/wallet/withdraw", `{"amount":9000,"phone_number":"+254711000002"}`, token)
	expectStatus(t, rec, http.StatusBadRequest)
	if code := errorCode(t, rec); code != "INSUFFICIENT_FUNDS" {
		t.Errorf("expected INSUFFICIENT_FUNDS, got %s", code)
	}

	rec = app.request(http.MethodPost, "/api/wallet/withdraw", `{"amount":1500.25,"phone_number":"+254711000002"}`, token)
	expectStatus(t, rec, http.StatusOK)
	if got := parseJSON(t, rec)["new_balance"]; got != 5499.75 {
		t.Errorf("expected 5499.75, got %v", got)
	}

	rec = app.request(http.MethodGet, "/api/activities/my", "", token)
	expectStatus(t, rec, http.StatusOK)
	activities := parseJSONArray(t, rec)
	if len(activities) != 3 {
		t.Fatalf("expected registration, deposit and withdrawal, got %d", len(activities))
	}
	if first := activities[0].(map[string]interface{}); first["activity_type"] != "withdraw" {
		t.Errorf("expected newest activity first, got %v", first["activity_type"])
	}

	rec = app.request(http.MethodGet, "/api/activities?type=deposit", "", token)
	expectStatus(t, rec, http.StatusOK)
	if page := parseJSON(t, rec); page["total_items"] != float64(1) {
		t.Errorf("expected 1 deposit, got %v", page["total_items"])
	}
}

func TestInvestmentFlow(t *testing.T) {
	app := setupApp(t, "10000")
	token, _ := app.registerUser(t, "invest@test.com", "+254711000003")

	rec := app.request(http.MethodPost, "/api/investments/buy",
		`{"asset_id":5,"amount":1000,"phone_number":"+254711000003"}`, token)
	expectStatus(t, rec, http.StatusBadRequest)
	if code := errorCode(t, rec); code != "BELOW_MINIMUM" {
		t.Errorf("expected BELOW_MINIMUM, got %s", code)
	}

	rec = app.request(http.MethodPost, "/api/investments/buy",
		`{"asset_id":99,"amount":1000,"phone_number":"+254711000003"}`, token)
	expectStatus(t, rec, http.StatusNotFound)

	rec = app.request(http.MethodPost, "/api/investments/buy",
		`{"asset_id":5,"amount":2000,"phone_number":"+254711000003"}`, token)
	expectStatus(t, rec, http.StatusCreated)
	bought := parseJSON(t, rec)
	if bought["new_balance"] != float64(8000) {
		t.Errorf("expected balance 8000, got %v", bought["new_balance"])
	}
	inv := bought["investment"].(map[string]interface{})
	invID := inv["id"].(string)
	if inv["entry_price"] != float64(5587900) || inv["status"] != "active" {
		t.Errorf("unexpected investment %v", inv)
	}

	rec = app.request(http.MethodGet, "/api/investments/my", "", token)
	expectStatus(t, rec, http.StatusOK)
	if mine := parseJSONArray(t, rec); len(mine) != 1 {
		t.Fatalf("expected 1 active investment, got %d", len(mine))
	}

	// Prices are pinned, so valuation holds at cost.
	rec = app.request(http.MethodGet, "/api/wallet/pnl", "", token)
	expectStatus(t, rec, http.StatusOK)
	pnl := parseJSON(t, rec)
	if pnl["trend"] != "up" || pnl["total_invested"] != float64(2000) {
		t.Errorf("unexpected pnl %v", pnl)
	}

	rec = app.request(http.MethodGet, "/api/wallet/balance", "", token)
	expectStatus(t, rec, http.StatusOK)
	balance := parseJSON(t, rec)
	if balance["balance"] != float64(8000) {
		t.Errorf("expected balance 8000, got %v", balance["balance"])
	}
	if equity, _ := balance["equity"].(float64); equity < 9999.99 || equity > 10000.01 {
		t.Errorf("expected equity ~10000, got %v", balance["equity"])
	}

	rec = app.request(http.MethodPost, "/api/investments/"+invID+"/close", "", token)
	expectStatus(t, rec, http.StatusBadRequest)
	if code := errorCode(t, rec); code != "INVESTMENT_NOT_MATURED" {
		t.Errorf("expected INVESTMENT_NOT_MATURED, got %s", code)
	}

	// Another user cannot see it.
	otherToken, _ := app.registerUser(t, "other@test.com", "+254711000004")
	rec = app.request(http.MethodPost, "/api/investments/"+invID+"/close", "", otherToken)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestCORSPreflight(t *testing.T) {
	app := setupApp(t, "0")
	req := httptest.NewRequest(http.MethodOptions, "/api/wallet/deposit", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected wildcard allow-origin")
	}
}
