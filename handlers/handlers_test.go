package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"paperstreet/config"
	"paperstreet/middleware"
	"paperstreet/models"
)

func setupTest(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Stock{},
		&models.Portfolio{},
		&models.Transaction{},
		&models.TradingHours{},
		&models.Holiday{},
		&models.MarketControl{},
		&models.Feedback{},
	))
	config.DB = db
	config.MarketLoc = time.UTC
	// Unreachable on purpose: cache lookups miss, cache writes fail silently.
	config.Rdb = redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
}

func testRouter() *gin.Engine {
	router := gin.New()
	router.GET("/stocks", ListStocks)

	auth := router.Group("/")
	auth.Use(middleware.JWTAuth())
	{
		auth.GET("/balance", GetBalance)
		auth.GET("/market/status", MarketStatus)
		auth.POST("/buy/confirmation", BuyConfirmation)
		auth.POST("/buy", BuyStock)
		auth.POST("/sell", SellStock)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("/stocks", AddStock)
		admin.DELETE("/stocks/:id", DeleteStock)
		admin.GET("/market/hours", GetMarketHours)
		admin.PUT("/market/hours", SetMarketHours)
		admin.POST("/market/toggle", MarketToggle)
		admin.POST("/holidays", AddHoliday)
	}
	return router
}

func createUser(t *testing.T, role models.Role, balance float64) *models.User {
	t.Helper()
	user := &models.User{
		Email:   fmt.Sprintf("%s@example.com", role),
		Role:    role,
		Balance: decimal.NewFromFloat(balance),
	}
	require.NoError(t, config.DB.Create(user).Error)
	return user
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := signToken(user, time.Hour)
	require.NoError(t, err)
	return token
}

// openMarketAllDay configures today's weekday so the oracle reports open.
func openMarketAllDay(t *testing.T) {
	t.Helper()
	require.NoError(t, config.DB.Create(&models.TradingHours{
		Weekday:   time.Now().UTC().Weekday().String(),
		OpenTime:  "00:00",
		CloseTime: "23:59",
	}).Error)
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTradeRoutesGatedOnMarket(t *testing.T) {
	setupTest(t)
	router := testRouter()
	user := createUser(t, models.RoleUser, 100)
	token := tokenFor(t, user)

	// No schedule configured: market closed.
	w := doJSON(router, http.MethodPost, "/buy", token, gin.H{"stock_id": 1, "quantity": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "market is closed")

	w = doJSON(router, http.MethodGet, "/market/status", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"open":false`)
}

func TestBuySellThroughAPI(t *testing.T) {
	setupTest(t)
	router := testRouter()
	openMarketAllDay(t)

	user := createUser(t, models.RoleUser, 100)
	token := tokenFor(t, user)
	stock := models.Stock{Name: "Acme Industries", Ticker: "ACME", Price: decimal.NewFromFloat(10.00), Volume: 1000}
	require.NoError(t, config.DB.Create(&stock).Error)

	w := doJSON(router, http.MethodPost, "/buy/confirmation", token, gin.H{"stock_id": stock.ID, "quantity": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":"50"`)

	w = doJSON(router, http.MethodPost, "/buy", token, gin.H{"stock_id": stock.ID, "quantity": 5})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodGet, "/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":"50"`)

	w = doJSON(router, http.MethodPost, "/sell", token, gin.H{"stock_id": stock.ID, "quantity": 10})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient holdings")

	w = doJSON(router, http.MethodPost, "/sell", token, gin.H{"stock_id": stock.ID, "quantity": 5})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestBuyInsufficientFundsThroughAPI(t *testing.T) {
	setupTest(t)
	router := testRouter()
	openMarketAllDay(t)

	user := createUser(t, models.RoleUser, 10)
	token := tokenFor(t, user)
	stock := models.Stock{Name: "Acme Industries", Ticker: "ACME", Price: decimal.NewFromFloat(10.00), Volume: 1000}
	require.NoError(t, config.DB.Create(&stock).Error)

	w := doJSON(router, http.MethodPost, "/buy/confirmation", token, gin.H{"stock_id": stock.ID, "quantity": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient funds")

	w = doJSON(router, http.MethodPost, "/buy", token, gin.H{"stock_id": stock.ID, "quantity": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAdminGate(t *testing.T) {
	setupTest(t)
	router := testRouter()

	user := createUser(t, models.RoleUser, 0)
	w := doJSON(router, http.MethodGet, "/admin/market/hours?day=Monday", tokenFor(t, user), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodGet, "/admin/market/hours?day=Monday", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMarketHoursAdmin(t *testing.T) {
	setupTest(t)
	router := testRouter()
	admin := createUser(t, models.RoleAdmin, 0)
	token := tokenFor(t, admin)

	// Unconfigured day comes back as empty strings, not an error.
	w := doJSON(router, http.MethodGet, "/admin/market/hours?day=Monday", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"open_time":""`)

	w = doJSON(router, http.MethodPut, "/admin/market/hours", token,
		gin.H{"day": "Monday", "open_time": "08:00", "close_time": "17:00"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/admin/market/hours?day=Monday", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"open_time":"08:00"`)

	w = doJSON(router, http.MethodGet, "/admin/market/hours?day=Funday", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPut, "/admin/market/hours", token,
		gin.H{"day": "Monday", "open_time": "25:00", "close_time": "17:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarketToggle(t *testing.T) {
	setupTest(t)
	router := testRouter()
	openMarketAllDay(t)

	admin := createUser(t, models.RoleAdmin, 0)
	adminToken := tokenFor(t, admin)
	user := createUser(t, models.RoleUser, 0)
	userToken := tokenFor(t, user)

	w := doJSON(router, http.MethodGet, "/market/status", userToken, nil)
	assert.Contains(t, w.Body.String(), `"open":true`)

	// First toggle creates the control row disabled.
	w = doJSON(router, http.MethodPost, "/admin/market/toggle", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":false`)
	assert.False(t, controlRow(t).Enabled, "response must match the stored row")

	w = doJSON(router, http.MethodGet, "/market/status", userToken, nil)
	assert.Contains(t, w.Body.String(), `"open":false`)

	w = doJSON(router, http.MethodPost, "/admin/market/toggle", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":true`)
	assert.True(t, controlRow(t).Enabled, "response must match the stored row")

	w = doJSON(router, http.MethodGet, "/market/status", userToken, nil)
	assert.Contains(t, w.Body.String(), `"open":true`)

	// And back again: each toggle flips exactly once.
	w = doJSON(router, http.MethodPost, "/admin/market/toggle", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":false`)
	assert.False(t, controlRow(t).Enabled, "response must match the stored row")
}

func controlRow(t *testing.T) *models.MarketControl {
	t.Helper()
	var ctrl models.MarketControl
	require.NoError(t, config.DB.First(&ctrl).Error)
	return &ctrl
}

func TestAddHolidayValidation(t *testing.T) {
	setupTest(t)
	router := testRouter()
	admin := createUser(t, models.RoleAdmin, 0)
	token := tokenFor(t, admin)

	w := doJSON(router, http.MethodPost, "/admin/holidays", token,
		gin.H{"name": "Founders Day", "date": "not-a-date"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/admin/holidays", token,
		gin.H{"name": "Founders Day", "date": "2024-01-08"})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Duplicate date.
	w = doJSON(router, http.MethodPost, "/admin/holidays", token,
		gin.H{"name": "Founders Day Again", "date": "2024-01-08"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDelistAndRelistStock(t *testing.T) {
	setupTest(t)
	router := testRouter()
	openMarketAllDay(t)

	admin := createUser(t, models.RoleAdmin, 0)
	adminToken := tokenFor(t, admin)
	user := createUser(t, models.RoleUser, 100)
	userToken := tokenFor(t, user)

	stock := models.Stock{Name: "Acme Industries", Ticker: "ACME", Price: decimal.NewFromFloat(10.00), Volume: 1000}
	require.NoError(t, config.DB.Create(&stock).Error)

	w := doJSON(router, http.MethodPost, "/buy", userToken, gin.H{"stock_id": stock.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodDelete, fmt.Sprintf("/admin/stocks/%d", stock.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Delisting removes open positions along with the stock.
	var positions int64
	require.NoError(t, config.DB.Model(&models.Portfolio{}).Where("stock_id = ?", stock.ID).Count(&positions).Error)
	assert.Zero(t, positions)

	// Trade history survives the delisting.
	var records int64
	require.NoError(t, config.DB.Model(&models.Transaction{}).Where("stock_id = ?", stock.ID).Count(&records).Error)
	assert.Equal(t, int64(1), records)

	// The ticker is free again.
	w = doJSON(router, http.MethodPost, "/admin/stocks", adminToken,
		gin.H{"name": "Acme Industries", "ticker": "ACME", "price": "12.00", "volume": 1000})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestListStocksPagination(t *testing.T) {
	setupTest(t)
	router := testRouter()

	for i := 0; i < 15; i++ {
		require.NoError(t, config.DB.Create(&models.Stock{
			Name:   fmt.Sprintf("Company %02d", i),
			Ticker: fmt.Sprintf("C%02d", i),
			Price:  decimal.NewFromInt(20),
		}).Error)
	}

	w := doJSON(router, http.MethodGet, "/stocks?page=2&limit=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stocks []models.Stock `json:"stocks"`
		Page   int            `json:"page"`
		Total  int64          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Stocks, 5)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, int64(15), resp.Total)
}
