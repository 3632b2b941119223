package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"paperstreet/config"
	"paperstreet/market"
	"paperstreet/models"
	"paperstreet/trading"
)

type TradeInput struct {
	StockID  uint  `json:"stock_id" binding:"required"`
	Quantity int64 `json:"quantity" binding:"required,min=1"`
}

func marketOpen() bool {
	return market.NewOracle(config.DB, config.MarketLoc).IsOpen(time.Now())
}

// requireOpenMarket gates the trade routes on the session oracle.
func requireOpenMarket(c *gin.Context) bool {
	if !marketOpen() {
		c.JSON(http.StatusForbidden, gin.H{"error": "The market is closed"})
		return false
	}
	return true
}

// MarketStatus reports whether trading is currently permitted.
func MarketStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"open": marketOpen()})
}

// BuyConfirmation computes the quote and pre-checks funds without committing
// anything. The quote is advisory; execution re-prices at commit time.
func BuyConfirmation(c *gin.Context) {
	if !requireOpenMarket(c) {
		return
	}
	userID := c.MustGet("user_id").(uint)

	var input TradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	engine := trading.NewEngine(config.DB)
	quote, err := engine.Quote(input.StockID, input.Quantity)
	if err != nil {
		tradeError(c, err)
		return
	}

	balance, err := currentBalance(userID)
	if err != nil {
		tradeError(c, err)
		return
	}
	if balance.LessThan(quote) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": trading.ErrInsufficientFunds.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stock_id": input.StockID,
		"quantity": input.Quantity,
		"total":    quote,
	})
}

// SellConfirmation computes the quote and pre-checks holdings.
func SellConfirmation(c *gin.Context) {
	if !requireOpenMarket(c) {
		return
	}
	userID := c.MustGet("user_id").(uint)

	var input TradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	engine := trading.NewEngine(config.DB)
	quote, err := engine.Quote(input.StockID, input.Quantity)
	if err != nil {
		tradeError(c, err)
		return
	}

	held, err := heldQuantity(userID, input.StockID)
	if err != nil {
		tradeError(c, err)
		return
	}
	if held == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": trading.ErrNoPosition.Error()})
		return
	}
	if held < input.Quantity {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": trading.ErrInsufficientHoldings.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stock_id": input.StockID,
		"quantity": input.Quantity,
		"total":    quote,
	})
}

func BuyStock(c *gin.Context) {
	executeTrade(c, trading.NewEngine(config.DB).Buy)
}

func SellStock(c *gin.Context) {
	executeTrade(c, trading.NewEngine(config.DB).Sell)
}

func executeTrade(c *gin.Context, exec func(uint, uint, int64) (*models.Transaction, error)) {
	if !requireOpenMarket(c) {
		return
	}
	userID := c.MustGet("user_id").(uint)

	var input TradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := exec(userID, input.StockID, input.Quantity)
	if err != nil {
		tradeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reference": record.Reference,
		"side":      record.Side,
		"quantity":  record.Quantity,
		"total":     record.TotalPrice,
	})
}
