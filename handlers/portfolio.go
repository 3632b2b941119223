package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"paperstreet/config"
	"paperstreet/models"
	"paperstreet/trading"
)

func currentBalance(userID uint) (decimal.Decimal, error) {
	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, trading.ErrUserNotFound
		}
		return decimal.Zero, err
	}
	return user.Balance, nil
}

func heldQuantity(userID, stockID uint) (int64, error) {
	var entry models.Portfolio
	err := config.DB.Where("user_id = ? AND stock_id = ?", userID, stockID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entry.Quantity, nil
}

func GetBalance(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	balance, err := currentBalance(userID)
	if err != nil {
		tradeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

type FundsInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func Deposit(c *gin.Context) {
	adjustFunds(c, trading.NewEngine(config.DB).Deposit)
}

func Withdraw(c *gin.Context) {
	adjustFunds(c, trading.NewEngine(config.DB).Withdraw)
}

func adjustFunds(c *gin.Context, adjust func(uint, decimal.Decimal) (decimal.Decimal, error)) {
	userID := c.MustGet("user_id").(uint)

	var input FundsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := adjust(userID, input.Amount)
	if err != nil {
		tradeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// GetPortfolio lists the caller's positions with their market value at the
// current (mutating) price.
func GetPortfolio(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var rows []struct {
		StockID  uint            `json:"stock_id"`
		Name     string          `json:"name"`
		Ticker   string          `json:"ticker"`
		Quantity int64           `json:"quantity"`
		Price    decimal.Decimal `json:"price"`
	}
	err := config.DB.Model(&models.Portfolio{}).
		Select("portfolios.stock_id, stocks.name, stocks.ticker, portfolios.quantity, stocks.price").
		Joins("JOIN stocks ON stocks.id = portfolios.stock_id").
		Where("portfolios.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolio"})
		return
	}

	holdings := make([]gin.H, 0, len(rows))
	total := decimal.Zero
	for _, row := range rows {
		value := row.Price.Mul(decimal.NewFromInt(row.Quantity))
		total = total.Add(value)
		holdings = append(holdings, gin.H{
			"stock_id": row.StockID,
			"name":     row.Name,
			"ticker":   row.Ticker,
			"quantity": row.Quantity,
			"price":    row.Price,
			"value":    value,
		})
	}

	c.JSON(http.StatusOK, gin.H{"holdings": holdings, "total_value": total})
}

// GetTransactions lists the caller's trade history, newest first.
func GetTransactions(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	page, limit := pagination(c)

	var transactions []models.Transaction
	err := config.DB.Where("user_id = ?", userID).
		Order("executed_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&transactions).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "page": page})
}

// DeleteTransaction is admin tooling; transaction records are otherwise
// immutable.
func DeleteTransaction(c *gin.Context) {
	var record models.Transaction
	if err := config.DB.First(&record, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}
	if err := config.DB.Unscoped().Delete(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}
