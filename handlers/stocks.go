package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"paperstreet/config"
	"paperstreet/models"
)

// Ticker lookups are cached briefly; staleness is bounded by the price
// mutator period anyway.
const tickerCacheTTL = 15 * time.Second

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

// ListStocks returns the catalog a page at a time.
func ListStocks(c *gin.Context) {
	page, limit := pagination(c)

	var total int64
	if err := config.DB.Model(&models.Stock{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stocks"})
		return
	}

	var stocks []models.Stock
	err := config.DB.Order("ticker").
		Offset((page - 1) * limit).Limit(limit).
		Find(&stocks).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stocks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stocks": stocks, "page": page, "total": total})
}

func GetStock(c *gin.Context) {
	ticker := c.Param("ticker")
	cacheKey := fmt.Sprintf("stock:%s", ticker)

	if cached, err := config.Rdb.Get(config.Ctx, cacheKey).Result(); err == nil {
		var stock models.Stock
		if json.Unmarshal([]byte(cached), &stock) == nil {
			c.JSON(http.StatusOK, stock)
			return
		}
	}

	var stock models.Stock
	if err := config.DB.Where("ticker = ?", ticker).First(&stock).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
		return
	}

	if data, err := json.Marshal(stock); err == nil {
		config.Rdb.Set(config.Ctx, cacheKey, data, tickerCacheTTL)
	}

	c.JSON(http.StatusOK, stock)
}

type StockInput struct {
	Name   string          `json:"name" binding:"required"`
	Ticker string          `json:"ticker" binding:"required,max=10"`
	Price  decimal.Decimal `json:"price" binding:"required"`
	Volume int64           `json:"volume" binding:"required,min=1"`
}

func AddStock(c *gin.Context) {
	var input StockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be positive"})
		return
	}

	stock := models.Stock{
		Name:   input.Name,
		Ticker: input.Ticker,
		Price:  input.Price,
		Volume: input.Volume,
	}
	if err := config.DB.Create(&stock).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Stock name or ticker already exists"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Stock added successfully", "id": stock.ID})
}

type UpdateStockInput struct {
	Name   *string          `json:"name"`
	Price  *decimal.Decimal `json:"price"`
	Volume *int64           `json:"volume"`
}

func UpdateStock(c *gin.Context) {
	var existing models.Stock
	if err := config.DB.First(&existing, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
		return
	}

	var input UpdateStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updateData := make(map[string]interface{})
	if input.Name != nil {
		updateData["name"] = *input.Name
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be positive"})
			return
		}
		updateData["price"] = *input.Price
	}
	if input.Volume != nil {
		updateData["volume"] = *input.Volume
	}

	if err := config.DB.Model(&existing).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock"})
		return
	}

	config.Rdb.Del(config.Ctx, fmt.Sprintf("stock:%s", existing.Ticker))
	c.JSON(http.StatusOK, gin.H{"message": "Stock updated successfully"})
}

// DeleteStock delists a stock. Open positions in it are removed with it;
// transactions stay as history. Hard delete, so the ticker can be re-listed
// without colliding with the unique index.
func DeleteStock(c *gin.Context) {
	var stock models.Stock
	if err := config.DB.First(&stock, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("stock_id = ?", stock.ID).Delete(&models.Portfolio{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&stock).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stock"})
		return
	}

	config.Rdb.Del(config.Ctx, fmt.Sprintf("stock:%s", stock.Ticker))
	c.JSON(http.StatusOK, gin.H{"message": "Stock deleted successfully"})
}
