package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"paperstreet/trading"
)

// tradeError maps engine errors onto HTTP responses. Anything outside the
// known taxonomy is a storage failure: the transaction has already rolled
// back, so surface a generic notice and keep serving.
func tradeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trading.ErrInvalidQuantity),
		errors.Is(err, trading.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, trading.ErrInsufficientFunds),
		errors.Is(err, trading.ErrInsufficientHoldings),
		errors.Is(err, trading.ErrNoPosition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, trading.ErrStockNotFound),
		errors.Is(err, trading.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error("Trade operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Operation failed"})
	}
}
