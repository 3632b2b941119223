package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Trade sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Portfolio is a user's position in one stock. Quantity is always > 0 while
// the row exists; a sell that drains the position deletes the row instead of
// leaving it at zero.
type Portfolio struct {
	gorm.Model
	UserID   uint `gorm:"index:idx_user_stock,unique"`
	StockID  uint `gorm:"index:idx_user_stock,unique"`
	Quantity int64
}

// Transaction is an immutable trade record. Rows are only ever created at
// execution time and deleted by admin tooling, never updated.
type Transaction struct {
	gorm.Model
	Reference  string `gorm:"size:36;uniqueIndex"`
	UserID     uint   `gorm:"index"`
	StockID    uint   `gorm:"index"`
	Quantity   int64
	TotalPrice decimal.Decimal `gorm:"type:decimal(14,2)"`
	Side       string          `gorm:"size:4"` // buy/sell
	ExecutedAt time.Time       // execution time, UTC
}
