package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Stock struct {
	gorm.Model
	Name   string          `gorm:"uniqueIndex;size:100"`
	Ticker string          `gorm:"uniqueIndex;size:10"`
	Price  decimal.Decimal `gorm:"type:decimal(14,2)"`
	Volume int64
}
