package models

import "gorm.io/gorm"

// TradingHours holds the open and close wall-clock times for one weekday.
// One row per weekday; a missing row means the market does not trade that day.
type TradingHours struct {
	gorm.Model
	Weekday   string `gorm:"uniqueIndex;size:10"` // "Monday".."Sunday"
	OpenTime  string `gorm:"size:5"`              // "15:04"
	CloseTime string `gorm:"size:5"`
}

// Holiday is a market-closed calendar date.
type Holiday struct {
	gorm.Model
	Name string `gorm:"size:100"`
	Date string `gorm:"uniqueIndex;size:10"` // "2006-01-02"
}

// MarketControl is the admin override switch. Singleton row, created lazily
// on the first toggle; while absent the schedule alone decides.
type MarketControl struct {
	gorm.Model
	Enabled bool
}
