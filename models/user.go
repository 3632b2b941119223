package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Role is the closed set of account roles. Stored as a string column but
// only ever compared against these constants.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	gorm.Model
	Email     string `gorm:"uniqueIndex;size:100"`
	Password  string // bcrypt hash
	FirstName string `gorm:"size:100"`
	LastName  string `gorm:"size:100"`
	Role      Role   `gorm:"size:20;default:user"`

	// Cash balance. Only buy/withdraw enforce non-negativity; there is no
	// global check constraint.
	Balance decimal.Decimal `gorm:"type:decimal(14,2)"`
}
