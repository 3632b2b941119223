package trading

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"paperstreet/models"
)

// Deposit credits amount to the user's balance and returns the new balance.
func (e *Engine) Deposit(userID uint, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return e.adjustBalance(userID, amount)
}

// Withdraw debits amount from the user's balance. Fails with
// ErrInsufficientFunds when the balance would go negative.
func (e *Engine) Withdraw(userID uint, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return e.adjustBalance(userID, amount.Neg())
}

func (e *Engine) adjustBalance(userID uint, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := forUpdate(tx).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		balance = user.Balance.Add(delta)
		if balance.IsNegative() {
			return ErrInsufficientFunds
		}
		return tx.Model(&user).Update("balance", balance).Error
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
