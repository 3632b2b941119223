package trading

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paperstreet/models"
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrNoPosition           = errors.New("no position in this stock")
	ErrStockNotFound        = errors.New("stock not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidQuantity      = errors.New("quantity must be a positive integer")
	ErrInvalidAmount        = errors.New("amount must be positive")
)

// Engine executes trades and funds adjustments. Every mutation runs inside a
// single database transaction: balance, position and transaction record
// commit together or not at all. User, stock and portfolio rows are read
// FOR UPDATE so competing trades on the same user or stock serialize at the
// row level rather than depending on the isolation level.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// sqlite (used in tests) has no SELECT ... FOR UPDATE; its single-writer
// lock serializes transactions anyway.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Quote computes price x quantity from the stock's current price. It is
// advisory only: execution recomputes the total from the authoritative price
// at commit time, so a stale quote can never be replayed into a trade.
func (e *Engine) Quote(stockID uint, quantity int64) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, ErrInvalidQuantity
	}
	var stock models.Stock
	if err := e.db.First(&stock, stockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrStockNotFound
		}
		return decimal.Zero, err
	}
	return stock.Price.Mul(decimal.NewFromInt(quantity)), nil
}

// Buy debits the user's balance by quantity x current price, increments (or
// creates) the user's position, and appends a buy transaction.
func (e *Engine) Buy(userID, stockID uint, quantity int64) (*models.Transaction, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var record *models.Transaction
	err := e.db.Transaction(func(tx *gorm.DB) error {
		user, stock, err := lockUserAndStock(tx, userID, stockID)
		if err != nil {
			return err
		}

		total := stock.Price.Mul(decimal.NewFromInt(quantity))
		if user.Balance.LessThan(total) {
			return ErrInsufficientFunds
		}

		if err := tx.Model(user).Update("balance", user.Balance.Sub(total)).Error; err != nil {
			return err
		}

		var entry models.Portfolio
		err = forUpdate(tx).Where("user_id = ? AND stock_id = ?", userID, stockID).
			First(&entry).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry = models.Portfolio{UserID: userID, StockID: stockID, Quantity: quantity}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&entry).Update("quantity", entry.Quantity+quantity).Error; err != nil {
				return err
			}
		}

		record = newTransaction(userID, stockID, quantity, total, models.SideBuy)
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Sell decrements the user's position by quantity, deleting the row when it
// reaches exactly zero, credits the balance, and appends a sell transaction.
func (e *Engine) Sell(userID, stockID uint, quantity int64) (*models.Transaction, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var record *models.Transaction
	err := e.db.Transaction(func(tx *gorm.DB) error {
		user, stock, err := lockUserAndStock(tx, userID, stockID)
		if err != nil {
			return err
		}

		var entry models.Portfolio
		err = forUpdate(tx).Where("user_id = ? AND stock_id = ?", userID, stockID).
			First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoPosition
		}
		if err != nil {
			return err
		}
		if entry.Quantity < quantity {
			return ErrInsufficientHoldings
		}

		if entry.Quantity == quantity {
			if err := tx.Unscoped().Delete(&entry).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&entry).Update("quantity", entry.Quantity-quantity).Error; err != nil {
				return err
			}
		}

		total := stock.Price.Mul(decimal.NewFromInt(quantity))
		if err := tx.Model(user).Update("balance", user.Balance.Add(total)).Error; err != nil {
			return err
		}

		record = newTransaction(userID, stockID, quantity, total, models.SideSell)
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func lockUserAndStock(tx *gorm.DB, userID, stockID uint) (*models.User, *models.Stock, error) {
	var user models.User
	if err := forUpdate(tx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	var stock models.Stock
	if err := forUpdate(tx).First(&stock, stockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrStockNotFound
		}
		return nil, nil, err
	}
	return &user, &stock, nil
}

func newTransaction(userID, stockID uint, quantity int64, total decimal.Decimal, side string) *models.Transaction {
	return &models.Transaction{
		Reference:  uuid.NewString(),
		UserID:     userID,
		StockID:    stockID,
		Quantity:   quantity,
		TotalPrice: total,
		Side:       side,
		ExecutedAt: time.Now().UTC(),
	}
}
