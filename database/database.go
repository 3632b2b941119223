package database

import (
	"fmt"
	"os"
	"reflect"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"paperstreet/config"
	"paperstreet/models"
)

func Migrate() error {
	return config.DB.AutoMigrate(
		&models.User{},
		&models.Stock{},
		&models.Portfolio{},
		&models.Transaction{},
		&models.TradingHours{},
		&models.Holiday{},
		&models.MarketControl{},
		&models.Feedback{},
	)
}

// Seed fills in the rows the application cannot run without: the weekday
// trading schedule, an admin account from the environment, and a starter
// stock catalog. Each part is skipped when rows already exist.
func Seed() error {
	if err := seedTradingHours(); err != nil {
		return err
	}
	if err := seedAdmin(); err != nil {
		return err
	}
	return seedStocks()
}

func seedTradingHours() error {
	var count int64
	if err := config.DB.Model(&models.TradingHours{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	weekdays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	hours := make([]models.TradingHours, 0, len(weekdays))
	for _, day := range weekdays {
		hours = append(hours, models.TradingHours{
			Weekday:   day,
			OpenTime:  config.Getenv("MARKET_OPEN", "09:15"),
			CloseTime: config.Getenv("MARKET_CLOSE", "15:30"),
		})
	}
	log.Info("Seeding weekday trading hours")
	return CreateInBatches(hours, len(hours))
}

func seedAdmin() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := config.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	log.WithField("email", email).Info("Seeding admin account")
	return config.DB.Create(&models.User{
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
		Balance:  decimal.Zero,
	}).Error
}

func seedStocks() error {
	var count int64
	if err := config.DB.Model(&models.Stock{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	catalog := []models.Stock{
		{Name: "Acme Industries", Ticker: "ACME", Price: decimal.NewFromFloat(42.50), Volume: 100000},
		{Name: "Globex Corporation", Ticker: "GBX", Price: decimal.NewFromFloat(31.20), Volume: 250000},
		{Name: "Initech Systems", Ticker: "INI", Price: decimal.NewFromFloat(18.75), Volume: 80000},
		{Name: "Umbrella Holdings", Ticker: "UMB", Price: decimal.NewFromFloat(55.00), Volume: 120000},
		{Name: "Wayne Enterprises", Ticker: "WAYN", Price: decimal.NewFromFloat(67.40), Volume: 300000},
	}
	log.Info("Seeding starter stock catalog")
	return CreateInBatches(catalog, 100)
}

var (
	ErrInvalidTransaction = fmt.Errorf("invalid transaction")
	ErrInvalidData        = fmt.Errorf("invalid data, expected slice")
)

func CreateInBatches(data interface{}, batchSize int) error {
	if batchSize <= 0 {
		return ErrInvalidTransaction
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if tx.Error != nil {
		return tx.Error
	}

	slice := reflect.ValueOf(data)
	if slice.Kind() != reflect.Slice {
		return ErrInvalidData
	}

	total := slice.Len()
	for i := 0; i < total; i += batchSize {
		end := i + batchSize
		if end > total {
			end = total
		}

		chunk := slice.Slice(i, end).Interface()
		if err := tx.Create(chunk).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("batch insert failed: %w", err)
		}
	}

	return tx.Commit().Error
}
