package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"paperstreet/config"
	"paperstreet/database"
	"paperstreet/handlers"
	"paperstreet/market"
	"paperstreet/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, relying on the environment")
	}

	config.InitTimezone()
	config.InitDB()
	config.InitRedis()

	sqlDB, err := config.DB.DB()
	if err != nil {
		log.Fatal("Failed to get database instance: ", err)
	}
	defer sqlDB.Close()

	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	if err := database.Seed(); err != nil {
		log.Fatal("Failed to seed database: ", err)
	}

	interval := market.DefaultInterval
	if v := config.Getenv("PRICE_INTERVAL", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			interval = d
		}
	}
	mutator := market.NewMutator(config.DB, interval)
	mutator.Start()
	defer mutator.Stop()

	router := gin.Default()

	// Public routes
	router.POST("/signup", handlers.Signup)
	router.POST("/login", handlers.Login)
	router.POST("/refresh", handlers.Refresh)
	router.GET("/stocks", handlers.ListStocks)
	router.GET("/stocks/:ticker", handlers.GetStock)

	// Authenticated routes
	auth := router.Group("/")
	auth.Use(middleware.JWTAuth())
	{
		auth.GET("/portfolio", handlers.GetPortfolio)
		auth.GET("/transactions", handlers.GetTransactions)
		auth.GET("/balance", handlers.GetBalance)
		auth.POST("/deposit", handlers.Deposit)
		auth.POST("/withdraw", handlers.Withdraw)
		auth.GET("/market/status", handlers.MarketStatus)
		auth.POST("/buy/confirmation", handlers.BuyConfirmation)
		auth.POST("/buy", handlers.BuyStock)
		auth.POST("/sell/confirmation", handlers.SellConfirmation)
		auth.POST("/sell", handlers.SellStock)
		auth.POST("/feedback", handlers.SubmitFeedback)
		auth.DELETE("/profile", handlers.DeleteProfile)
	}

	// Admin routes
	admin := router.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("/stocks", handlers.AddStock)
		admin.PUT("/stocks/:id", handlers.UpdateStock)
		admin.DELETE("/stocks/:id", handlers.DeleteStock)
		admin.GET("/market/hours", handlers.GetMarketHours)
		admin.PUT("/market/hours", handlers.SetMarketHours)
		admin.POST("/market/toggle", handlers.MarketToggle)
		admin.GET("/holidays", handlers.ListHolidays)
		admin.POST("/holidays", handlers.AddHoliday)
		admin.DELETE("/holidays/:id", handlers.DeleteHoliday)
		admin.GET("/feedback", handlers.ListFeedback)
		admin.DELETE("/feedback/:id", handlers.DeleteFeedback)
		admin.DELETE("/transactions/:id", handlers.DeleteTransaction)
	}

	router.Run(":" + config.Getenv("PORT", "8080"))
}
