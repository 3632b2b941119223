package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"paperstreet/logger"
)

// DB is the global PostgreSQL database connection.
var DB *gorm.DB

// Rdb is the global Redis client.
var Rdb *redis.Client

// Ctx is the context for Redis operations.
var Ctx = context.Background()

// MarketLoc is the display timezone all market-hours and holiday checks run
// in. Loaded from MARKET_TZ.
var MarketLoc *time.Location

func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// InitTimezone loads the market display timezone.
func InitTimezone() {
	tz := Getenv("MARKET_TZ", "Asia/Kolkata")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("Invalid MARKET_TZ %q: %v", tz, err)
	}
	MarketLoc = loc
}

func InitDB() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		Getenv("MARKET_TZ", "Asia/Kolkata"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger().LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to the database: ", err)
	}
}

// InitRedis initializes the Redis connection.
func InitRedis() {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     Getenv("REDIS_ADDR", "127.0.0.1:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := Rdb.Ping(Ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
}
