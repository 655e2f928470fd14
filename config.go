package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the backup service.
type Config struct {
	Port             string
	ShopAPIURL       string
	RateLimit        int           // outbound calls allowed per window
	TimeWindow       time.Duration // sliding window length
	RetryAfterHeader string
	PageSize         int // per_page sent to the shop API
	BatchSize        int // max rows per insert statement
	JobAttempts      int // backup job retries before terminal failure
}

// LoadConfig reads configuration from environment variables and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8097"),
		ShopAPIURL:       os.Getenv("SHOP_API_URL"),
		RateLimit:        getEnvInt("SHOP_API_RATE_LIMIT", 3),
		TimeWindow:       time.Duration(getEnvInt("SHOP_API_TIME_WINDOW", 60)) * time.Second,
		RetryAfterHeader: getEnv("SHOP_API_RETRY_AFTER_HEADER", "Retry-After"),
		PageSize:         getEnvInt("SHOP_PAGE_SIZE", 100),
		BatchSize:        getEnvInt("SHOP_BATCH_SIZE", 1000),
		JobAttempts:      getEnvInt("BACKUP_JOB_ATTEMPTS", 3),
	}

	if cfg.ShopAPIURL == "" {
		return nil, fmt.Errorf("SHOP_API_URL is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return i
}
