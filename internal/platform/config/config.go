package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Addr               string
	TaxLawDir          string
	Environment        string
	EngineWorkers      int
	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool
}

func Load() Config {
	return Config{
		Addr:               getEnv("APP_ADDR", "127.0.0.1:3000"),
		TaxLawDir:          getEnv("TAX_LAW_DIR", "tax_laws"),
		Environment:        getEnv("APP_ENV", "development"),
		EngineWorkers:      getEnvInt("ENGINE_WORKERS", 0),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("APP_ADDR is required")
	}
	if strings.TrimSpace(c.TaxLawDir) == "" {
		return fmt.Errorf("TAX_LAW_DIR is required")
	}
	if c.EngineWorkers < 0 {
		return fmt.Errorf("ENGINE_WORKERS must not be negative")
	}
	return nil
}
