// Package config loads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment. Database
// settings are read separately by the db package.
type Config struct {
	Port   string
	Symbol string

	Timeframe string
	SignalTTL time.Duration

	GenerationInterval  time.Duration
	DynamicInterval     time.Duration
	MonitorInterval     time.Duration
	CalibrationInterval time.Duration

	CryptoCompareAPIKey string

	LogLevel  string
	LogFormat string
}

// Load reads .env when present, then the environment. Missing variables
// fall back to sane single-asset defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                getEnv("PORT", "8080"),
		Symbol:              getEnv("SYMBOL", "BTC"),
		Timeframe:           getEnv("SIGNAL_TIMEFRAME", "1h"),
		SignalTTL:           getDuration("SIGNAL_TTL", time.Hour),
		GenerationInterval:  getDuration("GENERATION_INTERVAL", time.Minute),
		DynamicInterval:     getDuration("DYNAMIC_INTERVAL", 5*time.Minute),
		MonitorInterval:     getDuration("MONITOR_INTERVAL", time.Minute),
		CalibrationInterval: getDuration("CALIBRATION_INTERVAL", 24*time.Hour),
		CryptoCompareAPIKey: os.Getenv("CRYPTOCOMPARE_API_KEY"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Plain integers are read as minutes.
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute
	}
	return fallback
}
