package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort      string
	DatabaseURL     string
	RedisURL        string
	JWTSecret       string
	JWTExpiry       time.Duration
	MaxPayloadBytes int64
	HistoryKeep     int
}

func LoadConfig() (*Config, error) {
	expiry, err := time.ParseDuration(getEnv("JWT_EXPIRY", "24h"))
	if err != nil {
		return nil, errors.New("invalid JWT_EXPIRY format")
	}

	maxPayload, err := strconv.ParseInt(getEnv("MAX_PAYLOAD_BYTES", "50000"), 10, 64)
	if err != nil || maxPayload <= 0 {
		return nil, errors.New("invalid MAX_PAYLOAD_BYTES")
	}

	historyKeep, err := strconv.Atoi(getEnv("HISTORY_KEEP", "10"))
	if err != nil || historyKeep <= 0 {
		return nil, errors.New("invalid HISTORY_KEEP")
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTExpiry:       expiry,
		MaxPayloadBytes: maxPayload,
		HistoryKeep:     historyKeep,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
