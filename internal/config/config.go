// Package config provides application configuration.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	BackendMemory = "memory"
	BackendDynamo = "dynamo"
	BackendRedis  = "redis"
)

// Config holds all application configuration. Secrets (Telegram token,
// gateway consumer id) may be left empty and fetched from SSM under
// ParamPrefix instead.
type Config struct {
	TBankURL          string
	ConsumerID        string
	ChartGeneratorURL string
	TelegramToken     string
	ParamPrefix       string

	SessionBackend string // memory, dynamo or redis
	StateTable     string // dynamo backend
	RedisURL       string // redis backend

	HealthAddr string
}

// Load reads configuration from the environment. A local .env file is
// honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TBankURL:          os.Getenv("TBANK_URL"),
		ConsumerID:        os.Getenv("TBANK_CONSUMER_ID"),
		ChartGeneratorURL: os.Getenv("CHART_GENERATOR_URL"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		ParamPrefix:       os.Getenv("PARAM_PREFIX"),
		SessionBackend:    getEnv("SESSION_BACKEND", BackendMemory),
		StateTable:        os.Getenv("STATE_TABLE"),
		RedisURL:          os.Getenv("REDIS_URL"),
		HealthAddr:        getEnv("HEALTH_ADDR", ":3000"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.TBankURL == "" {
		return fmt.Errorf("TBANK_URL cannot be empty")
	}
	if c.ChartGeneratorURL == "" {
		return fmt.Errorf("CHART_GENERATOR_URL cannot be empty")
	}
	switch c.SessionBackend {
	case BackendMemory:
	case BackendDynamo:
		if c.StateTable == "" {
			return fmt.Errorf("STATE_TABLE cannot be empty with the dynamo backend")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL cannot be empty with the redis backend")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if (c.TelegramToken == "" || c.ConsumerID == "") && c.ParamPrefix == "" {
		return fmt.Errorf("PARAM_PREFIX cannot be empty when TELEGRAM_TOKEN or TBANK_CONSUMER_ID is unset")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
