package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Broker credentials (only required by the fetch command)
	BrokerAPIKey     string
	BrokerClientCode string
	BrokerPassword   string
	BrokerTOTPSecret string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string

	// Telegram alerting (optional; both must be set to enable)
	TelegramBotToken string
	TelegramChatID   string

	// Backtesting
	InitialCapital float64
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first, if present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	return &Config{
		BrokerAPIKey:     getEnv("BROKER_API_KEY", ""),
		BrokerClientCode: getEnv("BROKER_CLIENT_CODE", ""),
		BrokerPassword:   getEnv("BROKER_PASSWORD", ""),
		BrokerTOTPSecret: getEnv("BROKER_TOTP_SECRET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/backtest.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		InitialCapital: getEnvFloat("INITIAL_CAPITAL", 100000),
	}
}

// RequireBroker exits when the broker credentials are not configured.
// Commands that never talk to the broker skip this check.
func (c *Config) RequireBroker() {
	for key, v := range map[string]string{
		"BROKER_API_KEY":     c.BrokerAPIKey,
		"BROKER_CLIENT_CODE": c.BrokerClientCode,
		"BROKER_PASSWORD":    c.BrokerPassword,
		"BROKER_TOTP_SECRET": c.BrokerTOTPSecret,
	} {
		if v == "" {
			log.Fatalf("[config] required env var %s not set", key)
		}
	}
}

// Universe is the YAML scan configuration file.
type Universe struct {
	Symbols       []string `yaml:"symbols"`
	TopN          int      `yaml:"top_n"`
	MinConfidence float64  `yaml:"min_confidence"`
}

// LoadUniverse reads a scan universe from a YAML file.
func LoadUniverse(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("parse universe file %s: %w", path, err)
	}
	if len(u.Symbols) == 0 {
		return nil, fmt.Errorf("universe file %s lists no symbols", path)
	}
	return &u, nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return f
}
