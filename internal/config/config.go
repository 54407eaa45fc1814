package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	DiscordToken string

	// PaissaDB API
	PaissaBaseURL string

	// Database
	DatabasePath string

	// Reconciliation
	UpdateIntervalMinutes int
	ChannelDelaySeconds   int

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:  os.Getenv("DISCORD_BOT_TOKEN"),
		PaissaBaseURL: getEnvOrDefault("PAISSA_BASE_URL", ""),
		DatabasePath:  getEnvOrDefault("DATABASE_PATH", "./data/bot.db"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
	}

	interval, err := parseIntEnv("UPDATE_INTERVAL_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	cfg.UpdateIntervalMinutes = interval

	delay, err := parseIntEnv("CHANNEL_DELAY_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.ChannelDelaySeconds = delay

	// Validate required fields
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	return cfg, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return value, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
