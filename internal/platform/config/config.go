package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	// Server side
	DatabaseURL         string
	Port                string
	IsProduction        bool
	ExternalTokenSecret string
	ArkAPIURL           string
	ArkAPIKey           string
	ArkModel            string

	// Local / client side
	SQLitePath      string
	LegacyStorePath string
	APIBaseURL      string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("EXTERNAL_TOKEN_SECRET", "insecure-default-token-secret-change-me")
	viper.SetDefault("ARK_API_URL", "https://ark.cn-beijing.volces.com/api/v3/chat/completions")
	viper.SetDefault("ARK_API_KEY", "")
	viper.SetDefault("ARK_MODEL", "doubao-seed-1-6-flash-250828")
	viper.SetDefault("SQLITE_PATH", "mistakebook.db")
	viper.SetDefault("LEGACY_STORE_PATH", "")
	viper.SetDefault("API_BASE_URL", "")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:         viper.GetString("PGSQL_URL"),
		Port:                viper.GetString("PORT"),
		IsProduction:        viper.GetBool("IS_PRODUCTION"),
		ExternalTokenSecret: viper.GetString("EXTERNAL_TOKEN_SECRET"),
		ArkAPIURL:           viper.GetString("ARK_API_URL"),
		ArkAPIKey:           viper.GetString("ARK_API_KEY"),
		ArkModel:            viper.GetString("ARK_MODEL"),
		SQLitePath:          viper.GetString("SQLITE_PATH"),
		LegacyStorePath:     viper.GetString("LEGACY_STORE_PATH"),
		APIBaseURL:          viper.GetString("API_BASE_URL"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.ArkAPIKey == "" {
		log.Println("Warning: ARK_API_KEY not set. The external analyze/chat routes will not function.")
	}

	return cfg, nil
}
