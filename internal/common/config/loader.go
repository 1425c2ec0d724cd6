// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if not found.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root so
// the loader behaves the same from tests and from the binary.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bakery-quotation-agent"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Database.Postgres.Host == "" {
		cfg.Database.Postgres.Host = "localhost"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Database.Redis.CacheTTL == 0 {
		cfg.Database.Redis.CacheTTL = 300
	}
	if cfg.BOMAPI.BaseURL == "" {
		cfg.BOMAPI.BaseURL = "http://localhost:8000"
	}
	if cfg.BOMAPI.Timeout == 0 {
		cfg.BOMAPI.Timeout = 10000
	}
	if cfg.BOMAPI.MaxRetries == 0 {
		cfg.BOMAPI.MaxRetries = 3
	}
	if cfg.BOMAPI.BackoffMs == 0 {
		cfg.BOMAPI.BackoffMs = 1000
	}
	if cfg.Pricing.LaborRate == 0 {
		cfg.Pricing.LaborRate = 15.0
	}
	if cfg.Pricing.MarkupPct == 0 {
		cfg.Pricing.MarkupPct = 0.30
	}
	if cfg.Pricing.VATPct == 0 {
		cfg.Pricing.VATPct = 0.20
	}
	if cfg.Pricing.Currency == "" {
		cfg.Pricing.Currency = "GBP"
	}
	if cfg.Pricing.CompanyName == "" {
		cfg.Pricing.CompanyName = "The Artisan Bakery"
	}
	if cfg.Pricing.QuoteValidDays == 0 {
		cfg.Pricing.QuoteValidDays = 30
	}
	// Template.Path stays empty by default; the renderer falls back to its
	// built-in layout.
	if cfg.Template.OutputDir == "" {
		cfg.Template.OutputDir = "out"
	}
	if cfg.Sessions.IdleTimeout == 0 {
		cfg.Sessions.IdleTimeout = 1800
	}
	if cfg.Sessions.SweepInterval == 0 {
		cfg.Sessions.SweepInterval = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Pricing.LaborRate < 0 {
		return fmt.Errorf("pricing.labor_rate must be non-negative, got %g", cfg.Pricing.LaborRate)
	}
	if cfg.Pricing.MarkupPct < 0 {
		return fmt.Errorf("pricing.markup_pct must be non-negative, got %g", cfg.Pricing.MarkupPct)
	}
	if cfg.Pricing.VATPct < 0 || cfg.Pricing.VATPct > 1 {
		return fmt.Errorf("pricing.vat_pct must be between 0 and 1, got %g", cfg.Pricing.VATPct)
	}
	if cfg.BOMAPI.MaxRetries < 1 {
		return fmt.Errorf("bom_api.max_retries must be at least 1, got %d", cfg.BOMAPI.MaxRetries)
	}
	return nil
}
