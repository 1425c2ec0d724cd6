// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	BOMAPI   BOMAPIConfig   `mapstructure:"bom_api"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Template TemplateConfig `mapstructure:"template"`
	Sessions SessionConfig  `mapstructure:"sessions"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds, for material cost caching
}

// BOMAPIConfig holds settings for the external BOM estimation service.
type BOMAPIConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"`     // milliseconds
	MaxRetries int    `mapstructure:"max_retries"` // transient failures only
	BackoffMs  int    `mapstructure:"backoff_ms"`  // base for exponential backoff
}

// PricingConfig holds the default rates applied to every quote.
type PricingConfig struct {
	LaborRate      float64 `mapstructure:"labor_rate"`
	MarkupPct      float64 `mapstructure:"markup_pct"` // decimal fraction, 0.30 for 30%
	VATPct         float64 `mapstructure:"vat_pct"`    // decimal fraction, 0.20 for 20%
	Currency       string  `mapstructure:"currency"`
	CompanyName    string  `mapstructure:"company_name"`
	QuoteValidDays int     `mapstructure:"quote_valid_days"`
}

type TemplateConfig struct {
	Path      string `mapstructure:"path"`
	OutputDir string `mapstructure:"output_dir"`
}

type SessionConfig struct {
	IdleTimeout   int `mapstructure:"idle_timeout"`   // seconds
	SweepInterval int `mapstructure:"sweep_interval"` // seconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}
