package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// MongoDB
	MongoURI string
	MongoDB  string

	// Object storage
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string

	// Report branding (optional; skipped when empty or unreachable)
	LogoPrimaryURL   string
	LogoSecondaryURL string

	// Shared bootstrap password for the provisioning tooling
	SharedPassword string

	// Background jobs
	ActaTTL           time.Duration
	ReconcileInterval time.Duration
	ReconcileMinAge   time.Duration
}

func Load() (*Config, error) {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB", "fieldreport")
	viper.SetDefault("SUPABASE_URL", "")
	viper.SetDefault("SUPABASE_SERVICE_KEY", "")
	viper.SetDefault("SUPABASE_STORAGE_BUCKET", "evidencias")
	viper.SetDefault("LOGO_PRIMARY_URL", "")
	viper.SetDefault("LOGO_SECONDARY_URL", "")
	viper.SetDefault("SHARED_PASSWORD", "")
	viper.SetDefault("ACTA_TTL", "24h")
	viper.SetDefault("RECONCILE_INTERVAL", "1h")
	viper.SetDefault("RECONCILE_MIN_AGE", "24h")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:        viper.GetString("PORT"),
		Environment: viper.GetString("ENVIRONMENT"),
		LogLevel:    viper.GetString("LOG_LEVEL"),

		MongoURI: viper.GetString("MONGO_URI"),
		MongoDB:  viper.GetString("MONGO_DB"),

		SupabaseURL:           viper.GetString("SUPABASE_URL"),
		SupabaseServiceKey:    viper.GetString("SUPABASE_SERVICE_KEY"),
		SupabaseStorageBucket: viper.GetString("SUPABASE_STORAGE_BUCKET"),

		LogoPrimaryURL:   viper.GetString("LOGO_PRIMARY_URL"),
		LogoSecondaryURL: viper.GetString("LOGO_SECONDARY_URL"),

		SharedPassword: viper.GetString("SHARED_PASSWORD"),

		ActaTTL:           viper.GetDuration("ACTA_TTL"),
		ReconcileInterval: viper.GetDuration("RECONCILE_INTERVAL"),
		ReconcileMinAge:   viper.GetDuration("RECONCILE_MIN_AGE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	return nil
}
