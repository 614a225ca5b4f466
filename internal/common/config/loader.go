// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_HOST
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

	// Environment-specific overlay, ignored if not found
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
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

// loadEnvFile tries .env from the likely working directories so the binary
// and package tests resolve the same file.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
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

// findProjectRoot walks up directories looking for go.mod.
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
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "crisisline-engine"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.App.MetricsPort == 0 {
		cfg.App.MetricsPort = 9102
	}

	if cfg.Database.Postgres.Host == "" {
		cfg.Database.Postgres.Host = "localhost"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
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
	if len(cfg.Database.Elasticsearch.Addresses) == 0 {
		cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Database.Elasticsearch.AuditIndex == "" {
		cfg.Database.Elasticsearch.AuditIndex = "volunteer-audit"
	}

	if cfg.Engine.BurnoutThreshold == 0 {
		cfg.Engine.BurnoutThreshold = 0.7
	}
	if cfg.Engine.RecencyWindow == 0 {
		cfg.Engine.RecencyWindow = 30 * time.Minute
	}
	if cfg.Engine.SelectionLimit == 0 {
		cfg.Engine.SelectionLimit = 50
	}
	if cfg.Engine.DefaultMaxSessions == 0 {
		cfg.Engine.DefaultMaxSessions = 3
	}
	if cfg.Engine.LoadCapDuration == 0 {
		cfg.Engine.LoadCapDuration = 24 * time.Hour
	}
	if cfg.Engine.BreakHoldDuration == 0 {
		cfg.Engine.BreakHoldDuration = 72 * time.Hour
	}
	if cfg.Engine.EmergencyBudget == 0 {
		cfg.Engine.EmergencyBudget = time.Second
	}
	if cfg.Engine.WellnessWindowSize == 0 {
		cfg.Engine.WellnessWindowSize = 30
	}
	if cfg.Engine.AlertRetention == 0 {
		cfg.Engine.AlertRetention = 7 * 24 * time.Hour
	}
	if cfg.Engine.BaseResponseSeconds == 0 {
		cfg.Engine.BaseResponseSeconds = 60
	}

	if cfg.Monitor.WellnessSweepInterval == 0 {
		cfg.Monitor.WellnessSweepInterval = 5 * time.Minute
	}
	if cfg.Monitor.RollupInterval == 0 {
		cfg.Monitor.RollupInterval = time.Hour
	}
	if cfg.Monitor.HealthCheckInterval == 0 {
		cfg.Monitor.HealthCheckInterval = time.Minute
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if cfg.Engine.BurnoutThreshold <= 0 || cfg.Engine.BurnoutThreshold > 1 {
		return fmt.Errorf("engine.burnout_threshold must be in (0,1]")
	}
	if cfg.Engine.SelectionLimit < 1 {
		return fmt.Errorf("engine.selection_limit must be positive")
	}
	return nil
}
