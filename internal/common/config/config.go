// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name           string `mapstructure:"name"`
	Version        string `mapstructure:"version"`
	Environment    string `mapstructure:"environment"`
	MetricsPort    int    `mapstructure:"metrics_port"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
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

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	AuditIndex string   `mapstructure:"audit_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EngineConfig holds the matching and burnout tuning knobs. Defaults match
// the documented product behavior; overrides are for staging experiments.
type EngineConfig struct {
	BurnoutThreshold    float64       `mapstructure:"burnout_threshold"`
	RecencyWindow       time.Duration `mapstructure:"recency_window"`
	SelectionLimit      int           `mapstructure:"selection_limit"`
	DefaultMaxSessions  int           `mapstructure:"default_max_sessions"`
	LoadCapDuration     time.Duration `mapstructure:"load_cap_duration"`
	BreakHoldDuration   time.Duration `mapstructure:"break_hold_duration"`
	EmergencyBudget     time.Duration `mapstructure:"emergency_budget"`
	WellnessWindowSize  int           `mapstructure:"wellness_window_size"`
	AlertRetention      time.Duration `mapstructure:"alert_retention"`
	BaseResponseSeconds float64       `mapstructure:"base_response_seconds"`
}

// MonitorConfig holds the background loop intervals.
type MonitorConfig struct {
	WellnessSweepInterval time.Duration `mapstructure:"wellness_sweep_interval"`
	RollupInterval        time.Duration `mapstructure:"rollup_interval"`
	HealthCheckInterval   time.Duration `mapstructure:"health_check_interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
