package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalConfig() *Config {
	cfg := &Config{}
	cfg.Database.Postgres.Database = "volunteers"
	cfg.Database.Postgres.User = "engine"
	return cfg
}

func TestDefaultsApplied(t *testing.T) {
	cfg := minimalConfig()
	applyDefaults(cfg)

	assert.Equal(t, 0.7, cfg.Engine.BurnoutThreshold)
	assert.Equal(t, 30*time.Minute, cfg.Engine.RecencyWindow)
	assert.Equal(t, 50, cfg.Engine.SelectionLimit)
	assert.Equal(t, 3, cfg.Engine.DefaultMaxSessions)
	assert.Equal(t, 24*time.Hour, cfg.Engine.LoadCapDuration)
	assert.Equal(t, 72*time.Hour, cfg.Engine.BreakHoldDuration)
	assert.Equal(t, time.Second, cfg.Engine.EmergencyBudget)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.WellnessSweepInterval)
	assert.Equal(t, time.Hour, cfg.Monitor.RollupInterval)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestDefaultsDoNotOverrideExplicitValues(t *testing.T) {
	cfg := minimalConfig()
	cfg.Engine.BurnoutThreshold = 0.5
	cfg.Engine.SelectionLimit = 10
	applyDefaults(cfg)

	assert.Equal(t, 0.5, cfg.Engine.BurnoutThreshold)
	assert.Equal(t, 10, cfg.Engine.SelectionLimit)
}

func TestValidateConfig(t *testing.T) {
	cfg := minimalConfig()
	applyDefaults(cfg)
	require.NoError(t, validateConfig(cfg))

	cfg.Engine.BurnoutThreshold = 1.5
	assert.Error(t, validateConfig(cfg))

	cfg = minimalConfig()
	applyDefaults(cfg)
	cfg.Database.Postgres.User = ""
	assert.Error(t, validateConfig(cfg))
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5432, User: "engine", Password: "secret",
		Database: "volunteers", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=engine password=secret dbname=volunteers sslmode=disable",
		p.GetDSN())
}
