package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "HTTP_ADDR", "DB_PATH", "LOG_LEVEL", "EMBLEM_DIR", "SEED_TEAMS", "SEED_WORKERS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{
		AppEnv:      EnvDev,
		HTTPAddr:    ":8080",
		DBPath:      "school_cup.db",
		LogLevel:    zapcore.InfoLevel,
		EmblemDir:   "emblems",
		SeedTeams:   16,
		SeedWorkers: 4,
	}, cfg)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "PROD")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("DB_PATH", "/tmp/cup.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEED_TEAMS", "32")
	t.Setenv("SEED_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvProd, cfg.AppEnv)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, "/tmp/cup.db", cfg.DBPath)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 32, cfg.SeedTeams)
	assert.Equal(t, 8, cfg.SeedWorkers)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown env", "APP_ENV", "staging"},
		{"unknown level", "LOG_LEVEL", "verbose"},
		{"teams not a number", "SEED_TEAMS", "many"},
		{"no teams", "SEED_TEAMS", "0"},
		{"negative workers", "SEED_WORKERS", "-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
