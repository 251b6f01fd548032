package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// Config holds the runtime settings of the web server and the seeder.
type Config struct {
	AppEnv   string
	HTTPAddr string
	DBPath   string
	LogLevel zapcore.Level

	// served under /emblems
	EmblemDir string

	// seeder only
	SeedTeams   int
	SeedWorkers int
}

// Load reads the process environment. Call godotenv first to pick up a .env file.
func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logLevel, err := zapcore.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, errors.Wrap(err, "parse LOG_LEVEL")
	}

	seedTeams, err := getEnvAsInt("SEED_TEAMS", 16)
	if err != nil {
		return Config{}, errors.Wrap(err, "parse SEED_TEAMS")
	}
	if seedTeams <= 0 {
		return Config{}, errors.New("SEED_TEAMS must be > 0")
	}

	seedWorkers, err := getEnvAsInt("SEED_WORKERS", 4)
	if err != nil {
		return Config{}, errors.Wrap(err, "parse SEED_WORKERS")
	}
	if seedWorkers <= 0 {
		return Config{}, errors.New("SEED_WORKERS must be > 0")
	}

	dbPath := strings.TrimSpace(getEnv("DB_PATH", "school_cup.db"))

	return Config{
		AppEnv:      appEnv,
		HTTPAddr:    strings.TrimSpace(getEnv("HTTP_ADDR", ":8080")),
		DBPath:      dbPath,
		LogLevel:    logLevel,
		EmblemDir:   strings.TrimSpace(getEnv("EMBLEM_DIR", "emblems")),
		SeedTeams:   seedTeams,
		SeedWorkers: seedWorkers,
	}, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvProd:
		return value, nil
	default:
		return "", errors.Newf("invalid APP_ENV %q: valid values are %s, %s", v, EnvDev, EnvProd)
	}
}
