package observability

import (
	"os"
	"strings"

	"github.com/smallbiznis/lounge/internal/config"
)

// Config holds observability configuration derived from the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	LogFile           string
	LogFileMaxSizeMB  int
	LogFileMaxBackups int
	LogFileMaxAgeDays int
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "lounge"
	}
	environment := getenv("DEPLOYMENT_ENV", cfg.Environment)
	version := getenv("SERVICE_VERSION", cfg.AppVersion)

	return Config{
		ServiceName:       serviceName,
		Environment:       strings.TrimSpace(environment),
		Version:           strings.TrimSpace(version),
		LogLevel:          strings.ToLower(strings.TrimSpace(cfg.Logger.Level)),
		LogFormat:         strings.ToLower(strings.TrimSpace(cfg.Logger.Format)),
		LogFile:           strings.TrimSpace(cfg.Logger.File),
		LogFileMaxSizeMB:  cfg.Logger.MaxSizeMB,
		LogFileMaxBackups: cfg.Logger.MaxBackups,
		LogFileMaxAgeDays: cfg.Logger.MaxAgeDays,
	}
}

func (c Config) Debug() bool {
	level := strings.ToLower(strings.TrimSpace(c.LogLevel))
	if level == "debug" {
		return true
	}
	return isDevEnv(c.Environment)
}

func isDevEnv(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	switch env {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getenv(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}
