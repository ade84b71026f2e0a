package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBSlowQueryMS     int

	Logger  LoggerConfig
	Redis   RedisConfig
	Catalog CatalogFileConfig
}

type LoggerConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// RedisConfig enables the cross-replica device lock. An empty Addr disables it.
type RedisConfig struct {
	Addr                 string
	Password             string
	DB                   int
	DeviceLockTTLSeconds int
}

type CatalogFileConfig struct {
	File  string
	Watch bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:           getenv("APP_SERVICE", "lounge"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		DBType:            strings.ToLower(getenv("DATABASE_TYPE", "postgres")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "lounge"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "lounge.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBSlowQueryMS:     getenvInt("DATABASE_SLOW_QUERY_MS", 200),
		Logger: LoggerConfig{
			Level:      strings.ToLower(getenv("LOG_LEVEL", "info")),
			Format:     strings.ToLower(getenv("LOG_FORMAT", "json")),
			File:       strings.TrimSpace(getenv("LOG_FILE", "")),
			MaxSizeMB:  getenvInt("LOG_FILE_MAX_SIZE_MB", 100),
			MaxBackups: getenvInt("LOG_FILE_MAX_BACKUPS", 5),
			MaxAgeDays: getenvInt("LOG_FILE_MAX_AGE_DAYS", 28),
		},
		Redis: RedisConfig{
			Addr:                 strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password:             strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:                   getenvInt("REDIS_DB", 0),
			DeviceLockTTLSeconds: getenvInt("DEVICE_LOCK_TTL_SECONDS", 10),
		},
		Catalog: CatalogFileConfig{
			File:  strings.TrimSpace(getenv("CATALOG_FILE", "")),
			Watch: getenvBool("CATALOG_WATCH", true),
		},
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewCatalogHolder),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
