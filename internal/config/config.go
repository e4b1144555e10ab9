package config

import (
	"os"
	"strconv"
)

// Database drivers understood by the server and seed commands
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port        string
	Environment string
	// Storage
	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseURL    string // postgres connection string or sqlite path
	TablePrefix    string
	DBMaxConns     int32
	DBMinConns     int32
	// Auth - empty JWKSURL disables token checks
	JWKSURL     string
	JWTRole     string
	CORSOrigins string
	// Layout
	IndentationWidth int
	// Logging
	LogDir      string // empty disables the file sink
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      env,
		DatabaseDriver:   getEnv("DATABASE_DRIVER", getDefaultDriver(env)),
		DatabaseURL:      getEnv("DATABASE_URL", "statusboard.db"),
		TablePrefix:      getTablePrefix(env),
		DBMaxConns:       int32(getEnvInt("DB_MAX_CONNS", 25)),
		DBMinConns:       int32(getEnvInt("DB_MIN_CONNS", 5)),
		JWKSURL:          getEnv("JWKS_URL", ""),
		JWTRole:          getEnv("JWT_ROLE", "authenticated"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		IndentationWidth: getEnvInt("INDENTATION_WIDTH", 50),
		LogDir:           getEnv("LOG_DIR", ""),
		LogMaxFiles:      getEnvInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDriver keeps local development dependency-free
func getDefaultDriver(env string) string {
	if env == "dev" {
		return DriverSQLite
	}
	return DriverPostgres
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
