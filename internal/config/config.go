package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment.
type Config struct {
	DatabaseURL        string
	ServerPort         string
	AllowedOrigins     []string
	LogLevel           string
	LogFormat          string
	MedicineBundlePath string
	DBMaxConns         int32
}

const (
	defaultServerPort    = "8080"
	defaultBundlePath    = "resources/medicines-bundle.db"
	defaultLogLevel      = "info"
	defaultLogFormat     = "json"
	defaultMaxConns      = 10
	defaultAllowedOrigin = "http://localhost:5173"
)

// Load reads .env (if present) and then the environment. DATABASE_URL is required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ServerPort:         getenv("SERVER_PORT", defaultServerPort),
		AllowedOrigins:     splitList(getenv("ALLOWED_ORIGINS", defaultAllowedOrigin)),
		LogLevel:           getenv("LOG_LEVEL", defaultLogLevel),
		LogFormat:          getenv("LOG_FORMAT", defaultLogFormat),
		MedicineBundlePath: getenv("MEDICINE_BUNDLE_PATH", defaultBundlePath),
		DBMaxConns:         defaultMaxConns,
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("DB_MAX_CONNS must be a positive integer, got %q", v)
		}
		cfg.DBMaxConns = int32(n)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
