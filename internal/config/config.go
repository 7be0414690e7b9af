package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"akstore/internal/util"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	LogLevel string

	DBDriver          string
	DatabaseURL       string
	SystemDatabaseURL string
	DBMaxConns        int
	Seed              bool

	JWTIssuer       string
	JWTSecret       string
	SessionTTLHours int

	StrictOrderTransitions bool
	CORSOrigins            []string
}

func Load() Config {
	cfg := Config{
		AppEnv:   get("APP_ENV", "dev"),
		HTTPAddr: get("HTTP_ADDR", ":5001"),
		LogLevel: get("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(get("DB_DRIVER", "sqlite")),
		DatabaseURL: get("DATABASE_URL", "file:akstore.db"),
		DBMaxConns:  getInt("DB_MAX_CONNS", 10),
		Seed:        getBool("SEED", true),

		JWTIssuer:       get("JWT_ISSUER", "akstore"),
		JWTSecret:       get("JWT_SECRET", ""),
		SessionTTLHours: getInt("SESSION_TTL_HOURS", 24*7),

		StrictOrderTransitions: getBool("ORDER_STRICT_TRANSITIONS", false),
		CORSOrigins:            getList("CORS_ORIGINS", []string{"*"}),
	}
	cfg.SystemDatabaseURL = get("SYSTEM_DATABASE_URL", cfg.DatabaseURL)

	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, generating a random one; sessions will not survive a restart")
		secret, err := util.RandomToken(32)
		if err != nil {
			secret = "akstore-dev-secret"
		}
		cfg.JWTSecret = secret
	}
	return cfg
}

// SplitDatabases reports whether accounts and settings live in their own database.
func (c Config) SplitDatabases() bool {
	return c.SystemDatabaseURL != c.DatabaseURL
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getList(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
