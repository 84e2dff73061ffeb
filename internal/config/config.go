package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppEnv string
	Port   string
	DBPath string

	// Security
	JWTSecret           string
	JWTRefreshSecret    string
	AccessTokenMinutes  int
	RefreshTokenDays    int
	RememberRefreshDays int
	CookieSecure        bool

	// Third-party APIs
	GeminiAPIKey   string
	GeminiBaseURL  string
	YouTubeAPIKey  string
	YouTubeBaseURL string

	// HTTP
	AllowedOrigins      string
	DisableRegistration bool

	// Operational
	RunMigrations bool
	LogLevel      string
	LogFile       string
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	return &Config{
		AppEnv: envString("APP_ENV", "development"),
		Port:   envString("PORT", "5000"),
		DBPath: envString("DB_PATH", "./data/habits.db"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTRefreshSecret:    os.Getenv("JWT_REFRESH_SECRET"),
		AccessTokenMinutes:  envInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays:    envInt("REFRESH_TOKEN_DAYS", 7),
		RememberRefreshDays: envInt("REMEMBER_REFRESH_DAYS", 30),
		CookieSecure:        envBool("COOKIE_SECURE", true),

		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:  envString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		YouTubeAPIKey:  os.Getenv("YT_API_KEY"),
		YouTubeBaseURL: envString("YT_BASE_URL", "https://www.googleapis.com/youtube/v3"),

		AllowedOrigins:      envString("ALLOWED_ORIGINS", ""),
		DisableRegistration: envBool("DISABLE_REGISTRATION", false),

		RunMigrations: envBool("RUN_MIGRATIONS", false),
		LogLevel:      envString("LOG_LEVEL", "info"),
		LogFile:       envString("LOG_FILE", ""),
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}
