package main

import (
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"habittracker/internal/api"
	"habittracker/internal/auth"
	"habittracker/internal/config"
	"habittracker/internal/database"
	"habittracker/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFile)

	if err := auth.Init(auth.Config{
		Secret:              cfg.JWTSecret,
		RefreshSecret:       cfg.JWTRefreshSecret,
		AccessTokenMinutes:  cfg.AccessTokenMinutes,
		RefreshTokenDays:    cfg.RefreshTokenDays,
		RememberRefreshDays: cfg.RememberRefreshDays,
		CookieSecure:        cfg.CookieSecure,
	}); err != nil {
		slog.Error("failed to initialize auth", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.Initialize(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations only if explicitly enabled (opt-in for safety)
	if cfg.RunMigrations {
		slog.Info("running database migrations")
		if err := api.MigrateAddUserGamification(db); err != nil {
			slog.Error("migration error (user gamification)", "error", err)
		}
	} else {
		slog.Info("migrations skipped (set RUN_MIGRATIONS=true to enable)")
	}

	// Create Fiber app
	isProduction := cfg.IsProduction()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			body := fiber.Map{"message": err.Error()}
			if !isProduction {
				body["stack"] = string(debug.Stack())
			}
			return c.Status(code).JSON(body)
		},
	})

	// Middleware
	app.Use(fiberlogger.New())

	// CORS configuration: restrict to specific origins for security
	allowedOrigins := strings.TrimSpace(cfg.AllowedOrigins)
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:5173" // Default for local dev
		slog.Warn("using default ALLOWED_ORIGINS; set ALLOWED_ORIGINS env var for production")
	} else if allowedOrigins != "*" {
		// Normalize comma-separated list (trim whitespace around entries)
		parts := strings.Split(allowedOrigins, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		allowedOrigins = strings.Join(parts, ",")
	}

	slog.Info("cors allowed origins", "origins", allowedOrigins)

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true, // Required for the refresh cookie
	}))

	// Third-party API clients
	ai := api.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL)
	videos := api.NewYouTubeClient(cfg.YouTubeAPIKey, cfg.YouTubeBaseURL)

	// Setup routes
	api.SetupRoutes(app, db, cfg, ai, videos)

	// Start server
	slog.Info("server starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
