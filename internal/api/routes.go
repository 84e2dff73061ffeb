package api

import (
	"database/sql"

	"habittracker/internal/config"

	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, db *sql.DB, cfg *config.Config, ai *GeminiClient, videos *YouTubeClient) {
	api := app.Group("/api")

	// Configuration endpoint (public)
	api.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"disableRegistration": cfg.DisableRegistration,
		})
	})

	// Auth routes
	auth := api.Group("/auth")
	if !cfg.DisableRegistration {
		auth.Post("/signup", SignupHandler(db))
	}
	auth.Post("/login", LoginHandler(db))
	auth.Post("/refresh", RefreshTokenHandler(db))
	auth.Post("/logout", LogoutHandler(db))
	auth.Get("/me", AuthMiddleware(), MeHandler(db))

	// Video search is public (no auth in the client either)
	api.Get("/youtube", YouTubeSearchHandler(videos))

	// Protected routes
	protected := api.Group("/", AuthMiddleware())

	// Habit routes
	habits := protected.Group("/habits")
	habits.Get("/", ListHabitsHandler(db))
	habits.Post("/", CreateHabitHandler(db))
	habits.Put("/:id", UpdateHabitHandler(db))
	habits.Delete("/:id", DeleteHabitHandler(db))

	// Check-in routes
	checkIns := protected.Group("/check-ins")
	checkIns.Post("/", CreateCheckInHandler(db))
	checkIns.Get("/", ListCheckInsHandler(db))

	// AI routes
	aiGroup := protected.Group("/ai")
	aiGroup.Post("/motivation", MotivationHandler(ai))
	aiGroup.Post("/suggestions", SuggestionsHandler(ai))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
