package api

import (
	"database/sql"
	"log/slog"
	"time"

	"habittracker/internal/auth"
	"habittracker/internal/models"

	"github.com/gofiber/fiber/v2"
)

func SignupHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.SignupRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if req.Name == "" || req.Email == "" || req.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name, email and password are required")
		}

		// Hash password
		hashedPassword, err := auth.HashPassword(req.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to hash password")
		}

		// Insert user; new users start at 0 XP, level 1
		result, err := db.Exec(
			"INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)",
			req.Name, req.Email, hashedPassword,
		)
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, "Email already registered")
		}

		userID, _ := result.LastInsertId()

		accessToken, err := auth.GenerateToken(int(userID), req.Email)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to generate token")
		}

		days := auth.RefreshDays(req.Remember)
		refreshToken, err := auth.GenerateRefreshToken(int(userID), req.Email, days)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to generate refresh token")
		}

		user := models.User{
			ID:    int(userID),
			Name:  req.Name,
			Email: req.Email,
			XP:    0,
			Level: 1,
		}

		// Persist refresh token in DB and set cookie
		expiresAt := time.Now().Add(time.Duration(days) * 24 * time.Hour)
		if err := StoreRefreshToken(db, int(userID), refreshToken, expiresAt, days); err != nil {
			slog.Error("failed to store refresh token", "op", "signup", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to store refresh token")
		}
		setRefreshCookie(c, refreshToken, expiresAt)

		return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
			Token: accessToken,
			User:  user,
		})
	}
}

func LoginHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		// Get user
		var user models.User
		err := db.QueryRow(
			"SELECT id, name, email, password_hash, xp, level FROM users WHERE email = ?",
			req.Email,
		).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.XP, &user.Level)

		if err == sql.ErrNoRows {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Database error")
		}

		// Check password
		if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}

		accessToken, err := auth.GenerateToken(user.ID, user.Email)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to generate token")
		}

		days := auth.RefreshDays(req.Remember)
		refreshToken, err := auth.GenerateRefreshToken(user.ID, user.Email, days)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to generate refresh token")
		}

		expiresAt := time.Now().Add(time.Duration(days) * 24 * time.Hour)
		if err := StoreRefreshToken(db, user.ID, refreshToken, expiresAt, days); err != nil {
			slog.Error("failed to store refresh token", "op", "login", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to store refresh token")
		}
		setRefreshCookie(c, refreshToken, expiresAt)

		return c.JSON(models.AuthResponse{
			Token: accessToken,
			User:  user,
		})
	}
}

// RefreshTokenHandler generates a new access token from a valid refresh token cookie
func RefreshTokenHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		refreshToken := c.Cookies("refresh_token")
		if refreshToken == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Refresh token not found")
		}

		// Validate refresh token signature
		claims, err := auth.ValidateRefreshToken(refreshToken)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired refresh token")
		}

		// Check token presence in DB and get its TTL
		dbUserID, ttlDays, err := ValidateRefreshTokenInDB(db, refreshToken)
		if err != nil {
			slog.Warn("refresh token db validation failed", "error", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Refresh token not valid")
		}
		if dbUserID != claims.UserID {
			return fiber.NewError(fiber.StatusUnauthorized, "Token user mismatch")
		}

		accessToken, err := auth.GenerateToken(claims.UserID, claims.Email)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to generate access token")
		}

		// Rotate refresh token: create new token with same TTL, store and revoke old
		newRefreshToken, err := auth.GenerateRefreshToken(claims.UserID, claims.Email, ttlDays)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to generate new refresh token")
		}
		expiresAt := time.Now().Add(time.Duration(ttlDays) * 24 * time.Hour)
		if err := StoreRefreshToken(db, claims.UserID, newRefreshToken, expiresAt, ttlDays); err != nil {
			slog.Error("failed to store refresh token", "op", "refresh", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to store new refresh token")
		}
		_ = RevokeRefreshToken(db, refreshToken) // best-effort

		setRefreshCookie(c, newRefreshToken, expiresAt)

		return c.JSON(fiber.Map{
			"token": accessToken,
		})
	}
}

// LogoutHandler revokes the refresh token and clears its cookie
func LogoutHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		old := c.Cookies("refresh_token")
		if old != "" {
			_ = RevokeRefreshToken(db, old) // best-effort; ignore errors
		}

		setRefreshCookie(c, "", time.Now().Add(-1*time.Hour))

		return c.JSON(fiber.Map{
			"message": "Logged out successfully",
		})
	}
}

// MeHandler returns the current user's profile including gamification counters
func MeHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		var user models.User
		err := db.QueryRow(
			"SELECT id, name, email, xp, level, created_at FROM users WHERE id = ?",
			userID,
		).Scan(&user.ID, &user.Name, &user.Email, &user.XP, &user.Level, &user.CreatedAt)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to get user profile")
		}

		return c.JSON(user)
	}
}

func setRefreshCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   auth.CookieSecure,
		SameSite: "Lax",
		Path:     "/api/auth",
	})
}
