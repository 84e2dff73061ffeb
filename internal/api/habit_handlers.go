package api

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"habittracker/internal/models"

	"github.com/gofiber/fiber/v2"
)

var validDifficulties = map[string]bool{"Easy": true, "Medium": true, "Hard": true}

func ListHabitsHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		rows, err := db.Query(
			`SELECT id, user_id, name, COALESCE(description, ''), category, difficulty, icon, streak, created_at, updated_at
			FROM habits WHERE user_id = ? ORDER BY created_at DESC`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		habits := []models.Habit{}
		for rows.Next() {
			var h models.Habit
			err := rows.Scan(
				&h.ID, &h.UserID, &h.Name, &h.Description, &h.Category,
				&h.Difficulty, &h.Icon, &h.Streak, &h.CreatedAt, &h.UpdatedAt,
			)
			if err != nil {
				return err
			}
			habits = append(habits, h)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for i := range habits {
			dates, err := loadCompletedDates(db, habits[i].ID)
			if err != nil {
				return err
			}
			habits[i].CompletedDates = dates
		}

		return c.JSON(habits)
	}
}

func CreateHabitHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		var req models.CreateHabitRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}
		if req.Category == "" {
			req.Category = "General"
		}
		if req.Difficulty == "" {
			req.Difficulty = "Medium"
		}
		if !validDifficulties[req.Difficulty] {
			return fiber.NewError(fiber.StatusBadRequest, "Difficulty must be Easy, Medium or Hard")
		}
		if req.Icon == "" {
			req.Icon = "📝"
		}

		result, err := db.Exec(
			`INSERT INTO habits (user_id, name, description, category, difficulty, icon) VALUES (?, ?, ?, ?, ?, ?)`,
			userID, req.Name, req.Description, req.Category, req.Difficulty, req.Icon,
		)
		if err != nil {
			return err
		}

		habitID, _ := result.LastInsertId()
		habit, err := getHabit(db, int(habitID))
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(habit)
	}
}

// UpdateHabitHandler dispatches on the request body: a toggle_date runs
// the completion engine, anything else is an allow-listed field patch.
func UpdateHabitHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)
		habitID, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid habit ID")
		}

		var req models.UpdateHabitRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if req.ToggleDate != nil {
			habit, user, err := ToggleHabitCompletion(db, habitID, userID, *req.ToggleDate)
			if err != nil {
				return err
			}
			return c.JSON(models.HabitToggleResponse{
				Habit:     *habit,
				UserXP:    user.XP,
				UserLevel: user.Level,
			})
		}

		// Check ownership
		var ownerID int
		err = db.QueryRow("SELECT user_id FROM habits WHERE id = ?", habitID).Scan(&ownerID)
		if err == sql.ErrNoRows {
			return fiber.NewError(fiber.StatusNotFound, "Habit not found")
		}
		if err != nil {
			return err
		}
		if ownerID != userID {
			return fiber.NewError(fiber.StatusForbidden, "User not authorized")
		}

		sets := []string{}
		args := []interface{}{}
		if req.Name != nil {
			if *req.Name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name is required")
			}
			sets = append(sets, "name = ?")
			args = append(args, *req.Name)
		}
		if req.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, *req.Description)
		}
		if req.Category != nil {
			sets = append(sets, "category = ?")
			args = append(args, *req.Category)
		}
		if req.Difficulty != nil {
			if !validDifficulties[*req.Difficulty] {
				return fiber.NewError(fiber.StatusBadRequest, "Difficulty must be Easy, Medium or Hard")
			}
			sets = append(sets, "difficulty = ?")
			args = append(args, *req.Difficulty)
		}
		if req.Icon != nil {
			sets = append(sets, "icon = ?")
			args = append(args, *req.Icon)
		}

		if len(sets) > 0 {
			sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
			args = append(args, habitID)
			_, err = db.Exec("UPDATE habits SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
			if err != nil {
				return err
			}
		}

		habit, err := getHabit(db, habitID)
		if err != nil {
			return err
		}
		return c.JSON(habit)
	}
}

func DeleteHabitHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)
		habitID, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid habit ID")
		}

		// Check ownership
		var ownerID int
		err = db.QueryRow("SELECT user_id FROM habits WHERE id = ?", habitID).Scan(&ownerID)
		if err == sql.ErrNoRows {
			return fiber.NewError(fiber.StatusNotFound, "Habit not found")
		}
		if err != nil {
			return err
		}
		if ownerID != userID {
			return fiber.NewError(fiber.StatusForbidden, "User not authorized")
		}

		// Completions go with the habit via ON DELETE CASCADE
		if _, err := db.Exec("DELETE FROM habits WHERE id = ?", habitID); err != nil {
			return err
		}

		return c.JSON(fiber.Map{"id": habitID})
	}
}

func getHabit(db *sql.DB, habitID int) (*models.Habit, error) {
	var h models.Habit
	err := db.QueryRow(
		`SELECT id, user_id, name, COALESCE(description, ''), category, difficulty, icon, streak, created_at, updated_at
		FROM habits WHERE id = ?`,
		habitID,
	).Scan(
		&h.ID, &h.UserID, &h.Name, &h.Description, &h.Category,
		&h.Difficulty, &h.Icon, &h.Streak, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	dates, err := loadCompletedDates(db, habitID)
	if err != nil {
		return nil, err
	}
	h.CompletedDates = dates
	return &h, nil
}

func loadCompletedDates(db *sql.DB, habitID int) ([]time.Time, error) {
	rows, err := db.Query(
		"SELECT completed_at FROM habit_completions WHERE habit_id = ? ORDER BY completed_at ASC",
		habitID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := []time.Time{}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
