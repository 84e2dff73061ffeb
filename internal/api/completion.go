package api

import (
	"database/sql"
	"time"

	"habittracker/internal/models"

	"github.com/gofiber/fiber/v2"
)

const completionXP = 10

// ToggleHabitCompletion toggles the completion of a habit for the
// calendar day of toggleDate. Toggling on records the completion and
// awards the owner XP; toggling off removes it without reverting XP.
// The habit's streak is set to the total completion count afterwards.
// The whole toggle runs in one transaction so concurrent toggles on the
// same habit serialize instead of racing on a read-modify-write.
func ToggleHabitCompletion(db *sql.DB, habitID, userID int, toggleDate time.Time) (*models.Habit, *models.User, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var ownerID int
	err = tx.QueryRow("SELECT user_id FROM habits WHERE id = ?", habitID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "Habit not found")
	}
	if err != nil {
		return nil, nil, err
	}
	if ownerID != userID {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "User not authorized")
	}

	// Calendar-day key: the UTC date of the toggled timestamp,
	// time-of-day discarded.
	day := toggleDate.UTC().Format("2006-01-02")

	var completionID int
	err = tx.QueryRow("SELECT id FROM habit_completions WHERE habit_id = ? AND day = ?", habitID, day).Scan(&completionID)
	switch {
	case err == nil:
		// Toggle off. XP from the earlier toggle-on stays.
		if _, err := tx.Exec("DELETE FROM habit_completions WHERE id = ?", completionID); err != nil {
			return nil, nil, err
		}
	case err == sql.ErrNoRows:
		// Toggle on: record the completion and award XP.
		if _, err := tx.Exec(
			"INSERT INTO habit_completions (habit_id, day, completed_at) VALUES (?, ?, ?)",
			habitID, day, toggleDate,
		); err != nil {
			return nil, nil, err
		}
		// Level = floor(xp/100) + 1, but it is only ever raised.
		if _, err := tx.Exec(
			"UPDATE users SET xp = xp + ?, level = MAX(level, (xp + ?) / 100 + 1), updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			completionXP, completionXP, userID,
		); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, err
	}

	// Streak mirrors the lifetime completion count.
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM habit_completions WHERE habit_id = ?", habitID).Scan(&count); err != nil {
		return nil, nil, err
	}
	if _, err := tx.Exec("UPDATE habits SET streak = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", count, habitID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	habit, err := getHabit(db, habitID)
	if err != nil {
		return nil, nil, err
	}

	var user models.User
	err = db.QueryRow("SELECT id, name, email, xp, level FROM users WHERE id = ?", userID).
		Scan(&user.ID, &user.Name, &user.Email, &user.XP, &user.Level)
	if err != nil {
		return nil, nil, err
	}

	return habit, &user, nil
}
