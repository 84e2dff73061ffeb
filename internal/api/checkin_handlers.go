package api

import (
	"database/sql"
	"time"

	"habittracker/internal/models"

	"github.com/gofiber/fiber/v2"
)

var validMoods = map[string]bool{"Happy": true, "Okay": true, "Sad": true}

// UpsertCheckIn records the user's mood/energy for the calendar day of
// now (server local time). A check-in already in that day's window is
// overwritten in place rather than duplicated. Runs in one transaction
// so two same-day submissions cannot both pass the existence check.
// Returns the stored check-in and whether a new row was created.
func UpsertCheckIn(db *sql.DB, userID int, mood string, energy int, now time.Time) (*models.CheckIn, bool, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	tx, err := db.Begin()
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var checkInID int
	err = tx.QueryRow(
		"SELECT id FROM check_ins WHERE user_id = ? AND date >= ? AND date < ?",
		userID, startOfDay, endOfDay,
	).Scan(&checkInID)

	created := false
	switch {
	case err == nil:
		if _, err := tx.Exec(
			"UPDATE check_ins SET mood = ?, energy = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			mood, energy, checkInID,
		); err != nil {
			return nil, false, err
		}
	case err == sql.ErrNoRows:
		result, err := tx.Exec(
			"INSERT INTO check_ins (user_id, date, mood, energy) VALUES (?, ?, ?, ?)",
			userID, now, mood, energy,
		)
		if err != nil {
			return nil, false, err
		}
		id, _ := result.LastInsertId()
		checkInID = int(id)
		created = true
	default:
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	var ci models.CheckIn
	err = db.QueryRow(
		"SELECT id, user_id, date, mood, energy, created_at, updated_at FROM check_ins WHERE id = ?",
		checkInID,
	).Scan(&ci.ID, &ci.UserID, &ci.Date, &ci.Mood, &ci.Energy, &ci.CreatedAt, &ci.UpdatedAt)
	if err != nil {
		return nil, false, err
	}
	return &ci, created, nil
}

func CreateCheckInHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		var req models.CreateCheckInRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if req.Mood == "" || req.Energy == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Please provide mood and energy level")
		}
		if !validMoods[req.Mood] {
			return fiber.NewError(fiber.StatusBadRequest, "Mood must be Happy, Okay or Sad")
		}
		if req.Energy < 1 || req.Energy > 5 {
			return fiber.NewError(fiber.StatusBadRequest, "Energy must be between 1 and 5")
		}

		checkIn, created, err := UpsertCheckIn(db, userID, req.Mood, req.Energy, time.Now())
		if err != nil {
			return err
		}

		status := fiber.StatusOK
		if created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(checkIn)
	}
}

func ListCheckInsHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		rows, err := db.Query(
			"SELECT id, user_id, date, mood, energy, created_at, updated_at FROM check_ins WHERE user_id = ? ORDER BY date DESC",
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		checkIns := []models.CheckIn{}
		for rows.Next() {
			var ci models.CheckIn
			err := rows.Scan(&ci.ID, &ci.UserID, &ci.Date, &ci.Mood, &ci.Energy, &ci.CreatedAt, &ci.UpdatedAt)
			if err != nil {
				return err
			}
			checkIns = append(checkIns, ci)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		return c.JSON(checkIns)
	}
}
