package api

import (
	"database/sql"
	"fmt"
)

// columnExists checks if a column exists on a given table (SQLite PRAGMA table_info)
func columnExists(db *sql.DB, table string, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var cid int
	var name string
	var ctype string
	var notnull int
	var dflt sql.NullString
	var pk int

	for rows.Next() {
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, nil
}

// MigrateAddUserGamification ensures the users table has xp and level
// columns, for databases created before gamification (idempotent).
func MigrateAddUserGamification(db *sql.DB) error {
	exists, err := columnExists(db, "users", "xp")
	if err != nil {
		return err
	}
	if !exists {
		if _, err := db.Exec("ALTER TABLE users ADD COLUMN xp INTEGER NOT NULL DEFAULT 0"); err != nil {
			return err
		}
	}

	exists, err = columnExists(db, "users", "level")
	if err != nil {
		return err
	}
	if !exists {
		if _, err := db.Exec("ALTER TABLE users ADD COLUMN level INTEGER NOT NULL DEFAULT 1"); err != nil {
			return err
		}
	}
	return nil
}
