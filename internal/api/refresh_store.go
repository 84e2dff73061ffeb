package api

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"
)

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// StoreRefreshToken stores a refresh token hash in the database with expiry
func StoreRefreshToken(db *sql.DB, userID int, token string, expiresAt time.Time, ttlDays int) error {
	th := hashToken(token)
	// INSERT OR IGNORE avoids unique constraint failures when identical
	// tokens are generated in quick succession (tests); the UPDATE then
	// refreshes the metadata either way.
	_, err := db.Exec("INSERT OR IGNORE INTO refresh_tokens (user_id, token_hash, expires_at, ttl_days) VALUES (?, ?, ?, ?)", userID, th, expiresAt, ttlDays)
	if err != nil {
		return err
	}
	_, err = db.Exec("UPDATE refresh_tokens SET expires_at = ?, ttl_days = ?, revoked = 0 WHERE token_hash = ?", expiresAt, ttlDays, th)
	return err
}

// ValidateRefreshTokenInDB checks that the token exists, is not revoked and not expired, returns userID and TTL if valid
func ValidateRefreshTokenInDB(db *sql.DB, token string) (int, int, error) {
	th := hashToken(token)
	var userID int
	var expiresAt time.Time
	var revoked int
	var ttlDays int
	row := db.QueryRow("SELECT user_id, expires_at, revoked, ttl_days FROM refresh_tokens WHERE token_hash = ?", th)
	if err := row.Scan(&userID, &expiresAt, &revoked, &ttlDays); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, errors.New("refresh token not found")
		}
		return 0, 0, err
	}
	if revoked != 0 {
		return 0, 0, errors.New("refresh token revoked")
	}
	if time.Now().After(expiresAt) {
		return 0, 0, errors.New("refresh token expired")
	}
	return userID, ttlDays, nil
}

// RevokeRefreshToken revokes a refresh token by token string
func RevokeRefreshToken(db *sql.DB, token string) error {
	th := hashToken(token)
	_, err := db.Exec("UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?", th)
	return err
}
