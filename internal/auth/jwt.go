package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var jwtSecret []byte
var refreshSecret []byte
var accessTokenMinutes = 15
var refreshTokenDays = 7
var rememberRefreshDays = 30
var CookieSecure = true

// Config carries the token settings; zero values fall back to defaults.
type Config struct {
	Secret              string
	RefreshSecret       string
	AccessTokenMinutes  int
	RefreshTokenDays    int
	RememberRefreshDays int
	CookieSecure        bool
}

// Init must be called before any token is issued or validated.
func Init(cfg Config) error {
	if cfg.Secret == "" {
		return errors.New("JWT_SECRET is required and must not be empty")
	}
	if len(cfg.Secret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters long")
	}
	jwtSecret = []byte(cfg.Secret)

	// Refresh tokens use a separate secret for better security
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.Secret + "-refresh" // Derive from main secret if not provided
	}
	refreshSecret = []byte(cfg.RefreshSecret)

	if cfg.AccessTokenMinutes > 0 {
		accessTokenMinutes = cfg.AccessTokenMinutes
	}
	if cfg.RefreshTokenDays > 0 {
		refreshTokenDays = cfg.RefreshTokenDays
	}
	if cfg.RememberRefreshDays > 0 {
		rememberRefreshDays = cfg.RememberRefreshDays
	}
	CookieSecure = cfg.CookieSecure
	return nil
}

type Claims struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type,omitempty"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// GenerateToken creates a short-lived access token
func GenerateToken(userID int, email string) (string, error) {
	claims := Claims{
		UserID:    userID,
		Email:     email,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(accessTokenMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// GenerateRefreshToken creates a refresh token that expires after the given number of days
func GenerateRefreshToken(userID int, email string, days int) (string, error) {
	if days <= 0 {
		days = refreshTokenDays
	}
	claims := Claims{
		UserID:    userID,
		Email:     email,
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(days) * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(refreshSecret)
}

func ValidateToken(tokenString string) (*Claims, error) {
	return validate(tokenString, jwtSecret, "access")
}

// ValidateRefreshToken validates a refresh token
func ValidateRefreshToken(tokenString string) (*Claims, error) {
	return validate(tokenString, refreshSecret, "refresh")
}

func validate(tokenString string, secret []byte, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if claims.TokenType != tokenType {
			return nil, errors.New("invalid token type")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func CheckPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// RefreshDays returns configured refresh token TTL in days depending on remember flag
func RefreshDays(remember bool) int {
	if remember {
		return rememberRefreshDays
	}
	return refreshTokenDays
}
