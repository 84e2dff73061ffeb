package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	XP           int       `json:"xp"`
	Level        int       `json:"level"`
	CreatedAt    time.Time `json:"created_at"`
}

type Habit struct {
	ID             int         `json:"id"`
	UserID         int         `json:"user_id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Category       string      `json:"category"`
	Difficulty     string      `json:"difficulty"`
	Icon           string      `json:"icon"`
	CompletedDates []time.Time `json:"completed_dates"`
	Streak         int         `json:"streak"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type CheckIn struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Date      time.Time `json:"date"`
	Mood      string    `json:"mood"`
	Energy    int       `json:"energy"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Thumbnail    string `json:"thumbnail"`
	ChannelTitle string `json:"channelTitle"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateHabitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// UpdateHabitRequest carries either a completion toggle or an
// allow-listed partial update; toggle_date takes precedence.
type UpdateHabitRequest struct {
	ToggleDate  *time.Time `json:"toggle_date,omitempty"`
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Difficulty  *string    `json:"difficulty,omitempty"`
	Icon        *string    `json:"icon,omitempty"`
}

// HabitToggleResponse is the toggle-path response: the updated habit
// plus the owner's gamification counters.
type HabitToggleResponse struct {
	Habit
	UserXP    int `json:"user_xp"`
	UserLevel int `json:"user_level"`
}

type CreateCheckInRequest struct {
	Mood   string `json:"mood"`
	Energy int    `json:"energy"`
}

type SuggestionsRequest struct {
	Goal string `json:"goal"`
}

type MotivationResponse struct {
	Message string `json:"message"`
}

type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}
