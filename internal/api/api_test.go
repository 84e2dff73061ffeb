package api_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"habittracker/internal/api"
	"habittracker/internal/auth"
	"habittracker/internal/config"
	"habittracker/internal/database"
	"habittracker/internal/models"

	"github.com/gofiber/fiber/v2"
)

func TestMain(m *testing.M) {
	err := auth.Init(auth.Config{
		Secret:       "test-secret-test-secret-test-secret",
		CookieSecure: false,
	})
	if err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := database.Initialize(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func setupTestApp(db *sql.DB) *fiber.App {
	return setupTestAppWithClients(db, api.NewGeminiClient("", ""), api.NewYouTubeClient("", ""))
}

func setupTestAppWithClients(db *sql.DB, ai *api.GeminiClient, videos *api.YouTubeClient) *fiber.App {
	app := fiber.New()
	api.SetupRoutes(app, db, &config.Config{}, ai, videos)
	return app
}

func signupUser(t *testing.T, app *fiber.App, name, email string) string {
	t.Helper()
	body, _ := json.Marshal(models.SignupRequest{
		Name:     name,
		Email:    email,
		Password: "password123",
	})
	req := httptest.NewRequest("POST", "/api/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201 from signup, got %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var authResp models.AuthResponse
	bodyBytes, _ := io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &authResp)
	if authResp.Token == "" {
		t.Fatal("Expected token in signup response")
	}
	return authResp.Token
}

func createHabit(t *testing.T, app *fiber.App, token string, req models.CreateHabitRequest) models.Habit {
	t.Helper()
	body, _ := json.Marshal(req)
	httpReq := httptest.NewRequest("POST", "/api/habits", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(httpReq)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var habit models.Habit
	bodyBytes, _ := io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &habit)
	return habit
}

func TestSignupAndLogin(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	app := setupTestApp(db)

	signupUser(t, app, "Test User", "testuser@example.com")

	// New users start at 0 XP, level 1
	loginReq := models.LoginRequest{
		Email:    "testuser@example.com",
		Password: "password123",
	}
	body, _ := json.Marshal(loginReq)
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var loginResp models.AuthResponse
	bodyBytes, _ := io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &loginResp)

	if loginResp.Token == "" {
		t.Fatal("Expected token in response")
	}
	if loginResp.User.XP != 0 || loginResp.User.Level != 1 {
		t.Fatalf("Expected fresh user at 0 XP level 1, got %d/%d", loginResp.User.XP, loginResp.User.Level)
	}

	// Wrong password
	body, _ = json.Marshal(models.LoginRequest{Email: "testuser@example.com", Password: "wrong"})
	req = httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("Expected status 401, got %d", resp.StatusCode)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	app := setupTestApp(db)

	signupUser(t, app, "First", "dup@example.com")

	body, _ := json.Marshal(models.SignupRequest{Name: "Second", Email: "dup@example.com", Password: "password123"})
	req := httptest.NewRequest("POST", "/api/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 409 {
		t.Fatalf("Expected status 409, got %d", resp.StatusCode)
	}
}

func TestCreateHabitDefaults(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	app := setupTestApp(db)
	token := signupUser(t, app, "Test User", "habits@example.com")

	habit := createHabit(t, app, token, models.CreateHabitRequest{Name: "Drink water"})

	if habit.Name != "Drink water" {
		t.Fatalf("Expected name preserved, got %q", habit.Name)
	}
	if habit.Category != "General" {
		t.Fatalf("Expected default category General, got %q", habit.Category)
	}
	if habit.Difficulty != "Medium" {
		t.Fatalf("Expected default difficulty Medium, got %q", habit.Difficulty)
	}
	if habit.Icon != "📝" {
		t.Fatalf("Expected default icon, got %q", habit.Icon)
	}
	if habit.Streak != 0 || len(habit.CompletedDates) != 0 {
		t.Fatalf("Expected fresh habit with no completions, got streak %d", habit.Streak)
	}
}

func TestCreateHabitValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	app := setupTestApp(db)
	token := signupUser(t, app, "Test User", "habitsval@example.com")

	cases := []models.CreateHabitRequest{
		{},                                     // missing name
		{Name: "Gym", Difficulty: "Brutal"},    // invalid difficulty
	}
	for _, tc := range cases {
		body, _ := json.Marshal(tc)
		req := httptest.NewRequest("POST", "/api/habits", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 400 {
			t.Fatalf("Expected status 400 for %+v, got %d", tc, resp.StatusCode)
		}
	}
}

func TestListHabits(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	app := setupTestApp(db)
	token := signupUser(t, app, "Test User", "list@example.com")
	otherToken := signupUser(t, app, "Other User", "list-other@example.com")

	createHabit(t, app, token, models.CreateHabitRequest{Name: "Read"})
	createHabit(t, app, token, models.CreateHabitRequest{Name: "Run"})
	createHabit(t, app, otherToken, models.CreateHabitRequest{Name: "Swim"})

	req := httptest.NewRequest("GET", "/api/habits", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var habits []models.Habit
	bodyBytes, _ := io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &habits)

	if len(habits) != 2 {
		t.Fatalf("Expected 2 habits for the caller, got %d", len(habits))
	}
}

func TestToggleEndpoint(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	app := setupTestApp(db)
	token := signupUser(t, app, "Test User", "toggle-http@example.com")

	habit := createHabit(t, app, token, models.CreateHabitRequest{Name: "Stretch"})

	toggleDate := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	body, _ := json.Marshal(models.UpdateHabitRequest{ToggleDate: &toggleDate})
	req := httptest.NewRequest("PUT", fmt.Sprintf("/api/habits/%d", habit.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var toggled models.HabitToggleResponse
	bodyBytes, _ := io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &toggled)

	if len(toggled.CompletedDates) != 1 {
		t.Fatalf("Expected 1 completed date, got %d", len(toggled.CompletedDates))
	}
	if toggled.Streak != 1 {
		t.Fatalf("Expected streak 1, got %d", toggled.Streak)
	}
	if toggled.UserXP != 10 || toggled.UserLevel != 1 {
		t.Fatalf("Expected user at 10 XP level 1, got %d/%d", toggled.UserXP, toggled.UserLevel)
	}
}

func TestUpdateHabitPartial(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	app := setupTestApp(db)
	token := signupUser(t, app, "Test User", "update@example.com")

	habit := createHabit(t, app, token, models.CreateHabitRequest{Name: "Journal"})

	update := []byte(`{"description": "Every evening", "difficulty": "Hard"}`)
	req := httptest.NewRequest("PUT", fmt.Sprintf("/api/habits/%d", habit.ID), bytes.NewReader(update))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var updated models.Habit
	bodyBytes, _ := io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &updated)

	if updated.Description != "Every evening" || updated.Difficulty != "Hard" {
		t.Fatalf("Expected patched fields, got %q/%q", updated.Description, updated.Difficulty)
	}
	if updated.Name != "Journal" {
		t.Fatalf("Expected untouched name, got %q", updated.Name)
	}

	// Fields outside the allow-list are ignored, not applied
	sneaky := []byte(`{"streak": 99, "user_id": 42}`)
	req = httptest.NewRequest("PUT", fmt.Sprintf("/api/habits/%d", habit.ID), bytes.NewReader(sneaky))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	bodyBytes, _ = io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &updated)
	if updated.Streak != 0 {
		t.Fatalf("Expected streak untouched by mass assignment, got %d", updated.Streak)
	}
}

func TestDeleteHabitOwnership(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	app := setupTestApp(db)
	token := signupUser(t, app, "Owner", "del-owner@example.com")
	otherToken := signupUser(t, app, "Intruder", "del-other@example.com")

	habit := createHabit(t, app, token, models.CreateHabitRequest{Name: "Sleep early"})

	// Another user cannot delete it
	req := httptest.NewRequest("DELETE", fmt.Sprintf("/api/habits/%d", habit.ID), nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 403 {
		t.Fatalf("Expected status 403, got %d", resp.StatusCode)
	}

	// Owner can
	req = httptest.NewRequest("DELETE", fmt.Sprintf("/api/habits/%d", habit.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var deleted struct {
		ID int `json:"id"`
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &deleted)
	if deleted.ID != habit.ID {
		t.Fatalf("Expected deleted id %d, got %d", habit.ID, deleted.ID)
	}

	// Gone now
	req = httptest.NewRequest("DELETE", fmt.Sprintf("/api/habits/%d", habit.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("Expected status 404, got %d", resp.StatusCode)
	}
}

func TestMeReflectsXP(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	app := setupTestApp(db)
	token := signupUser(t, app, "Test User", "me@example.com")

	habit := createHabit(t, app, token, models.CreateHabitRequest{Name: "Walk"})

	toggleDate := time.Date(2024, 5, 5, 12, 0, 0, 0, time.UTC)
	body, _ := json.Marshal(models.UpdateHabitRequest{ToggleDate: &toggleDate})
	req := httptest.NewRequest("PUT", fmt.Sprintf("/api/habits/%d", habit.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if _, err := app.Test(req); err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var user models.User
	bodyBytes, _ := io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &user)
	if user.XP != 10 {
		t.Fatalf("Expected 10 XP in profile, got %d", user.XP)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	app := setupTestApp(db)

	for _, path := range []string{"/api/habits", "/api/check-ins"} {
		req := httptest.NewRequest("GET", path, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 401 {
			t.Fatalf("%s: expected status 401, got %d", path, resp.StatusCode)
		}
	}
}

func geminiStub(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Error("Expected api key in query")
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestMotivationEndpoint(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	srv := geminiStub(t, "Small steps every day.")
	defer srv.Close()

	app := setupTestAppWithClients(db, api.NewGeminiClient("test-key", srv.URL), api.NewYouTubeClient("", ""))
	token := signupUser(t, app, "Test User", "motivation@example.com")

	req := httptest.NewRequest("POST", "/api/ai/motivation", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var motivation models.MotivationResponse
	bodyBytes, _ := io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &motivation)
	if motivation.Message != "Small steps every day." {
		t.Fatalf("Unexpected message %q", motivation.Message)
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	srv := geminiStub(t, "Morning run\n\nRead 10 pages\nSleep by 11pm\n")
	defer srv.Close()

	app := setupTestAppWithClients(db, api.NewGeminiClient("test-key", srv.URL), api.NewYouTubeClient("", ""))
	token := signupUser(t, app, "Test User", "suggestions@example.com")

	// Missing goal
	req := httptest.NewRequest("POST", "/api/ai/suggestions", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("Expected status 400 without a goal, got %d", resp.StatusCode)
	}

	body, _ := json.Marshal(models.SuggestionsRequest{Goal: "get fit"})
	req = httptest.NewRequest("POST", "/api/ai/suggestions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var suggestions models.SuggestionsResponse
	bodyBytes, _ := io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &suggestions)
	if len(suggestions.Suggestions) != 3 {
		t.Fatalf("Expected 3 suggestions with blanks dropped, got %d", len(suggestions.Suggestions))
	}
	if suggestions.Suggestions[0] != "Morning run" {
		t.Fatalf("Unexpected first suggestion %q", suggestions.Suggestions[0])
	}
}

func TestAIFailureSurfacesGenericError(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	app := setupTestAppWithClients(db, api.NewGeminiClient("test-key", srv.URL), api.NewYouTubeClient("", ""))
	token := signupUser(t, app, "Test User", "ai-fail@example.com")

	req := httptest.NewRequest("POST", "/api/ai/motivation", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("Expected status 500, got %d", resp.StatusCode)
	}
}

func TestYouTubeSearchEndpoint(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "meditation motivation guide" {
			t.Errorf("Unexpected query %q", got)
		}
		if got := r.URL.Query().Get("maxResults"); got != "6" {
			t.Errorf("Unexpected maxResults %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[{"id":{"videoId":"abc123"},"snippet":{"title":"Guided meditation","description":"Relax","thumbnails":{"medium":{"url":"http://img/1.jpg"}},"channelTitle":"Calm"}}]}`)
	}))
	defer srv.Close()

	app := setupTestAppWithClients(db, api.NewGeminiClient("", ""), api.NewYouTubeClient("test-key", srv.URL))

	// Missing habit param
	req := httptest.NewRequest("GET", "/api/youtube", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("Expected status 400 without habit, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/youtube?habit=meditation", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var videos []models.Video
	bodyBytes, _ := io.ReadAll(resp.Body)
	json.Unmarshal(bodyBytes, &videos)
	if len(videos) != 1 {
		t.Fatalf("Expected 1 video, got %d", len(videos))
	}
	if videos[0].ID != "abc123" || videos[0].ChannelTitle != "Calm" {
		t.Fatalf("Unexpected video mapping %+v", videos[0])
	}
}

func TestYouTubeMissingKey(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	app := setupTestApp(db)

	req := httptest.NewRequest("GET", "/api/youtube?habit=running", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("Expected status 500 without API key, got %d", resp.StatusCode)
	}
}

func TestMigrateAddUserGamification(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// Simulate a pre-gamification users table
	if _, err := db.Exec("ALTER TABLE users DROP COLUMN xp"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("ALTER TABLE users DROP COLUMN level"); err != nil {
		t.Fatal(err)
	}

	if err := api.MigrateAddUserGamification(db); err != nil {
		t.Fatal(err)
	}
	// Idempotent
	if err := api.MigrateAddUserGamification(db); err != nil {
		t.Fatal(err)
	}

	if _, err := db.Exec("INSERT INTO users (name, email, password_hash) VALUES ('m', 'migrate@example.com', 'x')"); err != nil {
		t.Fatal(err)
	}
	var xp, level int
	if err := db.QueryRow("SELECT xp, level FROM users WHERE email = 'migrate@example.com'").Scan(&xp, &level); err != nil {
		t.Fatal(err)
	}
	if xp != 0 || level != 1 {
		t.Fatalf("Expected migrated defaults 0/1, got %d/%d", xp, level)
	}
}
