package api

import (
	"fmt"
	"log/slog"
	"strings"

	"habittracker/internal/models"

	"github.com/gofiber/fiber/v2"
)

const motivationPrompt = `Generate a short, powerful, and unique motivational quote or tip for someone trying to build good habits. Keep it under 30 words.`

const suggestionsPromptFmt = `A user wants to achieve this goal: "%s".
Suggest 3 specific, actionable daily habits they can start.
Format the response as a simple list, one per line. Do not include numbering or bullet points, just the habit names.`

func MotivationHandler(ai *GeminiClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		text, err := ai.GenerateContent(c.UserContext(), motivationPrompt)
		if err != nil {
			slog.Error("motivation request failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "AI Service Error")
		}

		return c.JSON(models.MotivationResponse{Message: text})
	}
}

func SuggestionsHandler(ai *GeminiClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.SuggestionsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.Goal == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Please provide a goal")
		}

		text, err := ai.GenerateContent(c.UserContext(), fmt.Sprintf(suggestionsPromptFmt, req.Goal))
		if err != nil {
			slog.Error("suggestions request failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "AI Service Error")
		}

		// One habit per line; drop blanks
		suggestions := []string{}
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				suggestions = append(suggestions, line)
			}
		}

		return c.JSON(models.SuggestionsResponse{Suggestions: suggestions})
	}
}
