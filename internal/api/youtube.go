package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"habittracker/internal/models"

	"github.com/gofiber/fiber/v2"
)

const youtubeMaxResults = 6

// YouTubeClient calls the YouTube Data API v3 search endpoint.
type YouTubeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewYouTubeClient(apiKey, baseURL string) *YouTubeClient {
	return &YouTubeClient{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{}}
}

func (y *YouTubeClient) Configured() bool {
	return y.apiKey != ""
}

// Search returns up to maxResults videos matching the query.
func (y *YouTubeClient) Search(ctx context.Context, query string, maxResults int) ([]models.Video, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("type", "video")
	params.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", y.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("youtube status %d: %s", resp.StatusCode, data)
	}

	var result struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				Thumbnails  struct {
					Medium struct {
						URL string `json:"url"`
					} `json:"medium"`
				} `json:"thumbnails"`
				ChannelTitle string `json:"channelTitle"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	videos := []models.Video{}
	for _, item := range result.Items {
		videos = append(videos, models.Video{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			Thumbnail:    item.Snippet.Thumbnails.Medium.URL,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}
	return videos, nil
}

func YouTubeSearchHandler(videos *YouTubeClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		habit := c.Query("habit")
		if habit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Habit name is required")
		}

		if !videos.Configured() {
			return fiber.NewError(fiber.StatusInternalServerError, "YouTube API key is not configured")
		}

		results, err := videos.Search(c.UserContext(), habit+" motivation guide", youtubeMaxResults)
		if err != nil {
			slog.Error("youtube search failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch video suggestions")
		}

		return c.JSON(results)
	}
}
