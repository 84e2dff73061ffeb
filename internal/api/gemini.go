package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const geminiModel = "gemini-2.0-flash"

// GeminiClient calls the Gemini generateContent REST API.
type GeminiClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGeminiClient(apiKey, baseURL string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{}}
}

func (g *GeminiClient) Configured() bool {
	return g.apiKey != ""
}

// GenerateContent sends a single-turn prompt and returns the model's text.
func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if !g.Configured() {
		return "", fmt.Errorf("gemini api key is not configured")
	}

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	payload, _ := json.Marshal(body)

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, geminiModel, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode, data)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty candidates")
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}
