package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrImageNotConfigured = errors.New("image generation is not configured")

// ImageClient talks to an OpenAI-compatible images API.
type ImageClient struct {
	APIKey  string
	BaseURL string
	Model   string
	Size    string
	HTTP    *http.Client
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewImageClient(apiKey, baseURL, model, size string, timeout time.Duration) *ImageClient {
	return &ImageClient{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Size:    size,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Generate requests a single image for prompt and returns its URL.
func (c *ImageClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", ErrImageNotConfigured
	}

	payload, err := json.Marshal(imageRequest{Model: c.Model, Prompt: prompt, N: 1, Size: c.Size})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/images/generations", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read image response: %w", err)
	}

	var result imageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse image response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode/100 != 2 {
		if result.Error != nil && result.Error.Message != "" {
			return "", fmt.Errorf("image api returned %d: %s", resp.StatusCode, result.Error.Message)
		}
		return "", fmt.Errorf("image api returned %d", resp.StatusCode)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", errors.New("image api returned no image")
	}
	return result.Data[0].URL, nil
}
