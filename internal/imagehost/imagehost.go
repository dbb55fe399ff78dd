// Package imagehost talks to the external image-hosting collaborator.
//
// The provider's protocol is consumed, not redesigned: a multipart POST
// of the image bytes plus a destination folder, answered with the hosted
// secure URL. The backend never retains the uploaded bytes.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when no image host endpoint is set.
var ErrNotConfigured = errors.New("imagehost: not configured")

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader, folder string) (string, error)
}

// Client uploads images over HTTP with an API key.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient creates a Client for the given upload endpoint.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload posts the image as multipart form data and returns the hosted
// URL from the provider's response.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader, folder string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	if err := form.WriteField("folder", folder); err != nil {
		return "", fmt.Errorf("imagehost: writing folder field: %w", err)
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("imagehost: creating form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("imagehost: copying image bytes: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("imagehost: finalizing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("imagehost: building request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("imagehost: uploading %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("imagehost: upload of %s failed with status %d", filename, resp.StatusCode)
	}

	var payload struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("imagehost: decoding upload response: %w", err)
	}
	if payload.SecureURL == "" {
		return "", errors.New("imagehost: provider returned no secure_url")
	}

	return payload.SecureURL, nil
}

// Disabled is the Uploader used when no image host is configured. The
// server still starts; only image-upload routes fail.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}
