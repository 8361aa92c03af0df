// Package fetch issues single anonymous GET requests against a Featurebase
// portal and decodes the JSON payloads. It carries no retry logic: a failed
// call is terminal for that call, and skipping or aborting is the caller's
// decision.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"

// Error indicates a failed fetch: a non-200 status, a transport failure, or
// an undecodable payload. Status is zero when no HTTP response was received.
type Error struct {
	URL     string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

// IsFetchError checks if an error is a fetch failure.
func IsFetchError(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}

// Client fetches JSON documents with the fixed anonymous-browser header
// bundle the portal expects.
type Client struct {
	client  *http.Client
	logger  *slog.Logger
	referer string
}

// New creates a client. referer should be the portal root, e.g.
// "https://feedback.example.com/".
func New(client *http.Client, referer string, logger *slog.Logger) *Client {
	return &Client{
		client:  client,
		logger:  logger,
		referer: referer,
	}
}

// GetJSON fetches url and decodes the response body into v. Any failure is
// reported as a *Error; nothing is retried.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return &Error{URL: url, Message: fmt.Sprintf("create request: %v", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Dnt", "1")
	req.Header.Set("Referer", c.referer)

	startTime := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Warn("HTTP request failed",
			"url", url,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return &Error{URL: url, Message: err.Error()}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	c.logger.Debug("HTTP request completed",
		"url", url,
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
		"content_length", resp.ContentLength)

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &Error{URL: url, Status: resp.StatusCode, Message: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &Error{URL: url, Message: fmt.Sprintf("decode response: %v", err)}
	}

	return nil
}
