// Package memory publishes rendered worklog documents to the remote content
// store. The store upserts by path, so republishing a session is harmless.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const documentsPath = "/api/documents"

// Document is one publish request. Path is deterministic for a session, so
// the store's upsert keeps publication idempotent.
type Document struct {
	Path     string            `json:"path"`
	Content  string            `json:"content"`
	Tags     []string          `json:"tags"`
	Metadata map[string]string `json:"metadata"`
}

// StatusError is a non-2xx response from the content store. The publisher
// never retries; that is the caller's decision.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("content store returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to one content store instance.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a client for the configured store. Trailing slashes on
// the URL are tolerated.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

// DocumentPath returns the store path for a session published on the given
// start time. The date component is always UTC.
func DocumentPath(startTime time.Time, sessionID string) string {
	return fmt.Sprintf("/worklog/%s/%s", startTime.UTC().Format("2006-01-02"), sessionID)
}

// Publish POSTs one document. A non-2xx status returns *StatusError.
func (c *Client) Publish(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+documentsPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Cap the diagnostic body; error bodies are small, payloads are not.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
