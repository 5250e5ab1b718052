// Package githubstore writes files to a GitHub repository through the
// contents REST API. It is used to publish catalog snapshots so the pricing
// data has a versioned, reviewable home outside the database.
package githubstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds the target repository and credentials.
type Config struct {
	BaseURL string
	Token   string
	Owner   string
	Repo    string
	Branch  string
}

// Client is a minimal HTTP client for the GitHub contents API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	owner      string
	repo       string
	branch     string
	debug      bool
}

// NewClient constructs a new GitHub contents client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		token:      cfg.Token,
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		branch:     branch,
		debug:      os.Getenv("ENV") == "development",
	}
}

type contentsResponse struct {
	SHA     string `json:"sha"`
	Content string `json:"content"`
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type putContentsResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// GetFile fetches a file's raw content and blob SHA. A missing file returns
// empty content and an empty SHA without error, so callers can create it.
func (c *Client) GetFile(ctx context.Context, path string) ([]byte, string, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", c.owner, c.repo, path, c.branch)
	var resp contentsResponse
	status, err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp)
	if err != nil {
		return nil, "", err
	}
	if status == http.StatusNotFound {
		return nil, "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(stripNewlines(resp.Content))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode file content: %w", err)
	}
	return raw, resp.SHA, nil
}

// PutFile creates or updates a file. The existing blob SHA is looked up first
// because the contents API requires it for updates.
func (c *Client) PutFile(ctx context.Context, path, message string, content []byte) (string, error) {
	_, sha, err := c.GetFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to look up existing file: %w", err)
	}

	req := putContentsRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.branch,
		SHA:     sha,
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", c.owner, c.repo, path)
	var resp putContentsResponse
	status, err := c.doRequest(ctx, http.MethodPut, endpoint, req, &resp)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", fmt.Errorf("github api returned status %d", status)
	}
	return resp.Commit.SHA, nil
}

// doRequest performs an HTTP request with GitHub auth headers and decodes the
// JSON response into result. 404 is returned as a status, not an error, so
// GetFile can distinguish missing files.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any, result any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Msg("[GITHUB] Response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("github api returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// stripNewlines removes the line breaks GitHub inserts into base64 payloads.
func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
