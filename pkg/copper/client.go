package copper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the Copper developer API base URL.
const DefaultBaseURL = "https://api.copper.com/developer_api/v1"

// Client is a minimal HTTP client for the Copper CRM developer API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	accessToken    string
	userEmail      string
	activityTypeID int
	debug          bool
}

// NewClient constructs a new Copper client with sane defaults.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		baseURL:        baseURL,
		accessToken:    cfg.AccessToken,
		userEmail:      cfg.UserEmail,
		activityTypeID: cfg.ActivityTypeID,
		debug:          os.Getenv("ENV") == "development",
	}
}

// LogActivity records a user activity with the given details, optionally
// attached to a person record.
func (c *Client) LogActivity(ctx context.Context, details string, personID int) (*Activity, error) {
	req := ActivityRequest{
		Type: ActivityType{
			Category: "user",
			ID:       c.activityTypeID,
		},
		Details:      details,
		ActivityDate: time.Now().Unix(),
	}
	if personID > 0 {
		req.Parent = &Parent{Type: "person", ID: personID}
	}
	var activity Activity
	if err := c.doRequest(ctx, http.MethodPost, "/activities", req, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// FindPersonByEmail searches for a contact by email address. Returns nil
// without error when no contact matches.
func (c *Client) FindPersonByEmail(ctx context.Context, email string) (*Person, error) {
	req := PersonSearchRequest{
		Emails:   []string{email},
		PageSize: 1,
	}
	var people []Person
	if err := c.doRequest(ctx, http.MethodPost, "/people/search", req, &people); err != nil {
		return nil, err
	}
	if len(people) == 0 {
		return nil, nil
	}
	return &people[0], nil
}

// doRequest performs an HTTP request with Copper auth headers and decodes the
// JSON response into result.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", c.baseURL+endpoint).
			RawJSON("request", payload).
			Msg("[COPPER] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-PW-Application", "developer_api")
	req.Header.Set("X-PW-AccessToken", c.accessToken)
	req.Header.Set("X-PW-UserEmail", c.userEmail)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			RawJSON("response", respBody).
			Msg("[COPPER] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("copper api returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
