package models

import "time"

// Client represents a sales rep (or integration) allowed to call the quoting
// API. The API key is omitted from JSON responses except right after creation
// or regeneration.
type Client struct {
	ID          int       `db:"id" json:"id"`
	ClientID    string    `db:"client_id" json:"clientId"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	APIKey      string    `db:"api_key" json:"apiKey,omitempty"`
	IPWhitelist []string  `db:"ip_whitelist" json:"ipWhitelist"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
