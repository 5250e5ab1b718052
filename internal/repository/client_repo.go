package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/verdantleaf/quote_api/internal/models"
)

// ClientRepository provides data access methods for the clients table.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// getBy is a small helper to fetch a single client by a specific column.
// It ensures ip_whitelist is scanned via pq.Array.
func (r *ClientRepository) getBy(where string, arg any) (*models.Client, error) {
	const base = `SELECT id, client_id, name, email, api_key,
        ip_whitelist, is_active, created_at, updated_at
        FROM clients WHERE `

	stmt, err := r.db.Preparex(base + where + " LIMIT 1")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	row := stmt.QueryRowx(arg)
	var c models.Client
	if err := row.Scan(
		&c.ID,
		&c.ClientID,
		&c.Name,
		&c.Email,
		&c.APIKey,
		pq.Array(&c.IPWhitelist),
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &c, nil
}

// GetByAPIKey returns a client by its API key.
func (r *ClientRepository) GetByAPIKey(apiKey string) (*models.Client, error) {
	return r.getBy("api_key = $1", apiKey)
}

// GetByID returns a client by numeric ID.
func (r *ClientRepository) GetByID(id int) (*models.Client, error) {
	return r.getBy("id = $1", id)
}

// GetByClientID returns a client by its public client ID.
func (r *ClientRepository) GetByClientID(clientID string) (*models.Client, error) {
	return r.getBy("client_id = $1", clientID)
}

// Create inserts a new client.
func (r *ClientRepository) Create(c *models.Client) error {
	const q = `
        INSERT INTO clients (client_id, name, email, api_key, ip_whitelist, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRowx(q,
		c.ClientID,
		c.Name,
		c.Email,
		c.APIKey,
		pq.Array(c.IPWhitelist),
		c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Update updates a client's mutable fields.
func (r *ClientRepository) Update(c *models.Client) error {
	const q = `
        UPDATE clients
        SET name = $2, email = $3, ip_whitelist = $4, is_active = $5, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at`
	return r.db.QueryRowx(q,
		c.ID,
		c.Name,
		c.Email,
		pq.Array(c.IPWhitelist),
		c.IsActive,
	).Scan(&c.UpdatedAt)
}

// UpdateAPIKey replaces a client's API key.
func (r *ClientRepository) UpdateAPIKey(id int, apiKey string) error {
	_, err := r.db.Exec(`UPDATE clients SET api_key = $2, updated_at = NOW() WHERE id = $1`, id, apiKey)
	return err
}

// List returns all clients ordered by name.
func (r *ClientRepository) List() ([]models.Client, error) {
	const q = `SELECT id, client_id, name, email, api_key,
        ip_whitelist, is_active, created_at, updated_at
        FROM clients ORDER BY name`

	rows, err := r.db.Queryx(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(
			&c.ID,
			&c.ClientID,
			&c.Name,
			&c.Email,
			&c.APIKey,
			pq.Array(&c.IPWhitelist),
			&c.IsActive,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		// Keys are only returned on creation/regeneration.
		c.APIKey = ""
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
