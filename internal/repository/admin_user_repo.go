package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/verdantleaf/quote_api/internal/models"
)

// AdminUserRepository provides data access for admin users.
type AdminUserRepository struct {
	db *sqlx.DB
}

// NewAdminUserRepository creates a new AdminUserRepository.
func NewAdminUserRepository(db *sqlx.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

// GetByEmail returns an admin user by email.
func (r *AdminUserRepository) GetByEmail(email string) (*models.AdminUser, error) {
	const q = `SELECT * FROM admin_users WHERE email = $1 LIMIT 1`
	var u models.AdminUser
	if err := r.db.Get(&u, q, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new admin user.
func (r *AdminUserRepository) Create(u *models.AdminUser) error {
	const q = `
        INSERT INTO admin_users (email, password_hash, name, is_active)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRowx(q, u.Email, u.PasswordHash, u.Name, u.IsActive).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}
