package service

import (
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/repository"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// AdminAuthService authenticates catalog administrators and issues JWTs.
type AdminAuthService struct {
	adminRepo *repository.AdminUserRepository
}

// NewAdminAuthService constructs an AdminAuthService.
func NewAdminAuthService(adminRepo *repository.AdminUserRepository) *AdminAuthService {
	return &AdminAuthService{adminRepo: adminRepo}
}

// Login verifies credentials and returns a signed token plus the user.
func (s *AdminAuthService) Login(email, password string) (string, *models.AdminUser, error) {
	user, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, utils.ErrInvalidToken
		}
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, utils.ErrInvalidToken
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, utils.ErrInvalidToken
	}

	token, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Register creates a new admin user with a bcrypt-hashed password.
func (s *AdminAuthService) Register(email, password, name string) (*models.AdminUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.AdminUser{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		IsActive:     true,
	}
	if err := s.adminRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}
