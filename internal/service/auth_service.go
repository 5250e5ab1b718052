package service

import (
	"database/sql"
	"errors"
	"net"

	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/repository"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// AuthService validates rep API keys and enforces per-client IP whitelists.
type AuthService struct {
	clientRepo *repository.ClientRepository
}

// NewAuthService constructs an AuthService.
func NewAuthService(clientRepo *repository.ClientRepository) *AuthService {
	return &AuthService{clientRepo: clientRepo}
}

// ValidateAPIKey looks up an active client by API key.
func (s *AuthService) ValidateAPIKey(apiKey string) (*models.Client, error) {
	if apiKey == "" {
		return nil, utils.ErrInvalidClient
	}
	client, err := s.clientRepo.GetByAPIKey(apiKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrInvalidClient
		}
		return nil, err
	}
	if !client.IsActive {
		return nil, utils.ErrInvalidClient
	}
	return client, nil
}

// IsIPAllowed checks the caller's IP against the client's whitelist. An empty
// whitelist allows any origin. Entries may be plain IPs or CIDR ranges.
func (s *AuthService) IsIPAllowed(client *models.Client, remoteIP string) bool {
	if len(client.IPWhitelist) == 0 {
		return true
	}
	ip := net.ParseIP(remoteIP)
	if ip == nil {
		return false
	}
	for _, entry := range client.IPWhitelist {
		if _, cidr, err := net.ParseCIDR(entry); err == nil {
			if cidr.Contains(ip) {
				return true
			}
			continue
		}
		if allowed := net.ParseIP(entry); allowed != nil && allowed.Equal(ip) {
			return true
		}
	}
	return false
}
