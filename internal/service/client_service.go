package service

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/repository"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// ClientService manages the sales reps allowed to use the quoting API.
type ClientService struct {
	clientRepo *repository.ClientRepository
}

// NewClientService constructs a ClientService.
func NewClientService(clientRepo *repository.ClientRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo}
}

// Create registers a new client and returns it with its freshly generated
// API key. This is the only time the key is returned in full.
func (s *ClientService) Create(name, email string, ipWhitelist []string) (*models.Client, error) {
	apiKey, err := utils.GenerateClientKey()
	if err != nil {
		return nil, err
	}
	if ipWhitelist == nil {
		ipWhitelist = []string{}
	}
	client := &models.Client{
		ClientID:    "rep_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12],
		Name:        name,
		Email:       email,
		APIKey:      apiKey,
		IPWhitelist: ipWhitelist,
		IsActive:    true,
	}
	if err := s.clientRepo.Create(client); err != nil {
		return nil, err
	}
	return client, nil
}

// Get returns a client by public client ID, with the API key blanked.
func (s *ClientService) Get(clientID string) (*models.Client, error) {
	client, err := s.clientRepo.GetByClientID(clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrInvalidClient
		}
		return nil, err
	}
	client.APIKey = ""
	return client, nil
}

// List returns all clients with their keys blanked.
func (s *ClientService) List() ([]models.Client, error) {
	return s.clientRepo.List()
}

// Update changes a client's name, email, whitelist, or active flag.
func (s *ClientService) Update(clientID, name, email string, ipWhitelist []string, isActive bool) (*models.Client, error) {
	client, err := s.clientRepo.GetByClientID(clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrInvalidClient
		}
		return nil, err
	}
	client.Name = name
	client.Email = email
	if ipWhitelist != nil {
		client.IPWhitelist = ipWhitelist
	}
	client.IsActive = isActive
	if err := s.clientRepo.Update(client); err != nil {
		return nil, err
	}
	client.APIKey = ""
	return client, nil
}

// RegenerateKey rotates a client's API key and returns the new key. The old
// key stops working immediately.
func (s *ClientService) RegenerateKey(clientID string) (string, error) {
	client, err := s.clientRepo.GetByClientID(clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", utils.ErrInvalidClient
		}
		return "", err
	}
	apiKey, err := utils.GenerateClientKey()
	if err != nil {
		return "", err
	}
	if err := s.clientRepo.UpdateAPIKey(client.ID, apiKey); err != nil {
		return "", err
	}
	return apiKey, nil
}
