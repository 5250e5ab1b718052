package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/verdantleaf/quote_api/internal/service"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// ClientHandler handles admin management of sales rep API clients.
type ClientHandler struct {
	clientService *service.ClientService
}

// NewClientHandler constructs a ClientHandler.
func NewClientHandler(clientService *service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// CreateClientRequest is the body of POST /v1/admin/clients.
type CreateClientRequest struct {
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email" binding:"required,email"`
	IPWhitelist []string `json:"ipWhitelist"`
}

// CreateClient registers a new rep. The API key is only returned here.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Name and a valid email are required")
		return
	}

	client, err := h.clientService.Create(req.Name, req.Email, req.IPWhitelist)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create client")
		return
	}
	utils.Success(c, 201, "Client created successfully", gin.H{"client": client})
}

// ListClients returns all clients (keys blanked).
func (h *ClientHandler) ListClients(c *gin.Context) {
	clients, err := h.clientService.List()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list clients")
		return
	}
	utils.Success(c, 200, "Clients retrieved successfully", gin.H{"clients": clients})
}

// GetClient returns a single client by public ID.
func (h *ClientHandler) GetClient(c *gin.Context) {
	client, err := h.clientService.Get(c.Param("clientId"))
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "Client retrieved successfully", gin.H{"client": client})
}

// UpdateClientRequest is the body of PUT /v1/admin/clients/:clientId.
type UpdateClientRequest struct {
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email" binding:"required,email"`
	IPWhitelist []string `json:"ipWhitelist"`
	IsActive    bool     `json:"isActive"`
}

// UpdateClient changes a client's profile, whitelist, or active flag.
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Name and a valid email are required")
		return
	}

	client, err := h.clientService.Update(c.Param("clientId"), req.Name, req.Email, req.IPWhitelist, req.IsActive)
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "Client updated successfully", gin.H{"client": client})
}

// RegenerateKey rotates a client's API key.
func (h *ClientHandler) RegenerateKey(c *gin.Context) {
	apiKey, err := h.clientService.RegenerateKey(c.Param("clientId"))
	if err != nil {
		respondClientError(c, err)
		return
	}
	utils.Success(c, 200, "API key regenerated successfully", gin.H{"apiKey": apiKey})
}

func respondClientError(c *gin.Context, err error) {
	if errors.Is(err, utils.ErrInvalidClient) {
		utils.Error(c, 404, "CLIENT_NOT_FOUND", "Client not found")
		return
	}
	utils.Error(c, 500, "INTERNAL_ERROR", "Failed to process client")
}
