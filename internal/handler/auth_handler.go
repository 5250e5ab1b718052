package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/verdantleaf/quote_api/internal/service"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// AuthHandler handles admin authentication endpoints.
type AuthHandler struct {
	adminAuthService *service.AdminAuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(adminAuthService *service.AdminAuthService) *AuthHandler {
	return &AuthHandler{adminAuthService: adminAuthService}
}

// LoginRequest is the body of POST /v1/admin/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates an admin and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Email and password are required")
		return
	}

	token, user, err := h.adminAuthService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidToken) {
			utils.Error(c, 401, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Login failed")
		return
	}

	utils.Success(c, 200, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}
