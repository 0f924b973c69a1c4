package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rostering_backend/internal/models"
	"rostering_backend/internal/services"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var creds models.Credentials
	if !bindJSON(c, &creds, "Login") {
		return
	}

	authResp, err := h.authService.Login(c.Request.Context(), creds)
	if err != nil {
		respondServiceError(c, err, "Login", "Failed to login.")
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "GetCurrentUser", "Failed to retrieve user profile.")
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser creates an account of either role.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if !bindJSON(c, &req, "CreateUser") {
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateUser", "Failed to create user.")
		return
	}
	c.JSON(http.StatusCreated, user)
}
