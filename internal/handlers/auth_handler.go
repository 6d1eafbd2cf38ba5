package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gblms/roadmap-service/internal/models"
	"github.com/gblms/roadmap-service/internal/repositories"
	"github.com/gblms/roadmap-service/internal/services"
	"github.com/gblms/roadmap-service/internal/utils"
	"github.com/gblms/roadmap-service/internal/validator"
)

type AuthHandler struct {
	BaseHandler
	service   services.AuthService
	validator *validator.Validator
}

func NewAuthHandler(service services.AuthService, validator *validator.Validator, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// Login authenticates a user and returns an access token. The account is
// created on first login, so login never fails with "user not found".
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err)
		return
	}

	h.LogRequest(c, "Login attempt", "username", req.Username)

	token, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.Header("WWW-Authenticate", "Bearer")
			h.RespondWithError(c, http.StatusUnauthorized, "Incorrect username or password", nil)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Login failed", err)
		return
	}

	c.JSON(http.StatusOK, token)
}

// Me returns the authenticated user's record.
func (h *AuthHandler) Me(c *gin.Context) {
	username := UsernameFromContext(c)

	h.LogRequest(c, "Getting current user", "username", username)

	user, err := h.service.GetCurrentUser(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.RespondWithError(c, http.StatusNotFound, "User not found", nil)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to get user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}
