package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/greenmark/notes-service/internal/api/dto"
	"github.com/greenmark/notes-service/internal/auth"
	"github.com/greenmark/notes-service/internal/domain"
	"github.com/greenmark/notes-service/internal/observability"
	"github.com/greenmark/notes-service/internal/service"
	apperrors "github.com/greenmark/notes-service/pkg/util/errorutil"
)

// AuthHandler exposes login and session endpoints.
type AuthHandler struct {
	identity *service.IdentityService
	metrics  *observability.Metrics
}

// NewAuthHandler constructs handler.
func NewAuthHandler(identityService *service.IdentityService, metrics *observability.Metrics) *AuthHandler {
	return &AuthHandler{identity: identityService, metrics: metrics}
}

// Login handles POST /auth/google.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Credential) == "" {
		return apperrors.NewValidationError("credential required", nil)
	}

	user, token, expiresAt, err := h.identity.ResolveLogin(c.UserContext(), req.Credential)
	if err != nil {
		h.metrics.RecordLogin("failure")
		return err
	}
	h.metrics.RecordLogin("success")

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
		},
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	user, err := h.identity.GetUser(c.UserContext(), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": userResponse(user)}})
}

// Logout handles POST /auth/logout. Session tokens are stateless, so logout
// is a client-side discard; the server just confirms it.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "logged out successfully",
	})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Name:      user.DisplayName,
		Email:     user.Email,
		Avatar:    user.AvatarURL,
		LastLogin: user.LastLoginAt,
	}
}
