package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/greenmark/notes-service/internal/domain"
	apperrors "github.com/greenmark/notes-service/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// AuthMiddleware validates bearer tokens and binds the resolved identity to
// the request.
type AuthMiddleware struct {
	validator *SessionValidator
	logger    *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(validator *SessionValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, logger: logger}
}

// Handle enforces authentication for protected routes. Failure sub-reasons
// are logged, never returned to the caller.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	rawToken := ""
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Debug("malformed authorization header", zap.String("path", c.Path()))
			return apperrors.NewUnauthorized("not authenticated")
		}
		rawToken = parts[1]
	}

	identity, err := m.validator.Validate(c.UserContext(), rawToken)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		m.logger.Debug("session validation failed",
			zap.String("path", c.Path()),
			zap.String("reason", domainErr.Code))
		return err
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (*domain.IdentityContext, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.IdentityContext)
	return identity, ok
}
