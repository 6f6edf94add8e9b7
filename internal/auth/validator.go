package auth

import (
	"context"
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	"github.com/greenmark/notes-service/internal/domain"
	"github.com/greenmark/notes-service/internal/repository"
	apperrors "github.com/greenmark/notes-service/pkg/util/errorutil"
)

// SessionValidator resolves a bearer session token to a request-scoped
// identity. It gates every note operation.
type SessionValidator struct {
	tokens *TokenManager
	users  repository.IdentityRepository
}

// NewSessionValidator constructs the validator.
func NewSessionValidator(tokens *TokenManager, users repository.IdentityRepository) *SessionValidator {
	return &SessionValidator{tokens: tokens, users: users}
}

// Validate checks the token's signature and expiry and loads the identity
// record behind it. The user may have been removed out of band, in which
// case the token no longer resolves.
func (v *SessionValidator) Validate(ctx context.Context, rawToken string) (*domain.IdentityContext, error) {
	if rawToken == "" {
		return nil, apperrors.NewAuthFailure(apperrors.CodeMissingToken, "no session token presented")
	}

	claims, err := v.tokens.Parse(rawToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewAuthFailure(apperrors.CodeExpiredToken, "session token expired")
		}
		return nil, apperrors.NewAuthFailure(apperrors.CodeInvalidToken, "session token invalid")
	}

	user, err := v.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewAuthFailure(apperrors.CodeUnknownUser, "token user no longer exists")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeout("identity lookup timed out", err)
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}

	return &domain.IdentityContext{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}, nil
}
