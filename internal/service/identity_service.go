package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/greenmark/notes-service/internal/auth"
	"github.com/greenmark/notes-service/internal/domain"
	"github.com/greenmark/notes-service/internal/repository"
)

// IdentityService exchanges provider assertions for identity records and
// session tokens.
type IdentityService struct {
	users    repository.IdentityRepository
	verifier auth.AssertionVerifier
	tokens   *auth.TokenManager
}

// IdentityDependencies encapsulates requirements for the identity service.
type IdentityDependencies struct {
	UserRepo repository.IdentityRepository
	Verifier auth.AssertionVerifier
	Tokens   *auth.TokenManager
}

// NewIdentityService builds the service.
func NewIdentityService(deps IdentityDependencies) *IdentityService {
	return &IdentityService{
		users:    deps.UserRepo,
		verifier: deps.Verifier,
		tokens:   deps.Tokens,
	}
}

// ResolveLogin verifies the assertion, upserts the identity record keyed by
// provider subject id, and issues a session token. Provider-sourced profile
// fields are overwritten on every login.
func (s *IdentityService) ResolveLogin(ctx context.Context, assertion string) (*domain.User, string, time.Time, error) {
	profile, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user, err := s.upsertIdentity(ctx, profile)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

func (s *IdentityService) upsertIdentity(ctx context.Context, profile *auth.Profile) (*domain.User, error) {
	user, err := s.users.GetByProviderSubject(ctx, profile.SubjectID)
	switch {
	case err == nil:
		applyProfile(user, profile)
		if err := s.users.RefreshLogin(ctx, user); err != nil {
			return nil, mapStoreError(err, "user")
		}
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		user = &domain.User{ProviderSubjectID: profile.SubjectID}
		applyProfile(user, profile)
		if createErr := s.users.Create(ctx, user); createErr != nil {
			if !repository.IsUniqueViolation(createErr) {
				return nil, mapStoreError(createErr, "user")
			}
			// a concurrent login with the same subject id won the insert;
			// retry the refresh path once against the surviving row
			if refreshErr := s.users.RefreshLogin(ctx, user); refreshErr != nil {
				return nil, mapStoreError(refreshErr, "user")
			}
		}
		return user, nil
	default:
		return nil, mapStoreError(err, "user")
	}
}

// GetUser loads an identity record by id.
func (s *IdentityService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "user")
	}
	return user, nil
}

func applyProfile(user *domain.User, profile *auth.Profile) {
	user.Email = profile.Email
	user.DisplayName = profile.Name
	user.AvatarURL = profile.AvatarURL
}
