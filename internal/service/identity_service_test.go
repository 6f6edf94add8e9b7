package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenmark/notes-service/internal/auth"
	"github.com/greenmark/notes-service/internal/domain"
	apperrors "github.com/greenmark/notes-service/pkg/util/errorutil"
)

type fakeVerifier struct {
	profile *auth.Profile
	err     error
}

func (f *fakeVerifier) Verify(ctx context.Context, assertion string) (*auth.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

// memoryIdentityRepo keys users by provider subject id. missOnce makes the
// next subject lookup miss even when the row exists, simulating a concurrent
// login that inserts between our lookup and our create.
type memoryIdentityRepo struct {
	seq          int
	bySubject    map[string]*domain.User
	missOnce     bool
	refreshCalls int
}

func newMemoryIdentityRepo() *memoryIdentityRepo {
	return &memoryIdentityRepo{bySubject: make(map[string]*domain.User)}
}

func (r *memoryIdentityRepo) Create(ctx context.Context, user *domain.User) error {
	if _, exists := r.bySubject[user.ProviderSubjectID]; exists {
		return &pgconn.PgError{Code: "23505"}
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%03d", r.seq)
	now := time.Now()
	user.LastLoginAt = now
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.bySubject[user.ProviderSubjectID] = &stored
	return nil
}

func (r *memoryIdentityRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, user := range r.bySubject {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryIdentityRepo) GetByProviderSubject(ctx context.Context, subjectID string) (*domain.User, error) {
	if r.missOnce {
		r.missOnce = false
		return nil, pgx.ErrNoRows
	}
	user, ok := r.bySubject[subjectID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memoryIdentityRepo) RefreshLogin(ctx context.Context, user *domain.User) error {
	r.refreshCalls++
	stored, ok := r.bySubject[user.ProviderSubjectID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Email = user.Email
	stored.DisplayName = user.DisplayName
	stored.AvatarURL = user.AvatarURL
	stored.LastLoginAt = time.Now()
	stored.UpdatedAt = stored.LastLoginAt
	*user = *stored
	return nil
}

func newTestIdentityService(repo *memoryIdentityRepo, verifier auth.AssertionVerifier) *IdentityService {
	return NewIdentityService(IdentityDependencies{
		UserRepo: repo,
		Verifier: verifier,
		Tokens:   auth.NewTokenManager("test-secret", time.Hour),
	})
}

func testProfile() *auth.Profile {
	return &auth.Profile{
		SubjectID: "google-sub-1",
		Email:     "eli@example.com",
		Name:      "Eli Vance",
		AvatarURL: "https://example.com/eli.png",
	}
}

func TestResolveLoginCreatesUser(t *testing.T) {
	repo := newMemoryIdentityRepo()
	svc := newTestIdentityService(repo, &fakeVerifier{profile: testProfile()})

	user, token, expiresAt, err := svc.ResolveLogin(context.Background(), "credential")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "google-sub-1", user.ProviderSubjectID)
	assert.Equal(t, "eli@example.com", user.Email)
	assert.Equal(t, "Eli Vance", user.DisplayName)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestResolveLoginReusesExistingUser(t *testing.T) {
	repo := newMemoryIdentityRepo()
	svc := newTestIdentityService(repo, &fakeVerifier{profile: testProfile()})

	first, _, _, err := svc.ResolveLogin(context.Background(), "credential")
	require.NoError(t, err)

	// provider profile changed between logins
	updated := testProfile()
	updated.Name = "Dr. Eli Vance"
	svc = newTestIdentityService(repo, &fakeVerifier{profile: updated})

	second, _, _, err := svc.ResolveLogin(context.Background(), "credential")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Dr. Eli Vance", second.DisplayName)
	assert.False(t, second.LastLoginAt.Before(first.LastLoginAt))
}

func TestResolveLoginRetriesOnInsertRace(t *testing.T) {
	repo := newMemoryIdentityRepo()
	repo.bySubject["google-sub-1"] = &domain.User{
		ID:                "user-001",
		ProviderSubjectID: "google-sub-1",
		Email:             "stale@example.com",
	}
	repo.missOnce = true

	svc := newTestIdentityService(repo, &fakeVerifier{profile: testProfile()})
	user, _, _, err := svc.ResolveLogin(context.Background(), "credential")
	require.NoError(t, err)

	assert.Equal(t, "user-001", user.ID)
	assert.Equal(t, "eli@example.com", user.Email)
	assert.Equal(t, 1, repo.refreshCalls)
	assert.Len(t, repo.bySubject, 1)
}

func TestResolveLoginVerifierFailure(t *testing.T) {
	repo := newMemoryIdentityRepo()
	verifierErr := apperrors.NewAuthFailure(apperrors.CodeInvalidAssertion, "assertion audience mismatch")
	svc := newTestIdentityService(repo, &fakeVerifier{err: verifierErr})

	_, _, _, err := svc.ResolveLogin(context.Background(), "credential")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidAssertion))
	assert.Empty(t, repo.bySubject)
}

func TestGetUserNotFound(t *testing.T) {
	svc := newTestIdentityService(newMemoryIdentityRepo(), &fakeVerifier{profile: testProfile()})

	_, err := svc.GetUser(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
