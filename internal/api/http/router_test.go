package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenmark/notes-service/internal/api/http/handlers"
	"github.com/greenmark/notes-service/internal/auth"
	"github.com/greenmark/notes-service/internal/config"
	"github.com/greenmark/notes-service/internal/domain"
	"github.com/greenmark/notes-service/internal/observability"
	"github.com/greenmark/notes-service/internal/repository"
	"github.com/greenmark/notes-service/internal/service"
)

type stubVerifier struct {
	profile *auth.Profile
}

func (s *stubVerifier) Verify(ctx context.Context, assertion string) (*auth.Profile, error) {
	return s.profile, nil
}

type stubIdentityRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{users: make(map[string]*domain.User)}
}

func (r *stubIdentityRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%03d", r.seq)
	now := time.Now()
	user.LastLoginAt = now
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *stubIdentityRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *stubIdentityRepo) GetByProviderSubject(ctx context.Context, subjectID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ProviderSubjectID == subjectID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubIdentityRepo) RefreshLogin(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.users {
		if stored.ProviderSubjectID == user.ProviderSubjectID {
			stored.Email = user.Email
			stored.DisplayName = user.DisplayName
			stored.AvatarURL = user.AvatarURL
			stored.LastLoginAt = time.Now()
			*user = *stored
			return nil
		}
	}
	return pgx.ErrNoRows
}

type stubNoteRepo struct {
	mu    sync.Mutex
	seq   int
	notes map[string]*domain.Note
	owner func(id string) domain.OwnerSummary
}

func newStubNoteRepo(idents *stubIdentityRepo) *stubNoteRepo {
	return &stubNoteRepo{
		notes: make(map[string]*domain.Note),
		owner: func(id string) domain.OwnerSummary {
			user, err := idents.GetByID(context.Background(), id)
			if err != nil {
				return domain.OwnerSummary{ID: id}
			}
			return domain.OwnerSummary{ID: user.ID, DisplayName: user.DisplayName, Email: user.Email}
		},
	}
}

func (r *stubNoteRepo) Create(ctx context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	note.ID = fmt.Sprintf("note-%03d", r.seq)
	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now
	stored := *note
	r.notes[note.ID] = &stored
	return nil
}

func (r *stubNoteRepo) Get(ctx context.Context, ownerID, id string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.notes[id]
	if !ok || stored.OwnerID != ownerID {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *stubNoteRepo) GetWithOwner(ctx context.Context, ownerID, id string) (*domain.NoteWithOwner, error) {
	note, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return &domain.NoteWithOwner{Note: *note, Owner: r.owner(ownerID)}, nil
}

func (r *stubNoteRepo) Update(ctx context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.notes[note.ID]
	if !ok || stored.OwnerID != note.OwnerID {
		return pgx.ErrNoRows
	}
	note.UpdatedAt = time.Now()
	copied := *note
	r.notes[note.ID] = &copied
	return nil
}

func (r *stubNoteRepo) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.notes[id]
	if !ok || stored.OwnerID != ownerID {
		return pgx.ErrNoRows
	}
	delete(r.notes, id)
	return nil
}

func (r *stubNoteRepo) ListWithOwner(ctx context.Context, filter repository.NoteFilter) ([]domain.NoteWithOwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Note
	for _, note := range r.notes {
		if note.OwnerID == filter.OwnerID {
			matched = append(matched, note)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	result := make([]domain.NoteWithOwner, 0, end-start)
	for _, note := range matched[start:end] {
		result = append(result, domain.NoteWithOwner{Note: *note, Owner: r.owner(note.OwnerID)})
	}
	return result, nil
}

func (r *stubNoteRepo) Count(ctx context.Context, filter repository.NoteFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, note := range r.notes {
		if note.OwnerID == filter.OwnerID {
			total++
		}
	}
	return total, nil
}

func (r *stubNoteRepo) Stats(ctx context.Context, ownerID string, recentSince time.Time) (*domain.NoteStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats domain.NoteStats
	for _, note := range r.notes {
		if note.OwnerID != ownerID {
			continue
		}
		stats.Total++
		if note.IsPinned {
			stats.Pinned++
		}
		if !note.CreatedAt.Before(recentSince) {
			stats.Recent++
		}
	}
	return &stats, nil
}

type testEnv struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	identRepo := newStubIdentityRepo()
	noteRepo := newStubNoteRepo(identRepo)

	tokens := auth.NewTokenManager("router-test-secret", time.Hour)
	validator := auth.NewSessionValidator(tokens, identRepo)
	authMW := auth.NewAuthMiddleware(validator, logger)

	identitySvc := service.NewIdentityService(service.IdentityDependencies{
		UserRepo: identRepo,
		Verifier: &stubVerifier{profile: &auth.Profile{
			SubjectID: "google-sub-1",
			Email:     "eli@example.com",
			Name:      "Eli Vance",
		}},
		Tokens: tokens,
	})
	noteSvc := service.NewNoteService(service.NoteDependencies{NoteRepo: noteRepo})

	loginLimiter := NewLoginRateLimiter(config.RateLimitConfig{LoginPerMinute: 1000, LoginBurst: 1000})
	t.Cleanup(loginLimiter.Stop)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("notes-service", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(identitySvc, metrics),
		Notes:          handlers.NewNotesHandler(noteSvc),
		AuthMiddleware: authMW,
		LoginLimiter:   loginLimiter,
		Metrics:        metrics,
	})
	return &testEnv{app: app, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, target, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/auth/google", "", map[string]string{"credential": "assertion"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func errorEnvelope(t *testing.T, body map[string]any) (code, message string) {
	t.Helper()
	envelope, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error envelope: %v", body)
	code, _ = envelope["code"].(string)
	message, _ = envelope["message"].(string)
	return code, message
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/notes/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	code, message := errorEnvelope(t, body)
	assert.Equal(t, "UNAUTHORIZED", code)
	assert.Equal(t, "not authenticated", message)
}

func TestExpiredTokenNotDistinguishable(t *testing.T) {
	env := newTestEnv(t)

	issued := time.Now().Add(-2 * time.Hour)
	claims := jwt.MapClaims{
		"uid": "user-001",
		"sub": "user-001",
		"iat": issued.Unix(),
		"exp": issued.Add(time.Hour).Unix(),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("router-test-secret"))
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodGet, "/notes/", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	code, message := errorEnvelope(t, body)
	assert.Equal(t, "UNAUTHORIZED", code)
	assert.Equal(t, "not authenticated", message)
}

func TestLoginRequiresCredential(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/auth/google", "", map[string]string{"credential": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	code, _ := errorEnvelope(t, body)
	assert.Equal(t, "VALIDATION_FAILED", code)
}

func TestLoginAndNoteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp, body := env.do(t, http.MethodPost, "/notes/", token, map[string]any{
		"title":   "  Lambda core  ",
		"content": "seal the chamber",
		"tags":    []string{"facility"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := body["data"].(map[string]any)
	noteID := created["id"].(string)
	assert.Equal(t, "Lambda core", created["title"])
	assert.Equal(t, domain.DefaultNoteColor, created["color"])

	resp, body = env.do(t, http.MethodGet, "/notes/"+noteID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := body["data"].(map[string]any)
	assert.Equal(t, "Lambda core", fetched["title"])
	owner := fetched["owner"].(map[string]any)
	assert.Equal(t, "Eli Vance", owner["name"])

	resp, body = env.do(t, http.MethodGet, "/notes/?page=1&limit=10", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listing := body["data"].(map[string]any)
	pagination := listing["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["total"])

	resp, body = env.do(t, http.MethodGet, "/notes/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := body["data"].(map[string]any)
	assert.Equal(t, float64(1), stats["total"])

	resp, _ = env.do(t, http.MethodDelete, "/notes/"+noteID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/notes/"+noteID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	code, _ := errorEnvelope(t, body)
	assert.Equal(t, "NOT_FOUND", code)
}

func TestListRejectsNonIntegerPaging(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp, body := env.do(t, http.MethodGet, "/notes/?page=first", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	code, _ := errorEnvelope(t, body)
	assert.Equal(t, "VALIDATION_FAILED", code)
}

func TestTogglePinEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	_, body := env.do(t, http.MethodPost, "/notes/", token, map[string]any{
		"title":   "pin me",
		"content": "body",
	})
	noteID := body["data"].(map[string]any)["id"].(string)

	resp, body := env.do(t, http.MethodPatch, "/notes/"+noteID+"/pin", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["data"].(map[string]any)["is_pinned"])
}

func TestAuthMeReturnsProfile(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp, body := env.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "eli@example.com", user["email"])
}
