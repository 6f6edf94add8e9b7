package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenmark/notes-service/internal/domain"
)

// IdentityRepository defines persistence access for identity records.
type IdentityRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByProviderSubject(ctx context.Context, subjectID string) (*domain.User, error)
	RefreshLogin(ctx context.Context, user *domain.User) error
}

type identityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository returns a Postgres-backed implementation.
func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepository{pool: pool}
}

func (r *identityRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (provider_subject_id, email, display_name, avatar_url)
        VALUES ($1, $2, $3, $4)
        RETURNING id, last_login_at, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.ProviderSubjectID,
		user.Email,
		user.DisplayName,
		user.AvatarURL,
	).Scan(&user.ID, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt)
}

// RefreshLogin overwrites provider-sourced profile fields and bumps
// last_login_at. Keyed by provider subject id so a racing create and refresh
// land on the same surviving row.
func (r *identityRepository) RefreshLogin(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET email=$1, display_name=$2, avatar_url=$3, last_login_at=NOW(), updated_at=NOW()
        WHERE provider_subject_id=$4
        RETURNING id, last_login_at, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Email,
		user.DisplayName,
		user.AvatarURL,
		user.ProviderSubjectID,
	).Scan(&user.ID, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt)
}

func (r *identityRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, provider_subject_id, email, display_name, avatar_url, last_login_at, created_at, updated_at
        FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *identityRepository) GetByProviderSubject(ctx context.Context, subjectID string) (*domain.User, error) {
	const query = `
        SELECT id, provider_subject_id, email, display_name, avatar_url, last_login_at, created_at, updated_at
        FROM users WHERE provider_subject_id=$1`
	return r.fetchSingle(ctx, query, subjectID)
}

func (r *identityRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.ProviderSubjectID,
		&user.Email,
		&user.DisplayName,
		&user.AvatarURL,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// IsUniqueViolation reports whether err is a unique-key conflict, as raised
// when two logins race on the same provider subject id.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
