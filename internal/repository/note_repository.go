package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenmark/notes-service/internal/domain"
)

// SortColumns maps declared sortable fields to their storage columns. Only
// these columns ever reach the ORDER BY clause.
var SortColumns = map[domain.SortField]string{
	domain.SortByCreatedAt: "created_at",
	domain.SortByUpdatedAt: "updated_at",
	domain.SortByTitle:     "title",
}

// NoteFilter captures an owner-scoped listing query. OwnerID is mandatory;
// the remaining fields narrow the result.
type NoteFilter struct {
	OwnerID    string
	Search     string
	Tag        string
	SortColumn string
	Limit      int
	Offset     int
}

// NoteRepository encapsulates note persistence. Every operation is scoped to
// an owner; an id belonging to another owner behaves as absent.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	Get(ctx context.Context, ownerID, id string) (*domain.Note, error)
	GetWithOwner(ctx context.Context, ownerID, id string) (*domain.NoteWithOwner, error)
	Update(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, ownerID, id string) error
	ListWithOwner(ctx context.Context, filter NoteFilter) ([]domain.NoteWithOwner, error)
	Count(ctx context.Context, filter NoteFilter) (int, error)
	Stats(ctx context.Context, ownerID string, recentSince time.Time) (*domain.NoteStats, error)
}

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository instantiates the repository.
func NewNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	const query = `
        INSERT INTO notes (owner_id, title, content, tags, color, is_pinned)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		note.OwnerID,
		note.Title,
		note.Content,
		note.Tags,
		note.Color,
		note.IsPinned,
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)
}

func (r *noteRepository) Get(ctx context.Context, ownerID, id string) (*domain.Note, error) {
	const query = `
        SELECT id, owner_id, title, content, tags, color, is_pinned, created_at, updated_at
        FROM notes WHERE id=$1 AND owner_id=$2`

	var note domain.Note
	if err := r.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&note.ID,
		&note.OwnerID,
		&note.Title,
		&note.Content,
		&note.Tags,
		&note.Color,
		&note.IsPinned,
		&note.CreatedAt,
		&note.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) GetWithOwner(ctx context.Context, ownerID, id string) (*domain.NoteWithOwner, error) {
	const query = `
        SELECT n.id, n.owner_id, n.title, n.content, n.tags, n.color, n.is_pinned, n.created_at, n.updated_at,
               u.id, u.display_name, u.email
        FROM notes n
        JOIN users u ON u.id = n.owner_id
        WHERE n.id=$1 AND n.owner_id=$2`

	var view domain.NoteWithOwner
	if err := r.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&view.ID,
		&view.OwnerID,
		&view.Title,
		&view.Content,
		&view.Tags,
		&view.Color,
		&view.IsPinned,
		&view.CreatedAt,
		&view.UpdatedAt,
		&view.Owner.ID,
		&view.Owner.DisplayName,
		&view.Owner.Email,
	); err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	const query = `
        UPDATE notes SET title=$1, content=$2, tags=$3, color=$4, is_pinned=$5, updated_at=NOW()
        WHERE id=$6 AND owner_id=$7
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		note.Title,
		note.Content,
		note.Tags,
		note.Color,
		note.IsPinned,
		note.ID,
		note.OwnerID,
	).Scan(&note.UpdatedAt)
}

func (r *noteRepository) Delete(ctx context.Context, ownerID, id string) error {
	const query = `DELETE FROM notes WHERE id=$1 AND owner_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *noteRepository) ListWithOwner(ctx context.Context, filter NoteFilter) ([]domain.NoteWithOwner, error) {
	where, args := buildNoteWhere(filter)

	sortColumn := filter.SortColumn
	if !isSortColumn(sortColumn) {
		sortColumn = "created_at"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT n.id, n.owner_id, n.title, n.content, n.tags, n.color, n.is_pinned, n.created_at, n.updated_at,
               u.id, u.display_name, u.email
        FROM notes n
        JOIN users u ON u.id = n.owner_id
        WHERE %s
        ORDER BY n.%s DESC, n.id ASC
        LIMIT %d OFFSET %d`, where, sortColumn, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNoteViews(rows)
}

func (r *noteRepository) Count(ctx context.Context, filter NoteFilter) (int, error) {
	where, args := buildNoteWhere(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM notes n WHERE %s`, where)

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Stats computes all three aggregates in one statement so the counts share a
// single snapshot.
func (r *noteRepository) Stats(ctx context.Context, ownerID string, recentSince time.Time) (*domain.NoteStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE is_pinned),
               COUNT(*) FILTER (WHERE created_at >= $2)
        FROM notes WHERE owner_id=$1`

	var stats domain.NoteStats
	if err := r.pool.QueryRow(ctx, query, ownerID, recentSince).Scan(
		&stats.Total,
		&stats.Pinned,
		&stats.Recent,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

func buildNoteWhere(filter NoteFilter) (string, []any) {
	args := []any{filter.OwnerID}
	clauses := []string{"n.owner_id=$1"}

	// the trimmed value only decides whether to filter; the raw term is what
	// gets matched, metacharacters escaped so LIKE stays a literal substring
	if strings.TrimSpace(filter.Search) != "" {
		args = append(args, "%"+escapeLikePattern(strings.ToLower(filter.Search))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			`(LOWER(n.title) LIKE %s ESCAPE '\' OR LOWER(n.content) LIKE %s ESCAPE '\' OR EXISTS (SELECT 1 FROM unnest(n.tags) AS tag WHERE LOWER(tag) LIKE %s ESCAPE '\'))`,
			placeholder, placeholder, placeholder))
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		args = append(args, tag)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM unnest(n.tags) AS tag WHERE LOWER(tag) = LOWER(%s))", placeholder))
	}

	return strings.Join(clauses, " AND "), args
}

// escapeLikePattern neutralizes LIKE metacharacters in a search term so the
// pattern matches them literally.
func escapeLikePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

func isSortColumn(column string) bool {
	for _, candidate := range SortColumns {
		if candidate == column {
			return true
		}
	}
	return false
}

func scanNoteViews(rows pgx.Rows) ([]domain.NoteWithOwner, error) {
	var result []domain.NoteWithOwner
	for rows.Next() {
		var view domain.NoteWithOwner
		if err := rows.Scan(
			&view.ID,
			&view.OwnerID,
			&view.Title,
			&view.Content,
			&view.Tags,
			&view.Color,
			&view.IsPinned,
			&view.CreatedAt,
			&view.UpdatedAt,
			&view.Owner.ID,
			&view.Owner.DisplayName,
			&view.Owner.Email,
		); err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, rows.Err()
}
