package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmark/notes-service/internal/domain"
	"github.com/greenmark/notes-service/internal/events"
	"github.com/greenmark/notes-service/internal/repository"
	apperrors "github.com/greenmark/notes-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NoteService owns ownership-scoped note CRUD, the listing query engine and
// the statistics aggregator.
type NoteService struct {
	notes      repository.NoteRepository
	stats      repository.StatsCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NoteDependencies bundles requirements for the note service. StatsCache and
// Dispatcher may be nil.
type NoteDependencies struct {
	NoteRepo   repository.NoteRepository
	StatsCache repository.StatsCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NoteCreateInput describes the note creation payload. Omitted optional
// fields take defaults.
type NoteCreateInput struct {
	Title    string
	Content  string
	Tags     []string
	Color    string
	IsPinned bool
}

// NoteUpdateInput carries a partial update; only non-nil fields are applied.
type NoteUpdateInput struct {
	Title    *string
	Content  *string
	Tags     *[]string
	Color    *string
	IsPinned *bool
}

// NoteListQuery describes a filtered, sorted, paginated listing request.
type NoteListQuery struct {
	Search    string
	Tag       string
	SortField string
	Page      int
	PageSize  int
}

// NoteListResult is a single page plus pagination metadata. Total counts all
// matches before pagination.
type NoteListResult struct {
	Notes    []domain.NoteWithOwner
	Total    int
	Page     int
	PageSize int
	Pages    int
}

// NewNoteService constructs the service.
func NewNoteService(deps NoteDependencies) *NoteService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{
		notes:      deps.NoteRepo,
		stats:      deps.StatsCache,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create validates and persists a new note for the owner.
func (s *NoteService) Create(ctx context.Context, ownerID string, input NoteCreateInput) (*domain.Note, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	content, err := validateContent(input.Content)
	if err != nil {
		return nil, err
	}

	note := &domain.Note{
		OwnerID:  ownerID,
		Title:    title,
		Content:  content,
		Tags:     normalizeTags(input.Tags),
		Color:    input.Color,
		IsPinned: input.IsPinned,
	}
	if note.Color == "" {
		note.Color = domain.DefaultNoteColor
	}

	if err := s.notes.Create(ctx, note); err != nil {
		return nil, mapStoreError(err, "note")
	}

	s.invalidateStats(ctx, ownerID)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventNoteCreated,
		NoteID:  note.ID,
		OwnerID: ownerID,
		Payload: events.NoteCreatedPayload{
			Title:    note.Title,
			Tags:     note.Tags,
			IsPinned: note.IsPinned,
		},
	})
	return note, nil
}

// Get returns an owned note with its owner summary. An id owned by someone
// else is indistinguishable from a missing one.
func (s *NoteService) Get(ctx context.Context, ownerID, noteID string) (*domain.NoteWithOwner, error) {
	view, err := s.notes.GetWithOwner(ctx, ownerID, noteID)
	if err != nil {
		return nil, mapStoreError(err, "note")
	}
	return view, nil
}

// Update applies the fields present in the input, leaving the rest intact.
func (s *NoteService) Update(ctx context.Context, ownerID, noteID string, input NoteUpdateInput) (*domain.Note, error) {
	note, err := s.notes.Get(ctx, ownerID, noteID)
	if err != nil {
		return nil, mapStoreError(err, "note")
	}

	var changed []string
	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		note.Title = title
		changed = append(changed, "title")
	}
	if input.Content != nil {
		content, err := validateContent(*input.Content)
		if err != nil {
			return nil, err
		}
		note.Content = content
		changed = append(changed, "content")
	}
	if input.Tags != nil {
		note.Tags = normalizeTags(*input.Tags)
		changed = append(changed, "tags")
	}
	if input.Color != nil {
		note.Color = *input.Color
		if note.Color == "" {
			note.Color = domain.DefaultNoteColor
		}
		changed = append(changed, "color")
	}
	if input.IsPinned != nil {
		note.IsPinned = *input.IsPinned
		changed = append(changed, "is_pinned")
	}

	if err := s.notes.Update(ctx, note); err != nil {
		return nil, mapStoreError(err, "note")
	}

	s.invalidateStats(ctx, ownerID)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventNoteUpdated,
		NoteID:  note.ID,
		OwnerID: ownerID,
		Payload: events.NoteUpdatedPayload{Fields: changed},
	})
	return note, nil
}

// Delete removes the note permanently.
func (s *NoteService) Delete(ctx context.Context, ownerID, noteID string) error {
	if err := s.notes.Delete(ctx, ownerID, noteID); err != nil {
		return mapStoreError(err, "note")
	}

	s.invalidateStats(ctx, ownerID)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventNoteDeleted,
		NoteID:  noteID,
		OwnerID: ownerID,
	})
	return nil
}

// TogglePin flips the pinned state.
func (s *NoteService) TogglePin(ctx context.Context, ownerID, noteID string) (*domain.Note, error) {
	note, err := s.notes.Get(ctx, ownerID, noteID)
	if err != nil {
		return nil, mapStoreError(err, "note")
	}

	note.IsPinned = !note.IsPinned
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, mapStoreError(err, "note")
	}

	s.invalidateStats(ctx, ownerID)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventNotePinToggled,
		NoteID:  note.ID,
		OwnerID: ownerID,
		Payload: events.NotePinToggledPayload{IsPinned: note.IsPinned},
	})
	return note, nil
}

// List executes a filtered, sorted, paginated view over the owner's notes.
// A page past the end yields an empty result, not an error.
func (s *NoteService) List(ctx context.Context, ownerID string, query NoteListQuery) (*NoteListResult, error) {
	if query.Page <= 0 {
		return nil, apperrors.NewValidationError("page must be a positive integer", nil)
	}
	if query.PageSize <= 0 {
		return nil, apperrors.NewValidationError("page size must be a positive integer", nil)
	}
	pageSize := query.PageSize
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	sortColumn, err := resolveSortColumn(query.SortField)
	if err != nil {
		return nil, err
	}

	filter := repository.NoteFilter{
		OwnerID:    ownerID,
		Search:     query.Search,
		Tag:        query.Tag,
		SortColumn: sortColumn,
		Limit:      pageSize,
		Offset:     (query.Page - 1) * pageSize,
	}

	total, err := s.notes.Count(ctx, filter)
	if err != nil {
		return nil, mapStoreError(err, "note")
	}

	notes, err := s.notes.ListWithOwner(ctx, filter)
	if err != nil {
		return nil, mapStoreError(err, "note")
	}
	if notes == nil {
		notes = []domain.NoteWithOwner{}
	}

	return &NoteListResult{
		Notes:    notes,
		Total:    total,
		Page:     query.Page,
		PageSize: pageSize,
		Pages:    (total + pageSize - 1) / pageSize,
	}, nil
}

// Stats returns per-owner aggregates, served from the cache when fresh. The
// recent window trails 7 days from now, lower bound inclusive.
func (s *NoteService) Stats(ctx context.Context, ownerID string) (*domain.NoteStats, error) {
	if s.stats != nil {
		cached, err := s.stats.Get(ctx, ownerID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Debug("stats cache read failed", zap.Error(err))
		}
	}

	since := time.Now().Add(-7 * 24 * time.Hour)
	stats, err := s.notes.Stats(ctx, ownerID, since)
	if err != nil {
		return nil, mapStoreError(err, "note")
	}

	if s.stats != nil {
		if err := s.stats.Set(ctx, ownerID, stats); err != nil {
			s.logger.Debug("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *NoteService) invalidateStats(ctx context.Context, ownerID string) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Invalidate(ctx, ownerID); err != nil {
		s.logger.Debug("stats cache invalidation failed", zap.Error(err))
	}
}

func (s *NoteService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperrors.NewValidationError("title must not be empty", nil)
	}
	if utf8.RuneCountInString(title) > domain.TitleMaxLen {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("title exceeds %d characters", domain.TitleMaxLen), nil)
	}
	return title, nil
}

func validateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", apperrors.NewValidationError("content must not be empty", nil)
	}
	if utf8.RuneCountInString(content) > domain.ContentMaxLen {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("content exceeds %d characters", domain.ContentMaxLen), nil)
	}
	return content, nil
}

func resolveSortColumn(field string) (string, error) {
	if field == "" {
		return repository.SortColumns[domain.SortByCreatedAt], nil
	}
	column, ok := repository.SortColumns[domain.SortField(field)]
	if !ok {
		return "", apperrors.NewValidationError("unknown sort field", map[string]any{"sort": field})
	}
	return column, nil
}

func normalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}
