package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/greenmark/notes-service/internal/api/dto"
	"github.com/greenmark/notes-service/internal/auth"
	"github.com/greenmark/notes-service/internal/domain"
	"github.com/greenmark/notes-service/internal/service"
	apperrors "github.com/greenmark/notes-service/pkg/util/errorutil"
)

// NotesHandler manages note endpoints.
type NotesHandler struct {
	service *service.NoteService
}

// NewNotesHandler constructs handler.
func NewNotesHandler(noteService *service.NoteService) *NotesHandler {
	return &NotesHandler{service: noteService}
}

// Create POST /notes.
func (h *NotesHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	note, err := h.service.Create(c.UserContext(), identity.UserID, service.NoteCreateInput{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Color:    req.Color,
		IsPinned: req.IsPinned,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

// List GET /notes.
func (h *NotesHandler) List(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}

	page, err := parseIntQuery(c.Query("page"), 1)
	if err != nil {
		return apperrors.NewValidationError("page must be an integer", nil)
	}
	pageSize, err := parseIntQuery(c.Query("limit"), 20)
	if err != nil {
		return apperrors.NewValidationError("limit must be an integer", nil)
	}

	result, err := h.service.List(c.UserContext(), identity.UserID, service.NoteListQuery{
		Search:    c.Query("search"),
		Tag:       c.Query("tag"),
		SortField: c.Query("sort"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return err
	}

	notes := make([]dto.NoteResponse, 0, len(result.Notes))
	for i := range result.Notes {
		notes = append(notes, noteViewResponse(&result.Notes[i]))
	}
	return c.JSON(fiber.Map{"data": dto.NoteListResponse{
		Notes: notes,
		Pagination: dto.PaginationResponse{
			Page:  result.Page,
			Limit: result.PageSize,
			Total: result.Total,
			Pages: result.Pages,
		},
	}})
}

// Get GET /notes/:id.
func (h *NotesHandler) Get(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	view, err := h.service.Get(c.UserContext(), identity.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	resp := noteViewResponse(view)
	return c.JSON(fiber.Map{"data": resp})
}

// Update PUT /notes/:id.
func (h *NotesHandler) Update(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	var req dto.UpdateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	note, err := h.service.Update(c.UserContext(), identity.UserID, c.Params("id"), service.NoteUpdateInput{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Color:    req.Color,
		IsPinned: req.IsPinned,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": noteResponse(note)})
}

// Delete DELETE /notes/:id.
func (h *NotesHandler) Delete(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	if err := h.service.Delete(c.UserContext(), identity.UserID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "note deleted"})
}

// TogglePin PATCH /notes/:id/pin.
func (h *NotesHandler) TogglePin(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	note, err := h.service.TogglePin(c.UserContext(), identity.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": noteResponse(note)})
}

// Stats GET /notes/stats.
func (h *NotesHandler) Stats(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	stats, err := h.service.Stats(c.UserContext(), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NoteStatsResponse{
		Total:  stats.Total,
		Pinned: stats.Pinned,
		Recent: stats.Recent,
	}})
}

func parseIntQuery(val string, def int) (int, error) {
	if val == "" {
		return def, nil
	}
	return strconv.Atoi(val)
}

func noteResponse(note *domain.Note) dto.NoteResponse {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.NoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Tags:      tags,
		Color:     note.Color,
		IsPinned:  note.IsPinned,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

func noteViewResponse(view *domain.NoteWithOwner) dto.NoteResponse {
	resp := noteResponse(&view.Note)
	resp.Owner = &dto.OwnerResponse{
		ID:    view.Owner.ID,
		Name:  view.Owner.DisplayName,
		Email: view.Owner.Email,
	}
	return resp
}
