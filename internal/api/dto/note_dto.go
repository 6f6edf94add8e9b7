package dto

import "time"

// CreateNoteRequest payload for new notes.
type CreateNoteRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Color    string   `json:"color"`
	IsPinned bool     `json:"is_pinned"`
}

// UpdateNoteRequest payload for partial updates; absent fields stay as-is.
type UpdateNoteRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Tags     *[]string `json:"tags"`
	Color    *string   `json:"color"`
	IsPinned *bool     `json:"is_pinned"`
}

// OwnerResponse is the owner block attached to note reads.
type OwnerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NoteResponse is the caller-visible note record.
type NoteResponse struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Tags      []string       `json:"tags"`
	Color     string         `json:"color"`
	IsPinned  bool           `json:"is_pinned"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Owner     *OwnerResponse `json:"owner,omitempty"`
}

// PaginationResponse mirrors the listing metadata block.
type PaginationResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NoteListResponse is a single page of notes.
type NoteListResponse struct {
	Notes      []NoteResponse     `json:"notes"`
	Pagination PaginationResponse `json:"pagination"`
}

// NoteStatsResponse carries per-owner aggregates.
type NoteStatsResponse struct {
	Total  int `json:"total"`
	Pinned int `json:"pinned"`
	Recent int `json:"recent"`
}
