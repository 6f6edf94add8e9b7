package domain

import "time"

// DefaultNoteColor is applied when a note is created without a display color.
const DefaultNoteColor = "#00ff41"

// Length bounds applied after trimming.
const (
	TitleMaxLen   = 200
	ContentMaxLen = 10000
)

// SortField names accepted by note listing.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByTitle     SortField = "title"
)

// Note is the aggregate for user-owned notes. OwnerID is set at creation and
// never changes.
type Note struct {
	ID        string
	OwnerID   string
	Title     string
	Content   string
	Tags      []string
	Color     string
	IsPinned  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnerSummary is the slice of the owning identity record exposed on reads.
type OwnerSummary struct {
	ID          string
	DisplayName string
	Email       string
}

// NoteWithOwner is the composed view returned by owner-joined reads.
type NoteWithOwner struct {
	Note
	Owner OwnerSummary
}

// NoteStats aggregates counts over a single owner's notes. All three counts
// are computed against the same snapshot.
type NoteStats struct {
	Total  int `json:"total"`
	Pinned int `json:"pinned"`
	Recent int `json:"recent"`
}
