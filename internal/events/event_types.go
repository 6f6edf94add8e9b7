package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventNoteCreated    EventType = "note_created"
	EventNoteUpdated    EventType = "note_updated"
	EventNoteDeleted    EventType = "note_deleted"
	EventNotePinToggled EventType = "note_pin_toggled"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	NoteID    string      `json:"note_id"`
	OwnerID   string      `json:"owner_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NoteCreatedPayload payload.
type NoteCreatedPayload struct {
	Title    string   `json:"title"`
	Tags     []string `json:"tags,omitempty"`
	IsPinned bool     `json:"is_pinned"`
}

// NoteUpdatedPayload payload.
type NoteUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// NotePinToggledPayload payload.
type NotePinToggledPayload struct {
	IsPinned bool `json:"is_pinned"`
}
