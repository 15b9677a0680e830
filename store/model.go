package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ContextWebpage     = "WEB"
	ContextApplication = "APP"
	ContextDocument    = "DOC"

	KindText    = "TEXT"
	KindDrawing = "DRAW"
	KindImage   = "IMG"
)

// Context is the scope (URL, app window, document) a set of notes belongs to.
type Context struct {
	ID         uuid.UUID `json:"id"`
	Identifier string    `json:"identifier"`
	Type       *string   `json:"type,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Note is a single annotation owned by a Context. Order is nil for notes
// written through the legacy save path. Image is the stored path of the
// attachment of an IMG note.
type Note struct {
	ID        uuid.UUID       `json:"id"`
	ContextID uuid.UUID       `json:"context_id"`
	Content   string          `json:"content"`
	Order     *int            `json:"order,omitempty"`
	Kind      *string         `json:"kind,omitempty"`
	Position  json.RawMessage `json:"position,omitempty"`
	Image     *string         `json:"image,omitempty"`
	UserID    *uuid.UUID      `json:"user_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ContextNotes pairs a context with its ordered notes.
type ContextNotes struct {
	Context Context
	Notes   []Note
}
