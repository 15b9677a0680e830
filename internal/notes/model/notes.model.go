package model

const (
	StatusSuccess = "success"
	StatusDeleted = "deleted"
	StatusNoop    = "noop"
)

// NoteResponse is one entry of GET /api/notes. Position carries the note's
// order for older clients.
type NoteResponse struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	Position *int    `json:"position"`
	Context  string  `json:"context"`
	Kind     *string `json:"annotation_type,omitempty"`
	Image    *string `json:"image,omitempty"`
}

type NoteSummary struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Order   *int   `json:"order"`
}

type ContextNotesResponse struct {
	Context string        `json:"context"`
	Notes   []NoteSummary `json:"notes"`
}

// UpdateNotesRequest is shared by the replace and legacy save endpoints.
// Null entries are treated as empty notes.
type UpdateNotesRequest struct {
	Context string    `json:"context"`
	Notes   []*string `json:"notes"`
}

type DeleteNoteRequest struct {
	NoteID string `json:"noteId"`
}

type DeleteContextRequest struct {
	Context string `json:"context"`
}

// Result is the outcome of a write. Status is one of the Status constants.
type Result struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Context string `json:"-"`
}
