package service

import (
	"context"
	"fmt"
	"strings"

	"annotations/internal/notes/model"
	"annotations/pkg/apperror"
	"annotations/pkg/logger"
	"annotations/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// emptyForms are the editor outputs that carry no content once whitespace
// and spaces are stripped.
var emptyForms = map[string]struct{}{
	"":             {},
	"<p><br></p>":  {},
	"<p><br/></p>": {},
	"<p></p>":      {},
}

type NotesService struct {
	Store store.Store
}

func NewNotesService(s store.Store) *NotesService {
	return &NotesService{Store: s}
}

// ListNotes returns the notes for identifier in display order. Unknown
// identifiers yield an empty list.
func (s *NotesService) ListNotes(ctx context.Context, identifier string) ([]model.NoteResponse, error) {
	if identifier == "" {
		return nil, apperror.Validation("Context is required")
	}
	notes, err := s.Store.ListNotes(ctx, identifier)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	resp := make([]model.NoteResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, model.NoteResponse{
			ID:       n.ID.String(),
			Content:  DecodeContent(n.Content),
			Position: n.Order,
			Context:  identifier,
			Kind:     n.Kind,
			Image:    n.Image,
		})
	}
	return resp, nil
}

// ReplaceNotes swaps the whole note set of identifier for notes, creating the
// context on demand. When every submitted note is empty the context itself
// is removed and the result status is StatusDeleted.
func (s *NotesService) ReplaceNotes(ctx context.Context, identifier string, notes []*string) (model.Result, error) {
	if identifier == "" {
		return model.Result{}, apperror.Validation("Context is required.")
	}

	deleted := allEmpty(notes)
	err := s.Store.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.ResolveContext(ctx, identifier)
		if err != nil {
			return err
		}
		if err := tx.DeleteNotes(ctx, c.ID); err != nil {
			return err
		}
		if deleted {
			return tx.DeleteContextByID(ctx, c.ID)
		}

		for idx, raw := range notes {
			if raw == nil {
				continue
			}
			content := strings.TrimSpace(*raw)
			if content == "" {
				continue
			}
			// idx is the position in the submitted list, so dropped
			// entries leave a gap.
			order := idx
			note := store.Note{
				ContextID: c.ID,
				Content:   DecodeContent(content),
				Order:     &order,
			}
			if err := tx.InsertNote(ctx, &note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error("Failed to replace notes", zap.String("context", identifier), zap.Error(err))
		return model.Result{}, apperror.Internal(err)
	}

	if deleted {
		logger.Log.Info("Context removed after empty update", zap.String("context", identifier))
		return model.Result{
			Status:  model.StatusDeleted,
			Message: fmt.Sprintf("Context '%s' deleted due to empty notes.", identifier),
			Context: identifier,
		}, nil
	}
	return model.Result{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("Notes updated for context '%s'.", identifier),
		Context: identifier,
	}, nil
}

// AppendNotes is the legacy save: the context must already exist, notes are
// stored verbatim and without an explicit order.
func (s *NotesService) AppendNotes(ctx context.Context, identifier string, notes []*string) (model.Result, error) {
	if identifier == "" {
		return model.Result{}, apperror.Validation("Context is required")
	}

	err := s.Store.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.FindContext(ctx, identifier)
		if err != nil {
			return err
		}
		if c == nil {
			return apperror.NotFound("Context '%s' not found", identifier)
		}
		if err := tx.DeleteNotes(ctx, c.ID); err != nil {
			return err
		}
		for _, raw := range notes {
			if raw == nil || strings.TrimSpace(*raw) == "" {
				continue
			}
			note := store.Note{ContextID: c.ID, Content: *raw}
			if err := tx.InsertNote(ctx, &note); err != nil {
				return err
			}
		}
		return nil
	})
	if apperror.Is(err, apperror.KindNotFound) {
		return model.Result{}, err
	}
	if err != nil {
		logger.Log.Error("Failed to save notes", zap.String("context", identifier), zap.Error(err))
		return model.Result{}, apperror.Internal(err)
	}
	return model.Result{Status: model.StatusSuccess, Context: identifier}, nil
}

func (s *NotesService) ListAllContexts(ctx context.Context) ([]model.ContextNotesResponse, error) {
	all, err := s.Store.ListAllContexts(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	resp := make([]model.ContextNotesResponse, 0, len(all))
	for _, cn := range all {
		notes := make([]model.NoteSummary, 0, len(cn.Notes))
		for _, n := range cn.Notes {
			notes = append(notes, model.NoteSummary{
				ID:      n.ID.String(),
				Content: strings.TrimSpace(n.Content),
				Order:   n.Order,
			})
		}
		resp = append(resp, model.ContextNotesResponse{Context: cn.Context.Identifier, Notes: notes})
	}
	return resp, nil
}

// DeleteNote removes a single note. Sibling orders are left untouched.
func (s *NotesService) DeleteNote(ctx context.Context, noteID string) (model.Result, error) {
	if noteID == "" {
		return model.Result{}, apperror.Validation("Note ID is required.")
	}
	id, err := uuid.Parse(noteID)
	if err != nil {
		// A malformed id cannot name a stored note.
		return model.Result{}, apperror.NotFound("Note not found.")
	}

	deleted, err := s.Store.DeleteNote(ctx, id)
	if err != nil {
		return model.Result{}, apperror.Internal(err)
	}
	if !deleted {
		return model.Result{}, apperror.NotFound("Note not found.")
	}
	return model.Result{Message: "Note deleted successfully."}, nil
}

// DeleteContext removes a context and its notes. Deleting an unknown
// context is a no-op, not an error.
func (s *NotesService) DeleteContext(ctx context.Context, identifier string) (model.Result, error) {
	if identifier == "" {
		return model.Result{}, apperror.Validation("Context is required.")
	}

	deleted, err := s.Store.DeleteContext(ctx, identifier)
	if err != nil {
		return model.Result{}, apperror.Internal(err)
	}
	if !deleted {
		return model.Result{
			Status:  model.StatusNoop,
			Message: fmt.Sprintf("Context '%s' not found.", identifier),
			Context: identifier,
		}, nil
	}
	return model.Result{
		Message: fmt.Sprintf("Context '%s' deleted successfully.", identifier),
		Context: identifier,
	}, nil
}

// IsEmptyNote reports whether raw carries no content: nil, blank, or one of
// the empty paragraph forms rich text editors emit.
func IsEmptyNote(raw *string) bool {
	if raw == nil {
		return true
	}
	collapsed := strings.ReplaceAll(strings.TrimSpace(*raw), " ", "")
	_, ok := emptyForms[collapsed]
	return ok
}

// DecodeContent trims content and resolves HTML entities. Text without
// entities is returned unchanged.
func DecodeContent(content string) string {
	return html.UnescapeString(strings.TrimSpace(content))
}

func allEmpty(notes []*string) bool {
	for _, n := range notes {
		if !IsEmptyNote(n) {
			return false
		}
	}
	return true
}
