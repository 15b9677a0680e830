package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"annotations/pkg/logger"
	"annotations/store"

	"github.com/google/uuid"
)

const noteColumns = `a.id, a.context_id, a.content, a.sort_order, a.annotation_type, a.position, a.image_path, a.user_id, a.created_at, a.updated_at`

const noteOrdering = `a.sort_order ASC NULLS LAST, a.seq ASC`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type NotesRepository struct {
	DB *sql.DB
}

func NewNotesRepository(db *sql.DB) *NotesRepository {
	return &NotesRepository{DB: db}
}

var _ store.Store = (*NotesRepository)(nil)

func (r *NotesRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func (r *NotesRepository) ListNotes(ctx context.Context, identifier string) ([]store.Note, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM annotations a
		JOIN annotation_contexts c ON c.id = a.context_id
		WHERE c.identifier = $1
		ORDER BY `+noteOrdering, identifier)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes for context %q: %v", identifier, err)
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []store.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// ListAllContexts loads every context with its notes in one query. Contexts
// without notes are still returned.
func (r *NotesRepository) ListAllContexts(ctx context.Context) ([]store.ContextNotes, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.identifier, c.context_type, c.created_at,
		       a.id, a.content, a.sort_order, a.annotation_type, a.created_at, a.updated_at
		FROM annotation_contexts c
		LEFT JOIN annotations a ON a.context_id = c.id
		ORDER BY c.created_at ASC, c.identifier ASC, `+noteOrdering)
	if err != nil {
		logger.Sugar.Errorf("Failed to list contexts: %v", err)
		return nil, fmt.Errorf("list contexts: %w", err)
	}
	defer rows.Close()

	result := []store.ContextNotes{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var (
			c       store.Context
			ctxType sql.NullString
			noteID  uuid.NullUUID
			content sql.NullString
			order   sql.NullInt64
			kind    sql.NullString
			created sql.NullTime
			updated sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.Identifier, &ctxType, &c.CreatedAt,
			&noteID, &content, &order, &kind, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan context: %w", err)
		}
		c.Type = nullString(ctxType)

		i, ok := index[c.ID]
		if !ok {
			i = len(result)
			index[c.ID] = i
			result = append(result, store.ContextNotes{Context: c, Notes: []store.Note{}})
		}
		if !noteID.Valid {
			continue
		}
		result[i].Notes = append(result[i].Notes, store.Note{
			ID:        noteID.UUID,
			ContextID: c.ID,
			Content:   content.String,
			Order:     nullInt(order),
			Kind:      nullString(kind),
			CreatedAt: created.Time,
			UpdatedAt: updated.Time,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contexts: %w", err)
	}
	return result, nil
}

func (r *NotesRepository) FindContext(ctx context.Context, identifier string) (*store.Context, error) {
	return findContext(ctx, r.DB, identifier)
}

func (r *NotesRepository) DeleteNote(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM annotations WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete note %s: %v", id, err)
		return false, fmt.Errorf("delete note: %w", err)
	}
	return affected(result)
}

// DeleteContext removes the context and, through the foreign key cascade,
// all of its notes.
func (r *NotesRepository) DeleteContext(ctx context.Context, identifier string) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM annotation_contexts WHERE identifier = $1`, identifier)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete context %q: %v", identifier, err)
		return false, fmt.Errorf("delete context: %w", err)
	}
	return affected(result)
}

func (r *NotesRepository) InTx(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&notesTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Sugar.Errorf("Failed to roll back transaction: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type notesTx struct {
	tx *sql.Tx
}

// ResolveContext relies on the unique identifier constraint so concurrent
// callers for the same new identifier converge on a single row.
func (t *notesTx) ResolveContext(ctx context.Context, identifier string) (store.Context, error) {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO annotation_contexts (id, identifier, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (identifier) DO NOTHING`, uuid.New(), identifier)
	if err != nil {
		logger.Sugar.Errorf("Failed to create context %q: %v", identifier, err)
		return store.Context{}, fmt.Errorf("resolve context: %w", err)
	}
	c, err := findContext(ctx, t.tx, identifier)
	if err != nil {
		return store.Context{}, err
	}
	if c == nil {
		return store.Context{}, fmt.Errorf("resolve context: %q vanished after insert", identifier)
	}
	return *c, nil
}

func (t *notesTx) FindContext(ctx context.Context, identifier string) (*store.Context, error) {
	return findContext(ctx, t.tx, identifier)
}

func (t *notesTx) DeleteNotes(ctx context.Context, contextID uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM annotations WHERE context_id = $1`, contextID); err != nil {
		logger.Sugar.Errorf("Failed to clear notes of context %s: %v", contextID, err)
		return fmt.Errorf("delete notes: %w", err)
	}
	return nil
}

func (t *notesTx) DeleteContextByID(ctx context.Context, contextID uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM annotation_contexts WHERE id = $1`, contextID); err != nil {
		logger.Sugar.Errorf("Failed to delete context %s: %v", contextID, err)
		return fmt.Errorf("delete context: %w", err)
	}
	return nil
}

// InsertNote assigns a fresh ID when the note has none and fills in the
// timestamps chosen by the database.
func (t *notesTx) InsertNote(ctx context.Context, n *store.Note) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	var position any
	if len(n.Position) > 0 {
		position = string(n.Position)
	}
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO annotations (id, context_id, content, sort_order, annotation_type, position, image_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at`,
		n.ID, n.ContextID, n.Content, n.Order, n.Kind, position, n.Image,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to insert note into context %s: %v", n.ContextID, err)
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func findContext(ctx context.Context, q queryer, identifier string) (*store.Context, error) {
	var c store.Context
	var ctxType sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, identifier, context_type, created_at FROM annotation_contexts WHERE identifier = $1`,
		identifier,
	).Scan(&c.ID, &c.Identifier, &ctxType, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to find context %q: %v", identifier, err)
		return nil, fmt.Errorf("find context: %w", err)
	}
	c.Type = nullString(ctxType)
	return &c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (store.Note, error) {
	var (
		n        store.Note
		order    sql.NullInt64
		kind     sql.NullString
		position []byte
		image    sql.NullString
		userID   uuid.NullUUID
	)
	if err := s.Scan(&n.ID, &n.ContextID, &n.Content, &order, &kind, &position, &image, &userID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return store.Note{}, err
	}
	n.Order = nullInt(order)
	n.Kind = nullString(kind)
	n.Image = nullString(image)
	if len(position) > 0 {
		n.Position = position
	}
	if userID.Valid {
		id := userID.UUID
		n.UserID = &id
	}
	return n, nil
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullInt(i sql.NullInt64) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int64)
	return &v
}
