package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"annotations/store"

	"github.com/google/uuid"
)

// MemoryRepository keeps contexts and notes in process memory. It is meant
// for local development and tests; data does not survive a restart.
type MemoryRepository struct {
	mu       sync.RWMutex
	contexts map[string]store.Context // keyed by identifier
	notes    map[uuid.UUID]memNote
	seq      int64
	now      func() time.Time
}

type memNote struct {
	store.Note
	seq int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		contexts: make(map[string]store.Context),
		notes:    make(map[uuid.UUID]memNote),
		now:      time.Now,
	}
}

var _ store.Store = (*MemoryRepository)(nil)

func (m *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryRepository) ListNotes(_ context.Context, identifier string) ([]store.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contexts[identifier]
	if !ok {
		return []store.Note{}, nil
	}
	return m.notesOf(c.ID), nil
}

func (m *MemoryRepository) ListAllContexts(_ context.Context) ([]store.ContextNotes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contexts := make([]store.Context, 0, len(m.contexts))
	for _, c := range m.contexts {
		contexts = append(contexts, c)
	}
	sort.Slice(contexts, func(i, j int) bool {
		if !contexts[i].CreatedAt.Equal(contexts[j].CreatedAt) {
			return contexts[i].CreatedAt.Before(contexts[j].CreatedAt)
		}
		return contexts[i].Identifier < contexts[j].Identifier
	})

	result := make([]store.ContextNotes, 0, len(contexts))
	for _, c := range contexts {
		result = append(result, store.ContextNotes{Context: c, Notes: m.notesOf(c.ID)})
	}
	return result, nil
}

func (m *MemoryRepository) FindContext(_ context.Context, identifier string) (*store.Context, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.find(identifier), nil
}

func (m *MemoryRepository) DeleteNote(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.notes[id]; !ok {
		return false, nil
	}
	delete(m.notes, id)
	return true, nil
}

func (m *MemoryRepository) DeleteContext(_ context.Context, identifier string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contexts[identifier]
	if !ok {
		return false, nil
	}
	m.deleteContext(c)
	return true, nil
}

// InTx holds the write lock for the duration of fn and restores a snapshot
// when fn fails, so readers never observe a half-applied replacement.
func (m *MemoryRepository) InTx(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	contexts := make(map[string]store.Context, len(m.contexts))
	for k, v := range m.contexts {
		contexts[k] = v
	}
	notes := make(map[uuid.UUID]memNote, len(m.notes))
	for k, v := range m.notes {
		notes[k] = v
	}
	seq := m.seq

	if err := fn(memTx{m: m}); err != nil {
		m.contexts, m.notes, m.seq = contexts, notes, seq
		return err
	}
	return nil
}

// notesOf must be called with the lock held.
func (m *MemoryRepository) notesOf(contextID uuid.UUID) []store.Note {
	var rows []memNote
	for _, n := range m.notes {
		if n.ContextID == contextID {
			rows = append(rows, n)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
			return *a.Order < *b.Order
		case a.Order != nil && b.Order == nil:
			return true
		case a.Order == nil && b.Order != nil:
			return false
		}
		return a.seq < b.seq
	})

	notes := make([]store.Note, 0, len(rows))
	for _, n := range rows {
		notes = append(notes, n.Note)
	}
	return notes
}

func (m *MemoryRepository) find(identifier string) *store.Context {
	c, ok := m.contexts[identifier]
	if !ok {
		return nil
	}
	return &c
}

func (m *MemoryRepository) deleteContext(c store.Context) {
	for id, n := range m.notes {
		if n.ContextID == c.ID {
			delete(m.notes, id)
		}
	}
	delete(m.contexts, c.Identifier)
}

// memTx runs with the repository write lock already held.
type memTx struct {
	m *MemoryRepository
}

func (t memTx) ResolveContext(ctx context.Context, identifier string) (store.Context, error) {
	if err := ctx.Err(); err != nil {
		return store.Context{}, err
	}
	if c := t.m.find(identifier); c != nil {
		return *c, nil
	}
	c := store.Context{ID: uuid.New(), Identifier: identifier, CreatedAt: t.m.now()}
	t.m.contexts[identifier] = c
	return c, nil
}

func (t memTx) FindContext(_ context.Context, identifier string) (*store.Context, error) {
	return t.m.find(identifier), nil
}

func (t memTx) DeleteNotes(_ context.Context, contextID uuid.UUID) error {
	for id, n := range t.m.notes {
		if n.ContextID == contextID {
			delete(t.m.notes, id)
		}
	}
	return nil
}

func (t memTx) DeleteContextByID(_ context.Context, contextID uuid.UUID) error {
	for _, c := range t.m.contexts {
		if c.ID == contextID {
			t.m.deleteContext(c)
			return nil
		}
	}
	return nil
}

func (t memTx) InsertNote(ctx context.Context, n *store.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	now := t.m.now()
	n.CreatedAt, n.UpdatedAt = now, now
	t.m.seq++
	t.m.notes[n.ID] = memNote{Note: *n, seq: t.m.seq}
	return nil
}
