package store

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract the notes service is written against.
type Store interface {
	// ListNotes returns the notes of the context with the given identifier,
	// ordered by Order (unset last) and then insertion.
	ListNotes(ctx context.Context, identifier string) ([]Note, error)
	ListAllContexts(ctx context.Context) ([]ContextNotes, error)
	FindContext(ctx context.Context, identifier string) (*Context, error)
	DeleteNote(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteContext(ctx context.Context, identifier string) (bool, error)
	Ping(ctx context.Context) error

	// InTx runs fn in a single transaction. The transaction is rolled back
	// when fn returns an error.
	InTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of writes that must be applied atomically.
type Tx interface {
	// ResolveContext returns the context for identifier, creating it if it
	// does not exist yet.
	ResolveContext(ctx context.Context, identifier string) (Context, error)
	FindContext(ctx context.Context, identifier string) (*Context, error)
	DeleteNotes(ctx context.Context, contextID uuid.UUID) error
	DeleteContextByID(ctx context.Context, contextID uuid.UUID) error
	InsertNote(ctx context.Context, note *Note) error
}
