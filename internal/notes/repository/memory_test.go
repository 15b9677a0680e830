package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"annotations/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestMemoryResolveContextIsStable(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var first, second store.Context
	require.NoError(t, repo.InTx(ctx, func(tx store.Tx) error {
		var err error
		first, err = tx.ResolveContext(ctx, "page")
		return err
	}))
	require.NoError(t, repo.InTx(ctx, func(tx store.Tx) error {
		var err error
		second, err = tx.ResolveContext(ctx, "page")
		return err
	}))

	assert.Equal(t, first.ID, second.ID)
	found, err := repo.FindContext(ctx, "page")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}

func TestMemoryOrdersByOrderThenInsertion(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.ResolveContext(ctx, "page")
		if err != nil {
			return err
		}
		for _, n := range []store.Note{
			{ContextID: c.ID, Content: "legacy-1"},
			{ContextID: c.ID, Content: "two", Order: intPtr(2)},
			{ContextID: c.ID, Content: "legacy-2"},
			{ContextID: c.ID, Content: "zero", Order: intPtr(0)},
		} {
			if err := tx.InsertNote(ctx, &n); err != nil {
				return err
			}
		}
		return nil
	}))

	notes, err := repo.ListNotes(ctx, "page")
	require.NoError(t, err)

	var contents []string
	for _, n := range notes {
		contents = append(contents, n.Content)
	}
	assert.Equal(t, []string{"zero", "two", "legacy-1", "legacy-2"}, contents)
}

func TestMemoryInTxRollsBack(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.ResolveContext(ctx, "page")
		if err != nil {
			return err
		}
		return tx.InsertNote(ctx, &store.Note{ContextID: c.ID, Content: "keep", Order: intPtr(0)})
	}))

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.ResolveContext(ctx, "page")
		if err != nil {
			return err
		}
		if err := tx.DeleteNotes(ctx, c.ID); err != nil {
			return err
		}
		if _, err := tx.ResolveContext(ctx, "other"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	notes, err := repo.ListNotes(ctx, "page")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "keep", notes[0].Content)

	other, err := repo.FindContext(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMemoryDeleteContextCascades(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var note store.Note
	require.NoError(t, repo.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.ResolveContext(ctx, "page")
		if err != nil {
			return err
		}
		note = store.Note{ContextID: c.ID, Content: "x", Order: intPtr(0)}
		return tx.InsertNote(ctx, &note)
	}))

	deleted, err := repo.DeleteContext(ctx, "page")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteNote(ctx, note.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "note should have been removed with its context")

	deleted, err = repo.DeleteContext(ctx, "page")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryListAllContextsOrdered(t *testing.T) {
	repo := NewMemoryRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	ctx := context.Background()

	for _, id := range []string{"b-second", "a-third", "c-first"} {
		id := id
		require.NoError(t, repo.InTx(ctx, func(tx store.Tx) error {
			_, err := tx.ResolveContext(ctx, id)
			return err
		}))
	}

	all, err := repo.ListAllContexts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b-second", all[0].Context.Identifier)
	assert.Equal(t, "a-third", all[1].Context.Identifier)
	assert.Equal(t, "c-first", all[2].Context.Identifier)
	assert.Empty(t, all[0].Notes)
}

func TestMemoryInTxHonoursCancelledContext(t *testing.T) {
	repo := NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := repo.InTx(ctx, func(store.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
