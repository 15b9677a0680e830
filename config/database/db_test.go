package database

import (
	"context"
	"errors"
	"io/fs"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForDBRetriesUntilReachable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing()

	err = WaitForDB(context.Background(), db, 3, time.Millisecond)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitForDBGivesUp(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("no route to host"))
	mock.ExpectPing().WillReturnError(errors.New("no route to host"))

	err = WaitForDB(context.Background(), db, 2, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Contains(t, err.Error(), "no route to host")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitForDBStopsOnCancel(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = WaitForDB(ctx, db, 5, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbeddedMigrationsPaired(t *testing.T) {
	ups, err := fs.Glob(migrationFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationFS, "migrations/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))

	schema, err := fs.ReadFile(migrationFS, "migrations/000001_create_annotations.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(schema), "UNIQUE (identifier)")
	assert.Contains(t, string(schema), "ON DELETE CASCADE")

	image, err := fs.ReadFile(migrationFS, "migrations/000002_add_annotation_image.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(image), "image_path TEXT")
}

func TestNewMigratorReleasesConnectionOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT CURRENT_DATABASE()")).
		WillReturnError(errors.New("permission denied"))

	_, err = newMigrator(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Zero(t, db.Stats().InUse, "migration connection must be returned to the pool")
	assert.NoError(t, mock.ExpectationsWereMet())
}
