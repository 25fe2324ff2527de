package services

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcarreter/catalogo-be/internal/database"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServices(t *testing.T) (*sql.DB, *AuthService, *ProfileService, *CommentService) {
	t.Helper()
	db := newTestDB(t)
	profileSvc := NewProfileService(db)
	authSvc := NewAuthService(db, profileSvc, 15*time.Minute)
	commentSvc := NewCommentService(db, NewEventService(db))
	return db, authSvc, profileSvc, commentSvc
}
