package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	_, authSvc, profileSvc, commentSvc := newTestServices(t)
	user := insertUser(t, authSvc, "ana@example.com")
	require.NoError(t, profileSvc.EnsureProfile(user.ID, ""))

	comment, err := commentSvc.Create("obra-42", user.ID, "  Una obra magnífica  ", "")
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.Equal(t, "obra-42", comment.ItemID)
	assert.Equal(t, user.ID, comment.UserID)
	assert.Equal(t, "Una obra magnífica", comment.Body, "body is trimmed")
	assert.Equal(t, "comment", comment.Kind, "kind defaults")
	assert.False(t, comment.CreatedAt.IsZero(), "timestamp is server-assigned")
}

func TestCreateCommentEmptyBody(t *testing.T) {
	_, authSvc, _, commentSvc := newTestServices(t)
	user := insertUser(t, authSvc, "ana@example.com")

	_, err := commentSvc.Create("obra-42", user.ID, "   ", "")
	assert.Error(t, err)
}

func TestCreateCommentRecordsEvent(t *testing.T) {
	db, authSvc, _, commentSvc := newTestServices(t)
	user := insertUser(t, authSvc, "ana@example.com")

	_, err := commentSvc.Create("obra-42", user.ID, "Hola", "")
	require.NoError(t, err)

	events, err := NewEventService(db).GetRecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "comment.created", events[0].Type)
	require.NotNil(t, events[0].ItemID)
	assert.Equal(t, "obra-42", *events[0].ItemID)
}

func TestListByItemEmpty(t *testing.T) {
	_, _, _, commentSvc := newTestServices(t)

	comments, err := commentSvc.ListByItem("obra-sin-comentarios", 0)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestListByItemNewestFirst(t *testing.T) {
	db, authSvc, profileSvc, commentSvc := newTestServices(t)
	user := insertUser(t, authSvc, "ana@example.com")
	require.NoError(t, profileSvc.EnsureProfile(user.ID, "Ana García"))

	// Insert with explicit timestamps T1 < T2 < T3.
	stamps := map[string]string{
		"c1": "2025-05-01 10:00:00",
		"c2": "2025-05-02 10:00:00",
		"c3": "2025-05-03 10:00:00",
	}
	for id, ts := range stamps {
		_, err := db.Exec(
			"INSERT INTO comments(id, item_id, user_id, body, kind, created_at) VALUES(?, 'obra-42', ?, ?, 'comment', ?)",
			id, user.ID, "cuerpo "+id, ts)
		require.NoError(t, err)
	}

	comments, err := commentSvc.ListByItem("obra-42", 0)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "c3", comments[0].ID)
	assert.Equal(t, "c2", comments[1].ID)
	assert.Equal(t, "c1", comments[2].ID)

	// The author join carries the profile name.
	assert.Equal(t, "Ana García", comments[0].AuthorName)
}

func TestListByItemEmptyAuthorName(t *testing.T) {
	_, authSvc, _, commentSvc := newTestServices(t)
	user := insertUser(t, authSvc, "ana@example.com")

	// Registration with an empty name leaves an empty profile name; the feed
	// renderer falls back on its own.
	_, err := commentSvc.Create("obra-42", user.ID, "Hola", "")
	require.NoError(t, err)

	comments, err := commentSvc.ListByItem("obra-42", 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "", comments[0].AuthorName)
}

func TestListByItemLimit(t *testing.T) {
	db, authSvc, _, commentSvc := newTestServices(t)
	user := insertUser(t, authSvc, "ana@example.com")

	for i := 0; i < 5; i++ {
		_, err := db.Exec(
			"INSERT INTO comments(id, item_id, user_id, body, kind, created_at) VALUES(?, 'obra-42', ?, 'x', 'comment', ?)",
			string(rune('a'+i)), user.ID, "2025-05-0"+string(rune('1'+i))+" 10:00:00")
		require.NoError(t, err)
	}

	comments, err := commentSvc.ListByItem("obra-42", 2)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}
