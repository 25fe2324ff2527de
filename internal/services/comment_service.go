package services

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mcarreter/catalogo-be/internal/models"
	"github.com/rs/zerolog/log"
)

// DefaultCommentLimit caps how many comments a single read returns. Comments
// are unpaginated; the newest rows win.
const DefaultCommentLimit = 200

// CommentServiceProvider defines the interface for comment services.
type CommentServiceProvider interface {
	ListByItem(itemID string, limit int) ([]models.Comment, error)
	Create(itemID, userID, body, kind string) (models.Comment, error)
}

// CommentService provides business logic for the per-item comment feed.
type CommentService struct {
	db       *sql.DB
	eventSvc EventServiceProvider
}

// NewCommentService creates a new CommentService.
func NewCommentService(db *sql.DB, eventSvc EventServiceProvider) *CommentService {
	return &CommentService{db: db, eventSvc: eventSvc}
}

// ListByItem retrieves the comments for a catalog item joined with the
// author's profile, newest first. limit values outside (0, DefaultCommentLimit]
// fall back to the default.
func (s *CommentService) ListByItem(itemID string, limit int) ([]models.Comment, error) {
	if limit <= 0 || limit > DefaultCommentLimit {
		limit = DefaultCommentLimit
	}

	rows, err := s.db.Query(`
		SELECT c.id, c.item_id, c.user_id, c.body, c.kind, c.created_at,
		       COALESCE(p.full_name, ''), COALESCE(p.avatar_url, '')
		FROM comments c
		LEFT JOIN profiles p ON p.id = c.user_id
		WHERE c.item_id = ?
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT ?`, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ItemID, &c.UserID, &c.Body, &c.Kind, &c.CreatedAt, &c.AuthorName, &c.AuthorAvatar); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Create appends a comment to an item's feed and returns the stored row with
// its server-assigned ID and timestamp. There is no update or delete path.
func (s *CommentService) Create(itemID, userID, body, kind string) (models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.Comment{}, fmt.Errorf("comment body must not be empty")
	}
	if kind == "" {
		kind = models.DefaultCommentKind
	}

	id := uuid.New().String()
	stmt, err := s.db.Prepare("INSERT INTO comments(id, item_id, user_id, body, kind) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return models.Comment{}, err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(id, itemID, userID, body, kind); err != nil {
		return models.Comment{}, err
	}

	// The feed row is already committed; the activity log is advisory.
	if err := s.eventSvc.CreateEvent("comment.created", "info", fmt.Sprintf("New %s on item %s", kind, itemID), &itemID); err != nil {
		log.Error().Err(err).Str("item_id", itemID).Msg("Failed to record comment event")
	}

	return s.getByID(id)
}

func (s *CommentService) getByID(id string) (models.Comment, error) {
	var c models.Comment
	row := s.db.QueryRow(`
		SELECT c.id, c.item_id, c.user_id, c.body, c.kind, c.created_at,
		       COALESCE(p.full_name, ''), COALESCE(p.avatar_url, '')
		FROM comments c
		LEFT JOIN profiles p ON p.id = c.user_id
		WHERE c.id = ?`, id)
	err := row.Scan(&c.ID, &c.ItemID, &c.UserID, &c.Body, &c.Kind, &c.CreatedAt, &c.AuthorName, &c.AuthorAvatar)
	if err != nil {
		return models.Comment{}, err
	}
	return c, nil
}
