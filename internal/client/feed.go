package client

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrMustSignIn is the notice shown when a signed-out user tries to comment.
var ErrMustSignIn = errors.New("Debes iniciar sesión para comentar")

// ErrEmptyComment is the notice shown for a blank submission.
var ErrEmptyComment = errors.New("Escribe un comentario")

// Comment is one rendered feed entry: the stored row joined with its author's
// profile.
type Comment struct {
	ID           string `json:"id"`
	ItemID       string `json:"item_id"`
	UserID       string `json:"user_id"`
	Body         string `json:"body"`
	Kind         string `json:"kind"`
	CreatedAt    string `json:"created_at"`
	AuthorName   string `json:"author_name"`
	AuthorAvatar string `json:"author_avatar"`
}

// CommentFeed loads, submits and renders the comment list of a catalog item.
type CommentFeed struct {
	backend Backend
	session *SessionController
}

// NewCommentFeed creates a feed bound to the page's session state.
func NewCommentFeed(backend Backend, session *SessionController) *CommentFeed {
	return &CommentFeed{backend: backend, session: session}
}

// List fetches an item's comments, newest first. A backend failure is logged
// and yields an empty list; the feed never distinguishes "no comments" from
// "fetch failed".
func (f *CommentFeed) List(ctx context.Context, itemID string) []Comment {
	var comments []Comment
	err := f.backend.SelectInto(ctx, "comments", Query{
		Eq:            map[string]string{"item_id": itemID},
		Order:         "created_at",
		Desc:          true,
		EmbedProfiles: true,
	}, &comments)
	if err != nil {
		log.Error().Err(err).Str("item_id", itemID).Msg("Failed to load comments")
		return nil
	}
	return comments
}

// Post appends a comment for the signed-in user. A signed-out user gets
// ErrMustSignIn with no backend call made; a blank body gets ErrEmptyComment
// the same way.
func (f *CommentFeed) Post(ctx context.Context, itemID, body, kind string) (*Comment, error) {
	if f.session.CurrentUser() == nil {
		return nil, ErrMustSignIn
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyComment
	}
	if kind == "" {
		kind = "comment"
	}

	var created Comment
	err := f.backend.InsertInto(ctx, "comments", map[string]string{
		"item_id": itemID,
		"body":    body,
		"kind":    kind,
	}, &created)
	if err != nil {
		log.Error().Err(err).Str("item_id", itemID).Msg("Failed to create comment")
		return nil, err
	}
	return &created, nil
}

var feedTemplate = template.Must(template.New("feed").Funcs(template.FuncMap{
	"authorName": displayAuthor,
	"fecha":      formatTimestamp,
}).Parse(`{{if not .}}<p class="comentarios-vacio">No hay comentarios aún.</p>{{else}}<div class="comentarios-list">
{{range .}}<div class="comentario-item">
<div class="comentario-header"><strong>{{authorName .}}</strong><span class="comentario-fecha">{{fecha .CreatedAt}}</span></div>
<div class="comentario-contenido">{{.Body}}</div>
<div class="comentario-tipo">{{.Kind}}</div>
</div>
{{end}}</div>{{end}}`))

// Render builds the HTML fragment for the comment container. Escaping of all
// user-supplied text is enforced by the template engine, never left to the
// caller.
func (f *CommentFeed) Render(comments []Comment) (template.HTML, error) {
	var sb strings.Builder
	if err := feedTemplate.Execute(&sb, comments); err != nil {
		return "", err
	}
	return template.HTML(sb.String()), nil
}

func displayAuthor(c Comment) string {
	if c.AuthorName == "" {
		return "Usuario"
	}
	return c.AuthorName
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// timestampLayouts covers the two shapes the backend produces: RFC3339 from
// JSON-encoded times and the bare DATETIME default of the store.
var timestampLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z"}

// formatTimestamp renders a stored timestamp the way the page always has:
// "12 de mayo de 2025, 18:30". Unparseable input passes through untouched.
func formatTimestamp(raw string) string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return fmt.Sprintf("%d de %s de %d, %02d:%02d",
				t.Day(), spanishMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
		}
	}
	return raw
}
