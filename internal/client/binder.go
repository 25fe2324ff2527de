package client

import (
	"context"
	"html/template"
	"strings"
)

// ViewBinder glues the session state and the comment feed into a catalog
// item's detail view: it produces the comment section markup appended to the
// view and fills its container once the view is attached.
type ViewBinder struct {
	session *SessionController
	feed    *CommentFeed
}

// NewViewBinder creates a binder over the page's session and feed.
func NewViewBinder(session *SessionController, feed *CommentFeed) *ViewBinder {
	return &ViewBinder{session: session, feed: feed}
}

var sectionTemplate = template.Must(template.New("section").Parse(`<div class="field-section">
<div class="section-title">💬 Comentarios y Validaciones</div>
{{if .SignedIn}}<div id="comentario-form">
<textarea id="comentario-texto" placeholder="Escribe un comentario sobre esta obra..."></textarea>
<button id="comentario-enviar" data-item-id="{{.ItemID}}">Enviar Comentario</button>
</div>{{else}}<p class="comentarios-aviso">Inicia sesión para dejar comentarios</p>{{end}}
<div id="comentarios-container"><p class="comentarios-aviso">Cargando comentarios...</p></div>
</div>`))

type sectionData struct {
	ItemID   string
	SignedIn bool
}

// DetailSection renders the comment section for an item's detail view. The
// submission form only appears when a user is signed in.
func (v *ViewBinder) DetailSection(itemID string) (template.HTML, error) {
	var sb strings.Builder
	err := sectionTemplate.Execute(&sb, sectionData{
		ItemID:   itemID,
		SignedIn: v.session.Panel() == PanelSignedIn,
	})
	if err != nil {
		return "", err
	}
	return template.HTML(sb.String()), nil
}

// CommentsHTML loads and renders the comment list that replaces the section's
// loading placeholder after the detail view is attached.
func (v *ViewBinder) CommentsHTML(ctx context.Context, itemID string) (template.HTML, error) {
	return v.feed.Render(v.feed.List(ctx, itemID))
}

// SubmitComment posts the content of the comment box and, on success, returns
// the refreshed list markup. The notice errors (must sign in, empty text) are
// shown to the user verbatim.
func (v *ViewBinder) SubmitComment(ctx context.Context, itemID, text string) (template.HTML, error) {
	if _, err := v.feed.Post(ctx, itemID, text, ""); err != nil {
		return "", err
	}
	return v.CommentsHTML(ctx, itemID)
}

// StyleSheet is the fixed CSS for the rendered comment section, served at
// /static/comments.css.
const StyleSheet = `/* Comment section */
.comentarios-list {
    max-height: 400px;
    overflow-y: auto;
}

.comentario-item {
    background: #f8f9fa;
    padding: 15px;
    margin-bottom: 10px;
    border-radius: 5px;
    border-left: 3px solid #3498db;
}

.comentario-header {
    display: flex;
    justify-content: space-between;
    margin-bottom: 8px;
    font-size: 13px;
}

.comentario-fecha {
    color: #999;
    font-size: 12px;
}

.comentario-contenido {
    color: #333;
    line-height: 1.5;
    margin-bottom: 8px;
}

.comentario-tipo {
    display: inline-block;
    background: #e3f2fd;
    color: #1976d2;
    padding: 2px 8px;
    border-radius: 3px;
    font-size: 11px;
    font-weight: 600;
}

.comentarios-aviso,
.comentarios-vacio {
    color: #999;
    padding: 10px;
}

#comentario-form textarea {
    width: 100%;
    padding: 10px;
    border-radius: 4px;
    border: 1px solid #ddd;
    min-height: 80px;
    font-family: inherit;
    resize: vertical;
}

#comentario-enviar {
    margin-top: 10px;
    padding: 8px 15px;
    background: #3498db;
    color: white;
    border: none;
    border-radius: 4px;
    cursor: pointer;
}
`
