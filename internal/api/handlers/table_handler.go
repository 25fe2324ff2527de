package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mcarreter/catalogo-be/internal/auth"
	"github.com/mcarreter/catalogo-be/internal/models"
	"github.com/mcarreter/catalogo-be/internal/services"
	ws "github.com/mcarreter/catalogo-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// TableHandler exposes a small generic table surface in the style of a hosted
// backend's auto-generated REST client: equality filters (`col=eq.value`),
// ordering (`order=col.desc`), a row limit, and authenticated inserts. Only
// whitelisted tables and columns are reachable; everything else is 404/400.
type TableHandler struct {
	db         *sql.DB
	profileSvc services.ProfileServiceProvider
	commentSvc services.CommentServiceProvider
	hub        *ws.Hub
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(db *sql.DB, profileSvc services.ProfileServiceProvider, commentSvc services.CommentServiceProvider, hub *ws.Hub) *TableHandler {
	return &TableHandler{db: db, profileSvc: profileSvc, commentSvc: commentSvc, hub: hub}
}

// tableColumns whitelists the readable and filterable columns per table.
var tableColumns = map[string][]string{
	"profiles": {"id", "full_name", "role", "avatar_url", "created_at"},
	"comments": {"id", "item_id", "user_id", "body", "kind", "created_at"},
}

const maxTableLimit = 200

func columnAllowed(table, col string) bool {
	for _, c := range tableColumns[table] {
		if c == col {
			return true
		}
	}
	return false
}

// Select handles generic filtered reads against a whitelisted table.
func (h *TableHandler) Select(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	cols, ok := tableColumns[table]
	if !ok {
		http.Error(w, "Unknown table", http.StatusNotFound)
		return
	}

	selectCols := make([]string, len(cols))
	for i, c := range cols {
		selectCols[i] = "t." + c
	}
	from := table + " t"

	// The comments read is always offered joined against the author profile,
	// mirroring how the page glue consumes it.
	embed := r.URL.Query().Get("embed") == "profiles"
	if embed && table == "comments" {
		selectCols = append(selectCols, "COALESCE(p.full_name, '')", "COALESCE(p.avatar_url, '')")
		from += " LEFT JOIN profiles p ON p.id = t.user_id"
	}

	var where []string
	var args []interface{}
	for key, values := range r.URL.Query() {
		if key == "order" || key == "limit" || key == "embed" || len(values) == 0 {
			continue
		}
		val, found := strings.CutPrefix(values[0], "eq.")
		if !found {
			http.Error(w, fmt.Sprintf("Unsupported filter on %q, expected eq.<value>", key), http.StatusBadRequest)
			return
		}
		if !columnAllowed(table, key) {
			http.Error(w, fmt.Sprintf("Unknown column %q", key), http.StatusBadRequest)
			return
		}
		where = append(where, "t."+key+" = ?")
		args = append(args, val)
	}

	orderClause := "t.created_at DESC"
	if order := r.URL.Query().Get("order"); order != "" {
		col, dir := order, "ASC"
		if c, found := strings.CutSuffix(order, ".desc"); found {
			col, dir = c, "DESC"
		} else if c, found := strings.CutSuffix(order, ".asc"); found {
			col = c
		}
		if !columnAllowed(table, col) {
			http.Error(w, fmt.Sprintf("Unknown order column %q", col), http.StatusBadRequest)
			return
		}
		orderClause = "t." + col + " " + dir
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > maxTableLimit {
		limit = maxTableLimit
	}

	query := "SELECT " + strings.Join(selectCols, ", ") + " FROM " + from
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause + " LIMIT ?"
	args = append(args, limit)

	rows, err := h.db.Query(query, args...)
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("Failed generic table read")
		http.Error(w, "Failed to read table", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	names := append([]string{}, cols...)
	if embed && table == "comments" {
		names = append(names, "author_name", "author_avatar")
	}

	result := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(names))
		ptrs := make([]interface{}, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			log.Error().Err(err).Str("table", table).Msg("Failed to scan table row")
			http.Error(w, "Failed to read table", http.StatusInternalServerError)
			return
		}
		row := make(map[string]interface{}, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Str("table", table).Msg("Failed generic table read")
		http.Error(w, "Failed to read table", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// ProfileInsertPayload is the writable subset of a profile row.
type ProfileInsertPayload struct {
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}

// CommentInsertPayload is the writable subset of a comment row.
type CommentInsertPayload struct {
	ItemID string `json:"item_id"`
	Body   string `json:"body"`
	Kind   string `json:"kind"`
}

// Insert handles generic inserts. Rows are always owned by the authenticated
// user: a profile insert is keyed by the caller's ID, a comment insert stamps
// the caller as author. A duplicate profile yields 409, which clients treat as
// "already there".
func (h *TableHandler) Insert(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	table := chi.URLParam(r, "table")
	switch table {
	case "profiles":
		var payload ProfileInsertPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		profile, err := h.profileSvc.CreateProfile(models.Profile{
			ID:        claims.UserID,
			FullName:  payload.FullName,
			Role:      payload.Role,
			AvatarURL: payload.AvatarURL,
		})
		if err == services.ErrProfileExists {
			http.Error(w, "Profile already exists", http.StatusConflict)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed generic profile insert")
			http.Error(w, "Failed to insert profile", http.StatusInternalServerError)
			return
		}
		writeCreated(w, map[string]interface{}{
			"id":         profile.ID,
			"full_name":  profile.FullName,
			"role":       profile.Role,
			"avatar_url": profile.AvatarURL,
			"created_at": profile.CreatedAt,
		})

	case "comments":
		var payload CommentInsertPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		comment, err := h.commentSvc.Create(payload.ItemID, claims.UserID, payload.Body, payload.Kind)
		if err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed generic comment insert")
			http.Error(w, "Failed to insert comment: "+err.Error(), http.StatusBadRequest)
			return
		}
		h.hub.BroadcastTo(comment.ItemID, ws.NewCommentCreatedMessage(comment))
		writeCreated(w, map[string]interface{}{
			"id":            comment.ID,
			"item_id":       comment.ItemID,
			"user_id":       comment.UserID,
			"body":          comment.Body,
			"kind":          comment.Kind,
			"created_at":    comment.CreatedAt,
			"author_name":   comment.AuthorName,
			"author_avatar": comment.AuthorAvatar,
		})

	default:
		http.Error(w, "Unknown table", http.StatusNotFound)
	}
}

func writeCreated(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(v)
}
