package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mcarreter/catalogo-be/internal/auth"
	"github.com/mcarreter/catalogo-be/internal/models"
	"github.com/mcarreter/catalogo-be/internal/services"
	ws "github.com/mcarreter/catalogo-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// CommentHandler handles HTTP requests for per-item comment feeds.
type CommentHandler struct {
	service services.CommentServiceProvider
	hub     *ws.Hub
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(service services.CommentServiceProvider, hub *ws.Hub) *CommentHandler {
	return &CommentHandler{service: service, hub: hub}
}

// CommentPayload defines the structure for comment submissions.
type CommentPayload struct {
	Body string `json:"body"`
	Kind string `json:"kind"`
}

// List handles retrieving the comments for a catalog item, newest first.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = services.DefaultCommentLimit
	}

	comments, err := h.service.ListByItem(itemID, limit)
	if err != nil {
		log.Error().Err(err).Str("item_id", itemID).Msg("Failed to list comments")
		http.Error(w, "Failed to retrieve comments: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(comments)
}

// Create handles appending a comment to an item's feed. The author is always
// the authenticated user; the payload cannot impersonate anyone else.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	itemID := chi.URLParam(r, "itemID")

	var payload CommentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := h.service.Create(itemID, claims.UserID, payload.Body, payload.Kind)
	if err != nil {
		log.Error().Err(err).Str("item_id", itemID).Str("user_id", claims.UserID).Msg("Failed to create comment")
		http.Error(w, "Failed to create comment: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.hub.BroadcastTo(itemID, ws.NewCommentCreatedMessage(comment))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(comment)
}
