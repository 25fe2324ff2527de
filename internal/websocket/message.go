package websocket

import (
	"encoding/json"

	"github.com/mcarreter/catalogo-be/internal/models"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

func marshal(m Message) []byte {
	b, err := json.Marshal(m)
	if err != nil {
		// A static message shape only fails to marshal on a programming error.
		return []byte(`{"action":"error","payload":"internal encoding error"}`)
	}
	return b
}

// NewErrorMessage builds an error frame for a client.
func NewErrorMessage(msg string) []byte {
	return marshal(Message{Action: "error", Payload: msg})
}

// NewCommentCreatedMessage builds the frame broadcast to an item's
// subscribers when a comment is appended to its feed.
func NewCommentCreatedMessage(comment models.Comment) []byte {
	return marshal(Message{Action: "comment_created", Payload: comment})
}

// NewAuthEventMessage builds the frame broadcast globally when a session is
// created or destroyed.
func NewAuthEventMessage(event, userID string) []byte {
	return marshal(Message{Action: "auth_event", Payload: map[string]string{
		"event":  event,
		"userId": userID,
	}})
}
