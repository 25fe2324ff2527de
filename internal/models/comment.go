package models

import "time"

// DefaultCommentKind is the kind assigned when a client does not specify one.
const DefaultCommentKind = "comment"

// Comment is an append-only note attached to a catalog item. The item itself
// lives outside this service; only its identifier is stored here.
type Comment struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	UserID    string    `json:"userId"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`

	// Author data populated by the JOIN against profiles on reads.
	AuthorName   string `json:"authorName,omitempty"`
	AuthorAvatar string `json:"authorAvatar,omitempty"`
}
