package models

import "time"

// DefaultRole is assigned to profiles created through sign-up.
const DefaultRole = "collaborator"

// Profile holds the public-facing identity of a user. There is at most one
// profile per user, keyed by the user's ID.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
