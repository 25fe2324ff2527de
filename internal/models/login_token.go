package models

import "time"

// Purposes a login token can be issued for.
const (
	TokenPurposeMagicLink = "magiclink"
	TokenPurposeConfirm   = "confirm"
)

// LoginToken is a single-use token emailed to a user, either to confirm a new
// account or to sign in without a password.
type LoginToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
