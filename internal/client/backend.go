// Package client is the integration layer between a static catalog page and
// the comments backend: a substitutable backend adapter, a session controller
// driving the signed-in/signed-out panels, a profile accessor, the per-item
// comment feed and the detail-view binder that renders it.
package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Auth state transitions reported by a backend.
const (
	SignedIn  = "SIGNED_IN"
	SignedOut = "SIGNED_OUT"
)

// User is the client-side view of an account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated session: a bearer token plus its user.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// AuthChange is one auth state transition. Session is nil for sign-out.
type AuthChange struct {
	Event   string
	Session *Session
}

// SignUpParams carries the fields of a registration request.
type SignUpParams struct {
	Email    string
	Password string
	FullName string
}

// Query describes a generic table read: equality filters, ordering, a row
// limit and, for comments, the author-profile embed.
type Query struct {
	Eq            map[string]string
	Order         string
	Desc          bool
	Limit         int
	EmbedProfiles bool
}

// Backend abstracts the hosted service the page glue talks to, so an
// alternative implementation (or a test double) can be substituted without
// touching any UI logic.
type Backend interface {
	// Session returns the current session, or nil when none exists.
	Session(ctx context.Context) (*Session, error)

	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, params SignUpParams) (*User, error)
	// SignInWithOTP requests a passwordless sign-in link for the email. No
	// session exists until the link is redeemed out of band.
	SignInWithOTP(ctx context.Context, email string) error
	// RedeemToken exchanges a confirmation or magic-link token for a session.
	RedeemToken(ctx context.Context, token string) (*Session, error)
	SignOut(ctx context.Context) error

	SelectInto(ctx context.Context, table string, q Query, dest interface{}) error
	InsertInto(ctx context.Context, table string, row, dest interface{}) error

	// AuthChanges returns a cancellable subscription to auth state
	// transitions. The subscription lives until cancelled.
	AuthChanges() *Subscription
}

// Subscription is a cancellable stream of auth state transitions.
type Subscription struct {
	C <-chan AuthChange

	once   sync.Once
	cancel func()
}

// Cancel stops the subscription and closes C. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// BackendError is a service-reported failure with the message the backend
// returned, suitable for showing to the user.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// IsConflict reports whether err is the backend's duplicate-row rejection.
func IsConflict(err error) bool {
	be, ok := err.(*BackendError)
	return ok && be.Status == http.StatusConflict
}
