package client

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Panel identifies which of the two mutually exclusive page panels shows.
type Panel int

const (
	PanelSignedOut Panel = iota
	PanelSignedIn
)

// PanelFor maps an auth state transition to the panel it reveals.
func PanelFor(event string) Panel {
	if event == SignedIn {
		return PanelSignedIn
	}
	return PanelSignedOut
}

// User-facing notices for the auth flows. The page shows these verbatim.
var (
	ErrMissingCredentials = errors.New("Ingresa email y contraseña")
	ErrMissingFields      = errors.New("Completa todos los campos")
	ErrMissingEmail       = errors.New("Ingresa tu email")

	noticeSignUpOK    = "¡Registro exitoso! Revisa tu email para confirmar."
	noticeMagicLinkOK = "¡Revisa tu email para el enlace de acceso!"
)

// SessionController owns the page's auth state: the current user, their
// display name and which panel is visible. It is driven by the backend's auth
// change subscription and by the operations below.
type SessionController struct {
	backend  Backend
	profiles *ProfileAccessor

	mu          sync.RWMutex
	current     *User
	displayName string
	panel       Panel

	sub  *Subscription
	done chan struct{}
}

// NewSessionController creates a controller over the given backend.
func NewSessionController(backend Backend) *SessionController {
	return &SessionController{
		backend:  backend,
		profiles: NewProfileAccessor(backend),
		panel:    PanelSignedOut,
	}
}

// CheckSession asks the backend for an active session and applies the result.
// Any failure falls through silently to the signed-out state.
func (c *SessionController) CheckSession(ctx context.Context) *User {
	session, err := c.backend.Session(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Session check failed, treating as signed out")
		c.apply(ctx, AuthChange{Event: SignedOut})
		return nil
	}
	if session == nil {
		c.apply(ctx, AuthChange{Event: SignedOut})
		return nil
	}
	c.apply(ctx, AuthChange{Event: SignedIn, Session: session})
	return c.CurrentUser()
}

// Start subscribes to the backend's auth changes and applies each transition
// until Stop is called or ctx ends. The subscription is long-lived: one per
// page.
func (c *SessionController) Start(ctx context.Context) {
	c.sub = c.backend.AuthChanges()
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		for {
			select {
			case change, ok := <-c.sub.C:
				if !ok {
					return
				}
				c.apply(ctx, change)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the auth change subscription and waits for the loop to exit.
func (c *SessionController) Stop() {
	if c.sub == nil {
		return
	}
	c.sub.Cancel()
	<-c.done
}

// apply is the single writer of the controller's state.
func (c *SessionController) apply(ctx context.Context, change AuthChange) {
	panel := PanelFor(change.Event)

	var user *User
	var name string
	if panel == PanelSignedIn && change.Session != nil {
		u := change.Session.User
		user = &u
		// Display name resolution is a side effect of signing in; the email
		// is the fallback when no profile row answers.
		name = c.profiles.LoadProfileName(ctx, u.ID)
		if name == "" {
			name = u.Email
		}
	} else {
		panel = PanelSignedOut
	}

	c.mu.Lock()
	c.current = user
	c.displayName = name
	c.panel = panel
	c.mu.Unlock()
}

// CurrentUser returns the signed-in user, or nil.
func (c *SessionController) CurrentUser() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	u := *c.current
	return &u
}

// Panel returns the currently visible panel.
func (c *SessionController) Panel() Panel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.panel
}

// DisplayName returns the signed-in user's profile name, falling back to
// their email; empty when signed out.
func (c *SessionController) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayName
}

// LoginWithPassword performs password sign-in. Field presence is the only
// local validation; everything else is the backend's verdict, returned as the
// error for the page to alert with.
func (c *SessionController) LoginWithPassword(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return ErrMissingCredentials
	}

	session, err := c.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Password sign-in failed")
		return err
	}

	c.apply(ctx, AuthChange{Event: SignedIn, Session: session})
	return nil
}

// RegisterAccount performs sign-up. On success the returned notice tells the
// user to confirm by email; no session exists yet. Profile creation is a best
// effort whose failure (including the duplicate conflict) never fails the
// sign-up.
func (c *SessionController) RegisterAccount(ctx context.Context, fullName, email, password string) (string, error) {
	if fullName == "" || email == "" || password == "" {
		return "", ErrMissingFields
	}

	user, err := c.backend.SignUp(ctx, SignUpParams{Email: email, Password: password, FullName: fullName})
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Sign-up failed")
		return "", err
	}

	if user != nil {
		c.profiles.EnsureProfile(ctx, user.ID, fullName)
	}

	return noticeSignUpOK, nil
}

// RequestMagicLink asks for a passwordless sign-in link. The session appears
// later, when the emailed link is redeemed.
func (c *SessionController) RequestMagicLink(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", ErrMissingEmail
	}

	if err := c.backend.SignInWithOTP(ctx, email); err != nil {
		log.Error().Err(err).Str("email", email).Msg("Magic link request failed")
		return "", err
	}
	return noticeMagicLinkOK, nil
}

// SignOut ends the session and reveals the signed-out panel.
func (c *SessionController) SignOut(ctx context.Context) error {
	err := c.backend.SignOut(ctx)
	c.apply(ctx, AuthChange{Event: SignedOut})
	return err
}
