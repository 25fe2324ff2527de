package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSessionSignedOut(t *testing.T) {
	backend := newFakeBackend()
	ctrl := NewSessionController(backend)

	user := ctrl.CheckSession(context.Background())
	assert.Nil(t, user)
	assert.Equal(t, PanelSignedOut, ctrl.Panel())
}

func TestCheckSessionSignedIn(t *testing.T) {
	backend := newFakeBackend()
	seeded := backend.seedUser("ana@example.com", "Ana García")
	backend.openSession(seeded)
	ctrl := NewSessionController(backend)

	user := ctrl.CheckSession(context.Background())
	require.NotNil(t, user)
	assert.Equal(t, seeded.ID, user.ID)
	assert.Equal(t, PanelSignedIn, ctrl.Panel())
	assert.Equal(t, "Ana García", ctrl.DisplayName())
}

func TestCheckSessionFailureFallsThroughToSignedOut(t *testing.T) {
	backend := newFakeBackend()
	seeded := backend.seedUser("ana@example.com", "Ana")
	backend.openSession(seeded)
	backend.sessionErr = assert.AnError
	ctrl := NewSessionController(backend)

	assert.Nil(t, ctrl.CheckSession(context.Background()))
	assert.Equal(t, PanelSignedOut, ctrl.Panel())
}

func TestLoginTogglesPanels(t *testing.T) {
	backend := newFakeBackend()
	backend.seedUser("ana@example.com", "Ana García")
	ctrl := NewSessionController(backend)

	require.NoError(t, ctrl.LoginWithPassword(context.Background(), "ana@example.com", "pw"))
	require.NotNil(t, ctrl.CurrentUser())
	assert.Equal(t, PanelSignedIn, ctrl.Panel())
	assert.Equal(t, "Ana García", ctrl.DisplayName())

	require.NoError(t, ctrl.SignOut(context.Background()))
	assert.Nil(t, ctrl.CurrentUser())
	assert.Equal(t, PanelSignedOut, ctrl.Panel())
	assert.Empty(t, ctrl.DisplayName())
}

func TestLoginEmptyFieldsMakesNoBackendCall(t *testing.T) {
	backend := newFakeBackend()
	ctrl := NewSessionController(backend)

	err := ctrl.LoginWithPassword(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Zero(t, backend.callCount("SignInWithPassword"))
	assert.Equal(t, PanelSignedOut, ctrl.Panel())
}

func TestLoginFailureLeavesPriorState(t *testing.T) {
	backend := newFakeBackend()
	ctrl := NewSessionController(backend)

	err := ctrl.LoginWithPassword(context.Background(), "nadie@example.com", "pw")
	require.Error(t, err)
	assert.Nil(t, ctrl.CurrentUser())
	assert.Equal(t, PanelSignedOut, ctrl.Panel())
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	backend := newFakeBackend()
	backend.seedUser("sinperfil@example.com", "")
	ctrl := NewSessionController(backend)

	require.NoError(t, ctrl.LoginWithPassword(context.Background(), "sinperfil@example.com", "pw"))
	assert.Equal(t, "sinperfil@example.com", ctrl.DisplayName())
}

func TestRegisterAccount(t *testing.T) {
	backend := newFakeBackend()
	ctrl := NewSessionController(backend)

	notice, err := ctrl.RegisterAccount(context.Background(), "Ana García", "ana@example.com", "secret-password")
	require.NoError(t, err)
	assert.Contains(t, notice, "Revisa tu email")

	// Sign-up alone opens no session.
	assert.Nil(t, ctrl.CurrentUser())
	assert.Equal(t, PanelSignedOut, ctrl.Panel())
}

func TestRegisterAccountMissingFields(t *testing.T) {
	backend := newFakeBackend()
	ctrl := NewSessionController(backend)

	_, err := ctrl.RegisterAccount(context.Background(), "", "ana@example.com", "pw")
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Zero(t, backend.callCount("SignUp"))
}

func TestRegisterAccountSurvivesProfileConflict(t *testing.T) {
	backend := newFakeBackend()
	backend.profileErr = &BackendError{Status: 409, Message: "Profile already exists"}
	ctrl := NewSessionController(backend)

	notice, err := ctrl.RegisterAccount(context.Background(), "Ana", "ana@example.com", "secret-password")
	require.NoError(t, err, "a duplicate profile must not fail the sign-up")
	assert.Contains(t, notice, "Registro exitoso")
}

func TestRegisterAccountSurvivesProfileFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.profileErr = &BackendError{Status: 500, Message: "boom"}
	ctrl := NewSessionController(backend)

	_, err := ctrl.RegisterAccount(context.Background(), "Ana", "ana@example.com", "secret-password")
	assert.NoError(t, err, "profile creation is best effort")
}

func TestRequestMagicLink(t *testing.T) {
	backend := newFakeBackend()
	ctrl := NewSessionController(backend)

	notice, err := ctrl.RequestMagicLink(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, notice, "enlace de acceso")

	_, err = ctrl.RequestMagicLink(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingEmail)
}

func TestSubscriptionDrivesPanels(t *testing.T) {
	backend := newFakeBackend()
	backend.seedUser("ana@example.com", "Ana García")
	ctrl := NewSessionController(backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl.Start(ctx)
	defer ctrl.Stop()

	// A sign-in performed elsewhere (e.g. a redeemed magic link) reaches the
	// controller through the subscription alone.
	_, err := backend.SignInWithPassword(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return ctrl.Panel() == PanelSignedIn
	}, time.Second, 5*time.Millisecond)
	assert.NotNil(t, ctrl.CurrentUser())

	require.NoError(t, backend.SignOut(context.Background()))
	require.Eventually(t, func() bool {
		return ctrl.Panel() == PanelSignedOut
	}, time.Second, 5*time.Millisecond)
}

func TestPanelFor(t *testing.T) {
	assert.Equal(t, PanelSignedIn, PanelFor(SignedIn))
	assert.Equal(t, PanelSignedOut, PanelFor(SignedOut))
	assert.Equal(t, PanelSignedOut, PanelFor("TOKEN_REFRESHED"))
}
