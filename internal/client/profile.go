package client

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ProfileAccessor reads and lazily creates profile rows through the backend's
// generic table surface.
type ProfileAccessor struct {
	backend Backend
}

// NewProfileAccessor creates a ProfileAccessor.
func NewProfileAccessor(backend Backend) *ProfileAccessor {
	return &ProfileAccessor{backend: backend}
}

type profileRow struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// EnsureProfile inserts the user's profile row. The duplicate conflict means
// the row is already there and counts as success; any other failure is logged
// and swallowed, so no sign-up ever fails on account of its profile.
func (a *ProfileAccessor) EnsureProfile(ctx context.Context, userID, fullName string) {
	err := a.backend.InsertInto(ctx, "profiles", map[string]string{"full_name": fullName}, nil)
	if err != nil && !IsConflict(err) {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create profile")
	}
}

// LoadProfileName looks up the display name for a user. Absence is not an
// error: the empty string tells the caller to fall back to the email.
func (a *ProfileAccessor) LoadProfileName(ctx context.Context, userID string) string {
	var rows []profileRow
	err := a.backend.SelectInto(ctx, "profiles", Query{
		Eq:    map[string]string{"id": userID},
		Limit: 1,
	}, &rows)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load profile")
		return ""
	}
	if len(rows) == 0 {
		return ""
	}
	return rows[0].FullName
}
