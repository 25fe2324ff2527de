package services

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mcarreter/catalogo-be/internal/models"
)

// ErrProfileExists is returned by the insert path when a profile row already
// exists for the user. EnsureProfile treats it as success; the generic table
// handler maps it to 409 so clients can do the same.
var ErrProfileExists = fmt.Errorf("profile already exists")

// ProfileServiceProvider defines the interface for profile services.
type ProfileServiceProvider interface {
	EnsureProfile(userID, fullName string) error
	CreateProfile(profile models.Profile) (models.Profile, error)
	GetProfile(id string) (models.Profile, error)
}

// ProfileService provides business logic for user profiles.
type ProfileService struct {
	db *sql.DB
}

// NewProfileService creates a new ProfileService.
func NewProfileService(db *sql.DB) *ProfileService {
	return &ProfileService{db: db}
}

// CreateProfile inserts a profile row. A duplicate insert for the same user
// yields ErrProfileExists.
func (s *ProfileService) CreateProfile(profile models.Profile) (models.Profile, error) {
	if profile.Role == "" {
		profile.Role = models.DefaultRole
	}

	stmt, err := s.db.Prepare("INSERT INTO profiles(id, full_name, role, avatar_url) VALUES(?, ?, ?, ?)")
	if err != nil {
		return models.Profile{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(profile.ID, profile.FullName, profile.Role, profile.AvatarURL)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.Profile{}, ErrProfileExists
		}
		return models.Profile{}, err
	}
	return s.GetProfile(profile.ID)
}

// EnsureProfile creates a profile for the user if one does not exist yet. A
// duplicate is success. Callers log and continue on any other failure; a user
// account is never blocked on its profile.
func (s *ProfileService) EnsureProfile(userID, fullName string) error {
	_, err := s.CreateProfile(models.Profile{ID: userID, FullName: fullName})
	if err == ErrProfileExists {
		return nil
	}
	return err
}

// GetProfile retrieves a single profile by user ID.
func (s *ProfileService) GetProfile(id string) (models.Profile, error) {
	var p models.Profile
	var avatar sql.NullString
	row := s.db.QueryRow("SELECT id, full_name, role, avatar_url, created_at FROM profiles WHERE id = ?", id)
	err := row.Scan(&p.ID, &p.FullName, &p.Role, &avatar, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Profile{}, fmt.Errorf("profile for user %s not found", id)
		}
		return models.Profile{}, err
	}
	p.AvatarURL = avatar.String
	return p, nil
}
