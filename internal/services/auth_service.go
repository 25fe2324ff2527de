package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcarreter/catalogo-be/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmailNotConfirmed rejects password sign-in until the account's
// confirmation link has been redeemed.
var ErrEmailNotConfirmed = fmt.Errorf("email not confirmed")

// AuthServiceProvider defines the interface for authentication services.
type AuthServiceProvider interface {
	Register(email, password, fullName string) (models.User, error)
	Authenticate(email, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
	IssueToken(email, purpose string) (models.LoginToken, error)
	RedeemToken(token string) (models.User, error)
	PurgeExpiredTokens() (int64, error)
}

// AuthService provides business logic for accounts and sign-in flows.
type AuthService struct {
	db         *sql.DB
	profileSvc ProfileServiceProvider
	tokenTTL   time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *sql.DB, profileSvc ProfileServiceProvider, tokenTTL time.Duration) *AuthService {
	return &AuthService{db: db, profileSvc: profileSvc, tokenTTL: tokenTTL}
}

// GetUserByID retrieves a single user by their ID.
func (s *AuthService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, email, confirmed, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Email, &user.Confirmed, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user with ID %s not found", id)
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email, including the password hash.
func (s *AuthService) GetUserByEmail(email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, email, password_hash, confirmed, created_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Confirmed, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user with email %s not found", email)
		}
		return models.User{}, err
	}
	return user, nil
}

// Register creates a new unconfirmed user, hashing their password. Profile
// creation is best effort: a failure there is logged but never fails the
// registration itself.
func (s *AuthService) Register(email, password, fullName string) (models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, email, password_hash, confirmed) VALUES(?, ?, ?, 0)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(user.ID, user.Email, user.PasswordHash)
	if err != nil {
		return models.User{}, err
	}

	if err := s.profileSvc.EnsureProfile(user.ID, fullName); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create profile during registration")
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials.
func (s *AuthService) Authenticate(email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return models.User{}, fmt.Errorf("authentication failed: user not found")
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return models.User{}, fmt.Errorf("authentication failed: invalid password")
	}

	if !user.Confirmed {
		return models.User{}, ErrEmailNotConfirmed
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// IssueToken creates a single-use login token for the user with the given
// email. Used both for sign-up confirmation and passwordless magic links.
func (s *AuthService) IssueToken(email, purpose string) (models.LoginToken, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return models.LoginToken{}, err
	}

	token := models.LoginToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}

	stmt, err := s.db.Prepare("INSERT INTO login_tokens(token, user_id, purpose, expires_at) VALUES(?, ?, ?, ?)")
	if err != nil {
		return models.LoginToken{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(token.Token, token.UserID, token.Purpose, token.ExpiresAt)
	if err != nil {
		return models.LoginToken{}, err
	}
	return token, nil
}

// RedeemToken validates a single-use token, consumes it, marks the user as
// confirmed and returns the user. Expired or unknown tokens fail.
func (s *AuthService) RedeemToken(token string) (models.User, error) {
	var lt models.LoginToken
	row := s.db.QueryRow("SELECT token, user_id, purpose, expires_at FROM login_tokens WHERE token = ?", token)
	err := row.Scan(&lt.Token, &lt.UserID, &lt.Purpose, &lt.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("invalid or already used token")
		}
		return models.User{}, err
	}

	if time.Now().After(lt.ExpiresAt) {
		// Consumed either way; an expired token is useless.
		s.db.Exec("DELETE FROM login_tokens WHERE token = ?", lt.Token)
		return models.User{}, fmt.Errorf("token expired")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM login_tokens WHERE token = ?", lt.Token); err != nil {
		return models.User{}, err
	}
	if _, err := tx.Exec("UPDATE users SET confirmed = 1 WHERE id = ?", lt.UserID); err != nil {
		return models.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}

	return s.GetUserByID(lt.UserID)
}

// PurgeExpiredTokens removes login tokens past their expiry. Returns the
// number of rows removed.
func (s *AuthService) PurgeExpiredTokens() (int64, error) {
	res, err := s.db.Exec("DELETE FROM login_tokens WHERE expires_at < ?", time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
