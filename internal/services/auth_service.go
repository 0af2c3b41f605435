package services

import (
	"errors"

	"github.com/arbordev/arbor/internal/auth"
	"github.com/arbordev/arbor/internal/models"
	"github.com/arbordev/arbor/internal/password"
	"github.com/arbordev/arbor/internal/store"
)

// ErrInvalidCredentials is returned for unknown usernames and wrong
// passwords alike, so a caller cannot probe which of the two failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthServiceProvider defines the interface for authentication services.
type AuthServiceProvider interface {
	SignIn(username, plaintext string) (string, models.User, error)
	SignUp(username, plaintext string, parentUserID *string) (models.User, error)
	Logout(token string)
}

// AuthService coordinates the credential store, password hasher, and token
// issuer. It holds no state of its own.
type AuthService struct {
	users  *store.UserStore
	hasher *password.Hasher
	issuer *auth.Issuer
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *store.UserStore, hasher *password.Hasher, issuer *auth.Issuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, issuer: issuer}
}

// SignIn verifies the credentials and issues a session token for the user.
func (s *AuthService) SignIn(username, plaintext string) (string, models.User, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", models.User{}, ErrInvalidCredentials
		}
		return "", models.User{}, err
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, user.Username)
	if err != nil {
		return "", models.User{}, err
	}

	user.PasswordHash = ""
	return token, user, nil
}

// SignUp hashes the password and creates the user. Duplicate usernames and
// invalid parent references propagate unchanged from the store.
func (s *AuthService) SignUp(username, plaintext string, parentUserID *string) (models.User, error) {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return models.User{}, err
	}
	return s.users.Create(username, hash, parentUserID)
}

// Logout revokes the presented token. Revocation is idempotent, so logout
// never fails from the caller's point of view.
func (s *AuthService) Logout(token string) {
	s.issuer.Revoke(token)
}
