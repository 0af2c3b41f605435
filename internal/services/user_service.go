package services

import (
	"github.com/arbordev/arbor/internal/hierarchy"
	"github.com/arbordev/arbor/internal/models"
	"github.com/arbordev/arbor/internal/password"
	"github.com/arbordev/arbor/internal/store"
)

// UserUpdate enumerates the fields a client may change; anything else in a
// request body is ignored rather than merged. Password is plaintext and is
// re-hashed here before anything reaches the store.
type UserUpdate struct {
	Username     *string `json:"username"`
	Password     *string `json:"password"`
	ParentUserID *string `json:"parentUserId"`
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUser(id string) (models.User, error)
	ListUsers() ([]models.User, error)
	UpdateUser(id string, upd UserUpdate) (models.User, error)
	DeleteUser(id string) error
	GetUserTree() ([]*models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	users  *store.UserStore
	hasher *password.Hasher
}

// NewUserService creates a new UserService.
func NewUserService(users *store.UserStore, hasher *password.Hasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// GetUser retrieves a single user by id.
func (s *UserService) GetUser(id string) (models.User, error) {
	return s.users.GetByID(id)
}

// ListUsers returns the flat user collection.
func (s *UserService) ListUsers() ([]models.User, error) {
	return s.users.ListAll()
}

// UpdateUser applies a patch to a user, hashing any new password first.
func (s *UserService) UpdateUser(id string, upd UserUpdate) (models.User, error) {
	patch := store.UserPatch{
		Username:     upd.Username,
		ParentUserID: upd.ParentUserID,
	}
	if upd.Password != nil {
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return models.User{}, err
		}
		patch.PasswordHash = &hash
	}
	return s.users.Update(id, patch)
}

// DeleteUser removes a user from the store.
func (s *UserService) DeleteUser(id string) error {
	return s.users.Delete(id)
}

// GetUserTree loads every user and materializes the parent-child forest.
func (s *UserService) GetUserTree() ([]*models.User, error) {
	users, err := s.users.ListAll()
	if err != nil {
		return nil, err
	}
	return hierarchy.BuildTree(users)
}
