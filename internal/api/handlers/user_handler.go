package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/arbordev/arbor/internal/hierarchy"
	"github.com/arbordev/arbor/internal/models"
	"github.com/arbordev/arbor/internal/services"
	"github.com/arbordev/arbor/internal/store"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// GetAll handles retrieving the flat user collection.
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// GetTree handles retrieving the nested user hierarchy.
func (h *UserHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.GetUserTree()
	if err != nil {
		if errors.Is(err, hierarchy.ErrCycleDetected) {
			// Data-integrity problem, not a client error. Log loudly, keep
			// the response generic.
			log.Error().Err(err).Msg("User hierarchy contains a cycle")
		} else {
			log.Error().Err(err).Msg("Failed to build user tree")
		}
		http.Error(w, "Failed to build user tree", http.StatusInternalServerError)
		return
	}
	if tree == nil {
		tree = []*models.User{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tree)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.GetUser(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", id).Msg("Failed to get user")
		http.Error(w, "Failed to get user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Update handles patching a user record.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var upd services.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdateUser(id, upd)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "User not found", http.StatusNotFound)
		case errors.Is(err, store.ErrDuplicateUsername):
			http.Error(w, "Username already exists", http.StatusConflict)
		case errors.Is(err, store.ErrInvalidParent):
			http.Error(w, "Parent user does not exist", http.StatusBadRequest)
		default:
			log.Error().Err(err).Str("user_id", id).Msg("Failed to update user")
			http.Error(w, "Failed to update user", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Delete handles the permanent deletion of a user account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteUser(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", id).Msg("Failed to delete user")
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
