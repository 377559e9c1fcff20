package http

import (
	"encoding/json"
	"net/http"

	"github.com/avetrov/DevConnect/internal/devserver/store"
	"github.com/avetrov/DevConnect/internal/middleware"
	"github.com/avetrov/DevConnect/internal/models"
	"github.com/go-chi/chi/v5"
)

// UserStore defines the user operations required by UsersHandler.
type UserStore interface {
	UserByID(id string) (models.User, error)
	UpdateProfile(id string, update models.ProfileUpdate) (models.User, error)
	Suggestions(selfID string) []models.User
}

// UsersHandler handles profile and suggestion endpoints.
type UsersHandler struct {
	Users UserStore
}

// Profile handles GET /users/profile for the authenticated user.
func (h *UsersHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	user, err := h.Users.UserByID(userID)
	if err != nil {
		writeFailure(w, http.StatusNotFound, "user not found")
		return
	}
	writeSuccess(w, http.StatusOK, user, "")
}

// UpdateProfile handles PATCH /users/profile. Invalid fields come back
// as one validation message each.
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var msgs []string
	if update.Age < 0 || update.Age > 120 {
		msgs = append(msgs, "age must be between 0 and 120")
	}
	if len(update.Skills) > 20 {
		msgs = append(msgs, "at most 20 skills are allowed")
	}
	if len(update.Bio) > 500 {
		msgs = append(msgs, "bio must be at most 500 characters")
	}
	if len(msgs) > 0 {
		writeFailure(w, http.StatusBadRequest, msgs...)
		return
	}

	user, err := h.Users.UpdateProfile(userID, update)
	if err != nil {
		writeFailure(w, http.StatusNotFound, "user not found")
		return
	}
	writeSuccess(w, http.StatusOK, user, "profile updated")
}

// GetByID handles GET /users/{id}.
func (h *UsersHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.UserByID(chi.URLParam(r, "id"))
	if err != nil {
		if err == store.ErrNotFound {
			writeFailure(w, http.StatusNotFound, "user not found")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeSuccess(w, http.StatusOK, user, "")
}

// Suggestions handles GET /users/suggestions: users the authenticated
// user could connect with.
func (h *UsersHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	users := h.Users.Suggestions(userID)
	if users == nil {
		users = []models.User{}
	}
	writeSuccess(w, http.StatusOK, users, "")
}
