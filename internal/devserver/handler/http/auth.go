package http

import (
	"encoding/json"
	"net/http"

	"github.com/avetrov/DevConnect/internal/devserver/store"
	"github.com/avetrov/DevConnect/internal/devserver/token"
	"github.com/avetrov/DevConnect/internal/models"
)

// refreshCookie is the name of the HttpOnly cookie carrying the refresh
// token. The client never reads it; its cookie jar forwards it as-is.
const refreshCookie = "refreshToken"

// UserAuthenticator defines the user operations required by AuthHandler.
type UserAuthenticator interface {
	// Authenticate verifies email/password and returns the user.
	Authenticate(email, password string) (models.User, error)
}

// RefreshTokenStore persists refresh tokens between mint and exchange.
type RefreshTokenStore interface {
	// SaveRefreshToken records a refresh-token hash for the user.
	SaveRefreshToken(hash, userID string)
	// ConsumeRefreshToken removes and returns the user bound to the hash.
	ConsumeRefreshToken(hash string) (string, bool)
}

// TokenMinter mints access tokens.
type TokenMinter interface {
	NewAccessToken(userID string) (string, error)
}

// AuthHandler handles login, token refresh and logout.
type AuthHandler struct {
	Users   UserAuthenticator
	Refresh RefreshTokenStore
	Tokens  TokenMinter
}

// loginRequest is the JSON payload for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates email/password, mints an access token, and plants
// a rotated refresh token cookie. Missing fields come back as one
// validation message per field.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var msgs []string
	if req.Email == "" {
		msgs = append(msgs, "email is required")
	}
	if req.Password == "" {
		msgs = append(msgs, "password is required")
	}
	if len(msgs) > 0 {
		writeFailure(w, http.StatusBadRequest, msgs...)
		return
	}

	user, err := h.Users.Authenticate(req.Email, req.Password)
	if err != nil {
		if err == store.ErrInvalidCredentials {
			writeFailure(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "internal error")
		return
	}

	access, err := h.Tokens.NewAccessToken(user.ID)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	if err := h.issueRefreshCookie(w, user.ID); err != nil {
		writeFailure(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{
		"id":          user.ID,
		"username":    user.Username,
		"accessToken": access,
	}, "login successful")
}

// RefreshToken exchanges the refresh cookie for a new access token.
// The refresh token is single use: a successful exchange rotates it.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		writeFailure(w, http.StatusUnauthorized, "no refresh token")
		return
	}

	userID, ok := h.Refresh.ConsumeRefreshToken(token.HashToken(cookie.Value))
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "refresh token invalid or expired")
		return
	}

	access, err := h.Tokens.NewAccessToken(userID)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	if err := h.issueRefreshCookie(w, userID); err != nil {
		writeFailure(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"accessToken": access}, "")
}

// Logout invalidates the refresh token and clears its cookie. Always
// succeeds from the client's point of view.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookie); err == nil && cookie.Value != "" {
		h.Refresh.ConsumeRefreshToken(token.HashToken(cookie.Value))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeSuccess(w, http.StatusOK, nil, "logged out")
}

// issueRefreshCookie mints a fresh refresh token, stores its hash and
// sets the cookie.
func (h *AuthHandler) issueRefreshCookie(w http.ResponseWriter, userID string) error {
	refresh, err := token.NewRefreshToken()
	if err != nil {
		return err
	}
	h.Refresh.SaveRefreshToken(token.HashToken(refresh), userID)
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refresh,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
