package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/auth"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/database"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

const authCookie = "auth_token"

// requestToken reads the session token from the cookie, a bearer header or the token query value.
func requestToken(r *http.Request) string {
	if c, err := r.Cookie(authCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// currentUser resolves the request's token to a stored account.
func (gs *GameServer) currentUser(r *http.Request) (*models.User, error) {
	token := requestToken(r)
	if token == "" {
		return nil, fmt.Errorf("missing %s", authCookie)
	}
	userID, err := auth.AuthenticateJWT(token)
	if err != nil {
		return nil, err
	}
	return gs.Store.GetUserByID(r.Context(), userID)
}

// EnsureUser returns the request's account. A request without a usable token gets a fresh guest
// account whose token is set as a cookie.
func (gs *GameServer) EnsureUser(w http.ResponseWriter, r *http.Request) (*models.User, error) {
	if u, err := gs.currentUser(r); err == nil {
		return u, nil
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Guest"
	}
	guest, err := database.CreateGuest(r.Context(), gs.Store, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create ephemeral user: %w", err)
	}
	token, err := auth.CreateJWT(guest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create ephemeral JWT: %w", err)
	}
	setAuthCookie(w, token)
	gs.log.WithField("user", guest.ID).Debug("guest account created")
	return guest, nil
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

// requireUser is EnsureUser without the guest fallback, for HTTP endpoints.
func (gs *GameServer) requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, err := gs.currentUser(r)
	if err != nil {
		http.Error(w, "invalid or missing token", http.StatusUnauthorized)
		return nil, false
	}
	return u, true
}
