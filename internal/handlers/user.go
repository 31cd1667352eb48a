package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/database"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

const minPasswordLength = 8

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

func (req credentialsRequest) validate() error {
	if !strings.Contains(req.Email, "@") {
		return errors.New("invalid email")
	}
	if len(req.Password) < minPasswordLength {
		return errors.New("password too short")
	}
	return nil
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// CreateUserHandler registers a credentialed account.
func (gs *GameServer) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}

	user := models.User{
		Email:    req.Email,
		Password: req.Password,
		Username: strings.TrimSpace(req.Username),
	}
	if err := gs.Store.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			http.Error(w, "email already exists", http.StatusConflict)
			return
		}
		gs.log.Errorf("create user: %v", err)
		http.Error(w, "error creating user", http.StatusInternalServerError)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusCreated, user)
}

// LoginHandler exchanges email and password for a session token, also set as a cookie.
//
// Request payload:
//
//	{
//	  "email": "someone@example.com",
//	  "password": "password"
//	}
func (gs *GameServer) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	token, user, err := database.AuthenticateUser(r.Context(), gs.Store, req.Email, req.Password)
	if err != nil {
		gs.log.Debugf("failed to authenticate user: %v", err)
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	setAuthCookie(w, token)
	user.Password = ""
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// ClaimEphemeralHandler turns the caller's guest account into a credentialed one, keeping its
// id, profile and credits.
func (gs *GameServer) ClaimEphemeralHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := gs.requireUser(w, r)
	if !ok {
		return
	}
	if !u.IsEphemeral {
		http.Error(w, "user is not ephemeral", http.StatusBadRequest)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid claim payload", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u.Email = req.Email
	u.Password = req.Password
	if name := strings.TrimSpace(req.Username); name != "" {
		u.Username = name
	}
	u.IsEphemeral = false

	err := gs.Store.UpdateUserCredentials(r.Context(), u)
	switch {
	case errors.Is(err, database.ErrDuplicateEmail):
		http.Error(w, "email already exists", http.StatusConflict)
		return
	case err != nil:
		gs.log.Errorf("claim user %s: %v", u.ID, err)
		http.Error(w, "failed to finalize ephemeral user", http.StatusInternalServerError)
		return
	}
	u.Password = ""
	writeJSON(w, http.StatusOK, u)
}

type meResponse struct {
	User      *models.User   `json:"user"`
	Profile   models.Profile `json:"profile"`
	Inventory []string       `json:"inventory"`
}

// MeHandler returns the caller's account, lifetime counters and unlocked characters.
func (gs *GameServer) MeHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := gs.requireUser(w, r)
	if !ok {
		return
	}
	profile, err := gs.Store.GetProfile(r.Context(), u.ID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	inv, err := gs.Store.GetInventory(r.Context(), u.ID)
	if err != nil {
		http.Error(w, "failed to load inventory", http.StatusInternalServerError)
		return
	}
	u.Password = ""
	writeJSON(w, http.StatusOK, meResponse{User: u, Profile: profile, Inventory: inv})
}

// UnlockCharacterHandler spends account credits on a priced character.
func (gs *GameServer) UnlockCharacterHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := gs.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Character string `json:"character"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	err := gs.unlockCharacter(r, u, req.Character)
	switch {
	case err == nil:
	case errors.Is(err, catalog.ErrNotFound):
		http.Error(w, "unknown character", http.StatusNotFound)
		return
	case errors.Is(err, database.ErrInsufficientFunds):
		http.Error(w, "not enough credits", http.StatusPaymentRequired)
		return
	default:
		gs.log.Errorf("unlock %s for %s: %v", req.Character, u.ID, err)
		http.Error(w, "unlock failed", http.StatusInternalServerError)
		return
	}

	inv, _ := gs.Store.GetInventory(r.Context(), u.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"inventory": inv})
}

func (gs *GameServer) unlockCharacter(r *http.Request, u *models.User, characterID string) error {
	ch, err := gs.Catalog.Character(characterID)
	if err != nil {
		return err
	}
	owned, err := gs.Store.GetInventory(r.Context(), u.ID)
	if err != nil {
		return err
	}
	if ch.Price == 0 || slices.Contains(owned, ch.ID) {
		return nil
	}
	if err := gs.Store.DebitCurrency(r.Context(), u.ID, ch.Price); err != nil {
		return err
	}
	if err := gs.Store.SetOwned(r.Context(), u.ID, ch.ID, true); err != nil {
		// give the credits back; the unlock did not happen
		if refund := gs.Store.CreditCurrency(r.Context(), u.ID, ch.Price); refund != nil {
			gs.log.Errorf("refund %d to %s: %v", ch.Price, u.ID, refund)
		}
		return err
	}
	return nil
}

// CatalogHandler lists the static content clients render.
func (gs *GameServer) CatalogHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"boards":     gs.Catalog.VotableBoards(),
		"items":      gs.Catalog.Items(),
		"characters": gs.Catalog.Characters(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
