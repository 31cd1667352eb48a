// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type createLobbyRequest struct {
	Name   string `json:"name"`
	Public *bool  `json:"public"`
}

// CreateLobbyHandler opens a lobby hosted by the caller. The caller then joins its room over /ws.
func (gs *GameServer) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := gs.requireUser(w, r)
	if !ok {
		return
	}

	var req createLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad lobby request payload", http.StatusBadRequest)
		return
	}
	public := true
	if req.Public != nil {
		public = *req.Public
	}

	view, err := gs.Lobbies.Create(u.ID, u.Username, req.Name, public)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListLobbiesHandler returns public lobbies still waiting for players.
func (gs *GameServer) ListLobbiesHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := gs.requireUser(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, gs.Lobbies.List())
}
