// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/database"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/game"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/lobby"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/metrics"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/middleware"
)

// GameServer is the transport in front of the lobby orchestrator and the match engine.
type GameServer struct {
	Engine  *game.Engine
	Lobbies *lobby.Orchestrator
	Store   database.Store
	Catalog *catalog.Catalog
	Hub     *Hub
	Metrics *metrics.Metrics

	log *logrus.Logger
}

// NewGameServer wires the pieces together. hub must be the Broadcaster the engine was built with,
// and hub.LobbyBroadcaster() the one the orchestrator was built with.
func NewGameServer(eng *game.Engine, lobbies *lobby.Orchestrator, store database.Store, cat *catalog.Catalog, hub *Hub, m *metrics.Metrics, log *logrus.Logger) *GameServer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GameServer{
		Engine:  eng,
		Lobbies: lobbies,
		Store:   store,
		Catalog: cat,
		Hub:     hub,
		Metrics: m,
		log:     log,
	}
}

// Routes returns the HTTP surface with request logging applied.
func (gs *GameServer) Routes() http.Handler {
	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("POST /user/create", gs.CreateUserHandler)
	mux.HandleFunc("POST /user/login", gs.LoginHandler)
	mux.HandleFunc("POST /user/claim", gs.ClaimEphemeralHandler)
	mux.HandleFunc("GET /user/me", gs.MeHandler)
	mux.HandleFunc("POST /user/unlock", gs.UnlockCharacterHandler)

	// lobby endpoints
	mux.HandleFunc("POST /lobby/create", gs.CreateLobbyHandler)
	mux.HandleFunc("GET /lobby/list", gs.ListLobbiesHandler)

	mux.HandleFunc("GET /catalog", gs.CatalogHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// player websocket
	mux.HandleFunc("GET /ws", gs.WSHandler)

	return middleware.LogMiddleware(gs.log)(mux)
}
