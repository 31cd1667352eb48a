// internal/handlers/intents.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/game"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/lobby"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

var (
	errUnknownIntent = errors.New("unknown intent")
	errNoLobby       = errors.New("not in a lobby")
	errNoMatch       = errors.New("not in a running match")
	errLocked        = errors.New("character is locked")
)

// Intent is one inbound player message. ID is echoed in the ack so clients can match replies.
type Intent struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Ack answers every intent.
type Ack struct {
	Type   string      `json:"type"`
	ID     string      `json:"id,omitempty"`
	Intent string      `json:"intent"`
	OK     bool        `json:"ok"`
	Code   string      `json:"code,omitempty"`
	Error  string      `json:"error,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

type intentFunc func(gs *GameServer, ctx context.Context, u *models.User, raw json.RawMessage) (interface{}, error)

var intents = map[string]intentFunc{
	// lobby
	"list_lobbies":    listLobbies,
	"create_lobby":    createLobby,
	"join_lobby":      joinLobby,
	"leave_lobby":     leaveLobby,
	"ready":           setReady,
	"set_character":   setCharacter,
	"update_settings": updateSettings,
	"add_bot":         addBot,
	"remove_bot":      removeBot,
	"update_bot":      updateBot,
	"start_vote":      startVote,
	"vote":            vote,
	"vote_tutorial":   voteTutorial,

	// either room
	"chat":  chat,
	"emote": emote,

	// match
	"roll":         roll,
	"move":         move,
	"use_item":     useItem,
	"skip_item":    skipItem,
	"buy_star":     buyStar,
	"decline_star": declineStar,
	"buy_item":     buyItem,
	"skip_shop":    skipShop,
	"submit_score": submitScore,
	"sync":         syncState,
}

// HandleIntent runs one intent for u and builds its ack. No error escapes to the connection.
func (gs *GameServer) HandleIntent(ctx context.Context, u *models.User, in Intent) Ack {
	start := time.Now()
	ack := Ack{Type: "ack", ID: in.ID, Intent: in.Type}

	fn, ok := intents[in.Type]
	var (
		data interface{}
		err  error
		kind = in.Type
	)
	if !ok {
		err = fmt.Errorf("%w: %q", errUnknownIntent, in.Type)
		kind = "unknown"
	} else {
		data, err = fn(gs, ctx, u, in.Payload)
	}
	gs.Metrics.Intent(kind, err, time.Since(start))

	if err != nil {
		ack.Code = errorCode(err)
		ack.Error = err.Error()
		log := gs.log.WithField("user", u.ID).WithField("intent", in.Type)
		if ack.Code == codeInternal {
			log.Errorf("intent failed: %v", err)
		} else {
			log.Debugf("intent rejected: %v", err)
		}
		return ack
	}
	ack.OK = true
	ack.Data = data
	return ack
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return v, nil
}

func (gs *GameServer) lobbyOf(u *models.User) (uuid.UUID, error) {
	id, ok := gs.Lobbies.FindByMember(u.ID)
	if !ok {
		return uuid.Nil, errNoLobby
	}
	return id, nil
}

func (gs *GameServer) matchOf(u *models.User) (uuid.UUID, error) {
	id, ok := gs.Engine.ActiveMatch(u.ID)
	if !ok {
		return uuid.Nil, errNoMatch
	}
	return id, nil
}

// attach puts a freshly connected user back where they belong and sends them the current state.
func (gs *GameServer) attach(u *models.User) {
	if matchID, ok := gs.Engine.ActiveMatch(u.ID); ok {
		gs.Hub.Join(u.ID, matchID)
		if err := gs.Engine.SetConnected(matchID, u.ID, true); err != nil {
			gs.log.WithField("match", matchID).Debugf("reconnect %s: %v", u.ID, err)
		}
		return
	}
	if lobbyID, ok := gs.Lobbies.FindByMember(u.ID); ok {
		gs.Hub.Join(u.ID, lobbyID)
		if view, err := gs.Lobbies.Get(lobbyID); err == nil {
			gs.Hub.SendTo(u.ID, models.Event{
				Type:    lobby.EventLobbyState,
				Room:    lobbyID,
				Payload: map[string]interface{}{"reason": "sync", "lobby": view},
			})
		}
	}
}

// detach runs when the user's last socket closes. Match seats are kept for a reconnect and played
// by a bot meanwhile; lobby seats are given up.
func (gs *GameServer) detach(u *models.User) {
	if matchID, ok := gs.Engine.ActiveMatch(u.ID); ok {
		if err := gs.Engine.SetConnected(matchID, u.ID, false); err != nil {
			gs.log.WithField("match", matchID).Debugf("disconnect %s: %v", u.ID, err)
		}
		return
	}
	if lobbyID, ok := gs.Lobbies.FindByMember(u.ID); ok {
		if err := gs.Lobbies.Leave(lobbyID, u.ID); err != nil {
			gs.log.WithField("lobby", lobbyID).Debugf("leave on disconnect: %v", err)
		}
	}
	gs.Hub.Leave(u.ID)
}

func listLobbies(gs *GameServer, _ context.Context, _ *models.User, _ json.RawMessage) (interface{}, error) {
	return gs.Lobbies.List(), nil
}

func createLobby(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[createLobbyRequest](raw)
	if err != nil {
		return nil, err
	}
	public := req.Public == nil || *req.Public
	view, err := gs.Lobbies.Create(u.ID, u.Username, req.Name, public)
	if err != nil {
		return nil, err
	}
	gs.Hub.Join(u.ID, view.ID)
	return view, nil
}

func joinLobby(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[struct {
		LobbyID uuid.UUID `json:"lobbyId"`
		Code    string    `json:"code"`
	}](raw)
	if err != nil {
		return nil, err
	}
	var view lobby.View
	if req.Code != "" {
		view, err = gs.Lobbies.JoinByCode(req.Code, u.ID, u.Username)
	} else {
		view, err = gs.Lobbies.Join(req.LobbyID, u.ID, u.Username)
	}
	if err != nil {
		return nil, err
	}
	gs.Hub.Join(u.ID, view.ID)
	return view, nil
}

func leaveLobby(gs *GameServer, _ context.Context, u *models.User, _ json.RawMessage) (interface{}, error) {
	id, err := gs.lobbyOf(u)
	if err != nil {
		return nil, err
	}
	if err := gs.Lobbies.Leave(id, u.ID); err != nil {
		return nil, err
	}
	gs.Hub.Leave(u.ID)
	return nil, nil
}

func setReady(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[struct {
		Ready *bool `json:"ready"`
	}](raw)
	if err != nil {
		return nil, err
	}
	id, err := gs.lobbyOf(u)
	if err != nil {
		return nil, err
	}
	ready := req.Ready == nil || *req.Ready
	return nil, gs.Lobbies.SetReady(id, u.ID, ready)
}

func setCharacter(gs *GameServer, ctx context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[struct {
		Character string `json:"character"`
	}](raw)
	if err != nil {
		return nil, err
	}
	id, err := gs.lobbyOf(u)
	if err != nil {
		return nil, err
	}
	ch, err := gs.Catalog.Character(req.Character)
	if err != nil {
		return nil, err
	}
	if ch.Price > 0 {
		owned, err := gs.Store.GetInventory(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(owned, ch.ID) {
			return nil, errLocked
		}
	}
	return nil, gs.Lobbies.SetCharacter(id, u.ID, ch.ID)
}

func updateSettings(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	patch, err := decode[models.SettingsPatch](raw)
	if err != nil {
		return nil, err
	}
	id, err := gs.lobbyOf(u)
	if err != nil {
		return nil, err
	}
	return gs.Lobbies.UpdateSettings(id, u.ID, patch)
}

type botRequest struct {
	BotID      uuid.UUID         `json:"botId"`
	Difficulty models.Difficulty `json:"difficulty"`
}

func addBot(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[botRequest](raw)
	if err != nil {
		return nil, err
	}
	id, err := gs.lobbyOf(u)
	if err != nil {
		return nil, err
	}
	return gs.Lobbies.AddBot(id, u.ID, req.Difficulty)
}

func removeBot(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[botRequest](raw)
	if err != nil {
		return nil, err
	}
	id, err := gs.lobbyOf(u)
	if err != nil {
		return nil, err
	}
	return nil, gs.Lobbies.RemoveBot(id, u.ID, req.BotID)
}

func updateBot(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[botRequest](raw)
	if err != nil {
		return nil, err
	}
	id, err := gs.lobbyOf(u)
	if err != nil {
		return nil, err
	}
	return nil, gs.Lobbies.UpdateBot(id, u.ID, req.BotID, req.Difficulty)
}

func startVote(gs *GameServer, _ context.Context, u *models.User, _ json.RawMessage) (interface{}, error) {
	id, err := gs.lobbyOf(u)
	if err != nil {
		return nil, err
	}
	return nil, gs.Lobbies.Start(id, u.ID)
}

func vote(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[struct {
		BoardID string `json:"boardId"`
	}](raw)
	if err != nil {
		return nil, err
	}
	id, err := gs.lobbyOf(u)
	if err != nil {
		return nil, err
	}
	return nil, gs.Lobbies.Vote(id, u.ID, req.BoardID)
}

func voteTutorial(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[struct {
		Show bool `json:"show"`
	}](raw)
	if err != nil {
		return nil, err
	}
	id, err := gs.lobbyOf(u)
	if err != nil {
		return nil, err
	}
	return nil, gs.Lobbies.VoteTutorial(id, u.ID, req.Show)
}

type textRequest struct {
	Text  string `json:"text"`
	Emote string `json:"emote"`
}

// chat goes to the match when the user is playing, otherwise to their lobby.
func chat(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[textRequest](raw)
	if err != nil {
		return nil, err
	}
	if matchID, err := gs.matchOf(u); err == nil {
		return nil, gs.Engine.Chat(matchID, u.ID, req.Text)
	}
	id, err := gs.lobbyOf(u)
	if err != nil {
		return nil, err
	}
	return nil, gs.Lobbies.Chat(id, u.ID, req.Text)
}

func emote(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[textRequest](raw)
	if err != nil {
		return nil, err
	}
	matchID, err := gs.matchOf(u)
	if err != nil {
		return nil, err
	}
	return nil, gs.Engine.Emote(matchID, u.ID, req.Emote)
}

// matchIntent adapts an engine operation that needs nothing but the match and the player.
func matchIntent(op func(e *game.Engine, matchID, playerID uuid.UUID) error) intentFunc {
	return func(gs *GameServer, _ context.Context, u *models.User, _ json.RawMessage) (interface{}, error) {
		matchID, err := gs.matchOf(u)
		if err != nil {
			return nil, err
		}
		return nil, op(gs.Engine, matchID, u.ID)
	}
}

var (
	roll        = matchIntent((*game.Engine).Roll)
	skipItem    = matchIntent((*game.Engine).SkipItem)
	buyStar     = matchIntent((*game.Engine).BuyStar)
	declineStar = matchIntent((*game.Engine).DeclineStar)
	skipShop    = matchIntent((*game.Engine).SkipShop)
)

func move(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[struct {
		Target string `json:"target"`
	}](raw)
	if err != nil {
		return nil, err
	}
	matchID, err := gs.matchOf(u)
	if err != nil {
		return nil, err
	}
	return nil, gs.Engine.Move(matchID, u.ID, req.Target)
}

func useItem(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[struct {
		Index     int       `json:"index"`
		DiceValue int       `json:"diceValue"`
		Target    uuid.UUID `json:"target"`
	}](raw)
	if err != nil {
		return nil, err
	}
	matchID, err := gs.matchOf(u)
	if err != nil {
		return nil, err
	}
	return nil, gs.Engine.UseItem(matchID, u.ID, req.Index, game.ItemOptions{DiceValue: req.DiceValue, Target: req.Target})
}

func buyItem(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[struct {
		ItemID string `json:"itemId"`
	}](raw)
	if err != nil {
		return nil, err
	}
	matchID, err := gs.matchOf(u)
	if err != nil {
		return nil, err
	}
	return nil, gs.Engine.BuyItem(matchID, u.ID, req.ItemID)
}

func submitScore(gs *GameServer, _ context.Context, u *models.User, raw json.RawMessage) (interface{}, error) {
	req, err := decode[struct {
		Score *float64 `json:"score"`
	}](raw)
	if err != nil {
		return nil, err
	}
	if req.Score == nil {
		return nil, fmt.Errorf("%w: score is required", errBadPayload)
	}
	matchID, err := gs.matchOf(u)
	if err != nil {
		return nil, err
	}
	return nil, gs.Engine.SubmitScore(matchID, u.ID, *req.Score)
}

func syncState(gs *GameServer, _ context.Context, u *models.User, _ json.RawMessage) (interface{}, error) {
	matchID, err := gs.matchOf(u)
	if err != nil {
		return nil, err
	}
	return gs.Engine.Snapshot(matchID, u.ID)
}
