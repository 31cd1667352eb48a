package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/game"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/lobby"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

func TestLobbyToMatchFlow(t *testing.T) {
	ts := newTestServer(t)
	host, _ := ts.user(t, "host")
	sock := newClient(host.ID)
	ts.gs.Hub.register(sock)

	created := ts.ok(t, host, "create_lobby", map[string]interface{}{"name": "friday"})
	view, ok := created.Data.(lobby.View)
	require.True(t, ok)
	room, _ := ts.gs.Hub.RoomOf(host.ID)
	assert.Equal(t, view.ID, room)

	ts.ok(t, host, "add_bot", map[string]interface{}{"difficulty": models.DifficultyEasy})
	ts.ok(t, host, "start_vote", nil)

	current, err := ts.gs.Lobbies.Get(view.ID)
	require.NoError(t, err)
	require.NotNil(t, current.Vote)
	ts.ok(t, host, "vote", map[string]interface{}{"boardId": current.Vote.Options[0]})

	matchID, ok := ts.gs.Engine.ActiveMatch(host.ID)
	require.True(t, ok, "everyone voted, so the match is running")
	room, _ = ts.gs.Hub.RoomOf(host.ID)
	assert.Equal(t, matchID, room)

	got := types(drain(sock))
	starting := indexOf(got, lobby.EventMatchStarting)
	started := indexOf(got, string(game.EventMatchStarted))
	require.GreaterOrEqual(t, starting, 0)
	require.Greater(t, started, starting, "the match announcement reaches the socket before match events")

	snap := ts.ok(t, host, "sync", nil)
	assert.IsType(t, game.MatchView{}, snap.Data)

	ts.ok(t, host, "roll", nil)
	again := ts.do(t, host, "roll", nil)
	assert.False(t, again.OK)
	assert.Equal(t, codePrecondition, again.Code)

	chat := ts.ok(t, host, "chat", map[string]interface{}{"text": "gg"})
	assert.Equal(t, "chat", chat.Intent)
	assert.Equal(t, codePrecondition, ts.do(t, host, "start_vote", nil).Code, "the lobby is playing")
}

func TestIntentErrorCodes(t *testing.T) {
	ts := newTestServer(t)
	u, _ := ts.user(t, "outsider")

	ack := ts.do(t, u, "teleport", nil)
	assert.Equal(t, codeBadRequest, ack.Code)
	assert.Equal(t, "teleport", ack.Intent)

	ack = ts.gs.HandleIntent(context.Background(), u, Intent{Type: "vote", ID: "7", Payload: json.RawMessage(`{"boardId":`)})
	assert.Equal(t, codeBadRequest, ack.Code)
	assert.Equal(t, "7", ack.ID)

	assert.Equal(t, codeNotFound, ts.do(t, u, "join_lobby", map[string]interface{}{"lobbyId": uuid.New()}).Code)
	assert.Equal(t, codeNotFound, ts.do(t, u, "join_lobby", map[string]interface{}{"code": "ZZZZZZ"}).Code)
	assert.Equal(t, codeNotFound, ts.do(t, u, "roll", nil).Code)
	assert.Equal(t, codeNotFound, ts.do(t, u, "ready", nil).Code)
	assert.Equal(t, codeBadRequest, ts.do(t, u, "submit_score", map[string]interface{}{}).Code)

	ts.ok(t, u, "create_lobby", nil)
	assert.Equal(t, codePrecondition, ts.do(t, u, "start_vote", nil).Code, "one player cannot start")
	assert.Equal(t, codePrecondition, ts.do(t, u, "create_lobby", nil).Code, "already in a lobby")
}

func TestJoinByCodeAndLeave(t *testing.T) {
	ts := newTestServer(t)
	host, _ := ts.user(t, "host")
	guest, _ := ts.user(t, "guest")

	view := ts.ok(t, host, "create_lobby", map[string]interface{}{"public": false}).Data.(lobby.View)
	assert.False(t, view.Public)
	joined := ts.ok(t, guest, "join_lobby", map[string]interface{}{"code": view.Code}).Data.(lobby.View)
	assert.Len(t, joined.Members, 2)

	ts.ok(t, guest, "ready", nil)
	ts.ok(t, guest, "chat", map[string]interface{}{"text": "hi"})
	assert.Equal(t, codePrecondition, ts.do(t, guest, "add_bot", nil).Code, "only the host adds bots")

	ts.ok(t, guest, "leave_lobby", nil)
	_, ok := ts.gs.Hub.RoomOf(guest.ID)
	assert.False(t, ok)
	after, err := ts.gs.Lobbies.Get(view.ID)
	require.NoError(t, err)
	assert.Len(t, after.Members, 1)
}

func TestLockedCharacter(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	u, _ := ts.user(t, "picky")
	ts.ok(t, u, "create_lobby", nil)

	ts.ok(t, u, "set_character", map[string]interface{}{"character": "jojo"})
	ack := ts.do(t, u, "set_character", map[string]interface{}{"character": "ruby"})
	assert.Equal(t, codePrecondition, ack.Code)
	assert.Equal(t, codeNotFound, ts.do(t, u, "set_character", map[string]interface{}{"character": "nobody"}).Code)

	require.NoError(t, ts.store.SetOwned(ctx, u.ID, "ruby", true))
	ts.ok(t, u, "set_character", map[string]interface{}{"character": "ruby"})
}

func TestDetachGivesUpLobbySeat(t *testing.T) {
	ts := newTestServer(t)
	host, _ := ts.user(t, "host")
	guest, _ := ts.user(t, "guest")
	view := ts.ok(t, host, "create_lobby", nil).Data.(lobby.View)
	ts.ok(t, guest, "join_lobby", map[string]interface{}{"lobbyId": view.ID})

	ts.gs.detach(guest)
	_, ok := ts.gs.Lobbies.FindByMember(guest.ID)
	assert.False(t, ok)

	sock := newClient(host.ID)
	ts.gs.Hub.register(sock)
	ts.gs.attach(host)
	evs := drain(sock)
	require.NotEmpty(t, evs)
	last := evs[len(evs)-1]
	assert.Equal(t, lobby.EventLobbyState, last.Type)
	assert.Equal(t, "sync", last.Payload["reason"])
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
