package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, ctx context.Context, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{subprotocol}})
	require.NoError(t, err)
	return c
}

// readUntil returns the first frame whose "type" is typ.
func readUntil(t *testing.T, ctx context.Context, c *websocket.Conn, typ string) map[string]interface{} {
	t.Helper()
	for {
		_, data, err := c.Read(ctx)
		require.NoError(t, err)
		var frame map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &frame))
		if frame["type"] == typ {
			return frame
		}
	}
}

func TestWebSocketHelloAndAck(t *testing.T) {
	ts := newTestServer(t)
	u, token := ts.user(t, "socket")
	srv := httptest.NewServer(ts.gs.Routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := dial(t, ctx, srv, token)
	defer c.Close(websocket.StatusNormalClosure, "")

	hello := readUntil(t, ctx, c, "hello")
	user := hello["payload"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, u.ID.String(), user["id"])

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`{"type":"create_lobby","id":"1","payload":{"name":"ws"}}`)))
	ack := readUntil(t, ctx, c, "ack")
	assert.Equal(t, true, ack["ok"])
	assert.Equal(t, "1", ack["id"])

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`not json`)))
	ack = readUntil(t, ctx, c, "ack")
	assert.Equal(t, false, ack["ok"])
	assert.Equal(t, codeBadRequest, ack["code"])

	_, inLobby := ts.gs.Lobbies.FindByMember(u.ID)
	assert.True(t, inLobby)
}

func TestWebSocketNewerConnectionReplacesOlder(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.user(t, "twice")
	srv := httptest.NewServer(ts.gs.Routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	first := dial(t, ctx, srv, token)
	defer first.Close(websocket.StatusNormalClosure, "")
	readUntil(t, ctx, first, "hello")

	second := dial(t, ctx, srv, token)
	defer second.Close(websocket.StatusNormalClosure, "")
	readUntil(t, ctx, second, "hello")

	for {
		_, _, err := first.Read(ctx)
		if err != nil {
			assert.Equal(t, websocket.StatusCode(ReplacedError), websocket.CloseStatus(err))
			break
		}
	}
}

func TestWebSocketWithoutTokenGetsGuest(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.gs.Routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?name=Wanderer"
	c, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{subprotocol}})
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	found := false
	for _, ck := range resp.Cookies() {
		if ck.Name == authCookie && ck.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "the guest token is set on the handshake")

	hello := readUntil(t, ctx, c, "hello")
	user := hello["payload"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "Wanderer", user["username"])
	assert.Equal(t, true, user["is_ephemeral"])
}

func TestCloseStatusMatchesWhyTheSocketWasDropped(t *testing.T) {
	cl := newClient(uuid.New())
	code, _ := closeStatus(cl)
	assert.Equal(t, websocket.StatusNormalClosure, code, "an ordinary disconnect is a normal closure")

	cl.replaced.Store(true)
	code, reason := closeStatus(cl)
	assert.Equal(t, websocket.StatusCode(ReplacedError), code)
	assert.Contains(t, reason, "replaced")

	cl.slow.Store(true)
	code, _ = closeStatus(cl)
	assert.Equal(t, websocket.StatusCode(SlowConsumerError), code)
}
