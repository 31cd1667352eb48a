// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/middleware"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

const (
	subprotocol  = "party"
	readLimit    = 16 << 10
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// WSHandler upgrades the player's channel. The user is resolved (or a guest created) before the
// upgrade so the token cookie can still be set on the handshake response.
func (gs *GameServer) WSHandler(w http.ResponseWriter, r *http.Request) {
	u, err := gs.EnsureUser(w, r)
	if err != nil {
		gs.log.Warnf("websocket auth failed: %v", err)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}
	u.Password = ""

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{subprotocol},
		OriginPatterns: []string{"*"}, // TODO: restrict to the web client's origin once it has a fixed host
	})
	if err != nil {
		gs.log.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != subprotocol {
		c.Close(BadSubprotocolError, "client must speak the party subprotocol")
		return
	}
	c.SetReadLimit(readLimit)

	middleware.LogWebSocketConnect(gs.log, r.RemoteAddr, r.URL.Path)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cl := newClient(u.ID)
	gs.Hub.register(cl)
	written := make(chan struct{})
	go func() {
		defer close(written)
		gs.writePump(ctx, c, cl)
	}()

	hello, _ := json.Marshal(models.Event{Type: "hello", Payload: map[string]interface{}{"user": u}})
	gs.Hub.deliver(cl, hello)
	gs.attach(u)

	err = gs.readPump(ctx, c, cl, u)

	if gs.Hub.unregister(cl) {
		gs.detach(u)
	}
	// the writer owns the close frame
	<-written
	middleware.LogWebSocketDisconnect(gs.log, r.RemoteAddr, r.URL.Path, err)
}

// readPump decodes intents until the socket closes or the client is replaced.
func (gs *GameServer) readPump(ctx context.Context, c *websocket.Conn, cl *client, u *models.User) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-cl.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		var in Intent
		if err := json.Unmarshal(msg, &in); err != nil {
			gs.sendAck(cl, Ack{Type: "ack", OK: false, Code: codeBadRequest, Error: "invalid JSON format"})
			continue
		}
		gs.sendAck(cl, gs.HandleIntent(ctx, u, in))
	}
}

func (gs *GameServer) sendAck(cl *client, ack Ack) {
	data, err := json.Marshal(ack)
	if err != nil {
		gs.log.Errorf("marshal ack for %s: %v", ack.Intent, err)
		return
	}
	gs.Hub.deliver(cl, data)
}

// writePump is the only writer of c.
func (gs *GameServer) writePump(ctx context.Context, c *websocket.Conn, cl *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.Close(websocket.StatusGoingAway, "write pump stopping")

	for {
		select {
		case <-ctx.Done():
			return
		case <-cl.done:
			c.Close(closeStatus(cl))
			return
		case data := <-cl.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				gs.log.Debugf("write to %s: %v", cl.userID, err)
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// closeStatus picks the close frame for a socket the hub has let go of.
func closeStatus(cl *client) (websocket.StatusCode, string) {
	switch {
	case cl.slow.Load():
		return SlowConsumerError, "too slow"
	case cl.replaced.Load():
		return ReplacedError, "replaced by a newer connection"
	}
	return websocket.StatusNormalClosure, ""
}
