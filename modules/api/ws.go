package api

import (
	"time"

	fws "github.com/fasthttp/websocket"
	"github.com/gofiber/contrib/websocket"

	"github.com/Emerick-P/QuackChat/modules/rooms"
)

const (
	// SelfChannel is the sentinel channel name resolved to the caller's
	// personal room.
	SelfChannel = "me"
	// CloseUnauthorized is the close code sent when the sentinel channel is
	// requested without a valid token.
	CloseUnauthorized = 4401
)

// HandleOverlayWS handles overlay websocket sessions (GET /overlay/ws).
// The channel comes from the query; the sentinel "me" requires a valid token
// and resolves to the caller's user:<id> room. Inbound frames are read only
// to detect disconnects, the socket is broadcast-only.
func (h *Handlers) HandleOverlayWS(c *websocket.Conn) {
	channel := c.Query("channel", DefaultChannel)
	if channel == SelfChannel {
		claims, err := h.auth.Manager().Validate(c.Query("token"))
		if err != nil {
			h.closeUnauthorized(c)
			return
		}
		channel = "user:" + claims.UserID
	}

	conn := rooms.NewWSConn(c)
	h.registry.Add(conn, channel)
	h.broadcaster.EnsureListener(channel)
	h.logger.Info("Overlay client connected", "channel", channel)

	defer func() {
		h.registry.Remove(conn, channel)
		_ = conn.Close()
		h.logger.Info("Overlay client disconnected", "channel", channel)
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Error("Overlay socket error", "channel", channel, "error", err)
			}
			return
		}
	}
}

// closeUnauthorized sends the 4401 close frame and drops the socket.
func (h *Handlers) closeUnauthorized(c *websocket.Conn) {
	msg := fws.FormatCloseMessage(CloseUnauthorized, "unauthorized")
	_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = c.Close()
}
