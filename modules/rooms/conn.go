package rooms

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// WSConn adapts a Fiber websocket connection to the registry's Conn
// interface. Writes are serialized because broadcasts and listener
// re-injection can race on the same socket.
type WSConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSConn wraps a websocket connection.
func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

// WriteText sends data as a single text frame.
func (w *WSConn) WriteText(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying socket.
func (w *WSConn) Close() error {
	return w.conn.Close()
}
