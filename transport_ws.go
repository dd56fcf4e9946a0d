package gomcp

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// wsConn pairs a websocket connection with the mutex that serializes writes
// to it. gorilla/websocket allows at most one concurrent writer per
// connection.
type wsConn struct {
	id   string
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// WebSocketTransport serves the persistent transport: one goroutine per
// connection reads frames in arrival order, dispatches each through the
// shared Server, and writes at most one response per frame. Frames that are
// not JSON-RPC messages are dropped without closing the connection.
type WebSocketTransport struct {
	server   *Server
	logger   Logger
	upgrader websocket.Upgrader
	limit    rate.Limit
	burst    int

	mu    sync.Mutex
	conns map[string]*wsConn
}

// NewWebSocketTransport builds the persistent transport around a Server.
// With no allowed origins every origin is accepted; otherwise the Origin
// header must match one of them ("*" matches any).
func NewWebSocketTransport(server *Server, allowedOrigins []string) *WebSocketTransport {
	return &WebSocketTransport{
		server: server,
		logger: server.logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: makeOriginChecker(allowedOrigins),
		},
		conns: make(map[string]*wsConn),
	}
}

// SetRateLimit enables per-connection inbound rate limiting. Frames over the
// limit are delayed, never dropped, so every frame still gets its response.
func (t *WebSocketTransport) SetRateLimit(limit rate.Limit, burst int) {
	t.limit = limit
	t.burst = burst
}

func makeOriginChecker(allowedOrigins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowedOrigins) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, allowed := range allowedOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		return false
	}
}

// ServeHTTP upgrades the request and runs the connection's read loop until
// the peer disconnects or the connection is closed.
func (t *WebSocketTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.WithErr(err).Warn("websocket upgrade failed")
		return
	}

	c := &wsConn{id: uuid.New().String(), conn: conn}
	t.mu.Lock()
	t.conns[c.id] = c
	t.mu.Unlock()
	t.server.metrics.connOpened()
	t.logger.WithFields(map[string]interface{}{"conn": c.id}).Info("websocket connected")

	t.readLoop(r.Context(), c)
}

func (t *WebSocketTransport) readLoop(ctx context.Context, c *wsConn) {
	defer t.closeConn(c)

	var limiter *rate.Limiter
	if t.limit > 0 {
		limiter = rate.NewLimiter(t.limit, t.burst)
	}

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			t.logger.WithErr(err).WithFields(map[string]interface{}{
				"conn": c.id,
			}).Debug("websocket read ended")
			return
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		resp, err := t.server.HandleFrame(ctx, frame)
		if err != nil {
			t.server.metrics.frameDropped()
			t.logger.WithErr(err).WithFields(map[string]interface{}{
				"conn": c.id,
			}).Debug("dropping malformed frame")
			continue
		}
		if resp == nil {
			continue
		}

		if err := c.writeJSON(resp); err != nil {
			t.logger.WithErr(err).WithFields(map[string]interface{}{
				"conn": c.id,
			}).Warn("websocket write failed")
			return
		}
	}
}

func (t *WebSocketTransport) closeConn(c *wsConn) {
	t.mu.Lock()
	_, tracked := t.conns[c.id]
	delete(t.conns, c.id)
	t.mu.Unlock()
	if !tracked {
		return
	}

	c.conn.Close()
	t.server.metrics.connClosed()
	t.logger.WithFields(map[string]interface{}{"conn": c.id}).Info("websocket disconnected")
}

// CloseAll closes every tracked connection. Read loops notice the closed
// sockets and finish on their own.
func (t *WebSocketTransport) CloseAll() {
	t.mu.Lock()
	conns := make([]*wsConn, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.conns = make(map[string]*wsConn)
	t.mu.Unlock()

	for _, c := range conns {
		c.conn.Close()
		t.server.metrics.connClosed()
	}
}
