package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/spacetime-relay/internal/api/request"
	"github.com/mcoot/spacetime-relay/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size
	maxMessageSize = 64 << 10

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// EventSink receives every decoded inbound event
type EventSink func(id model.PlayerID, env request.Envelope)

// Client is one websocket connection
type Client struct {
	conn   *websocket.Conn
	id     model.PlayerID
	logger *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// Ensure Client implements Conn
var _ Conn = (*Client)(nil)

func newClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Enqueue encodes msg and queues it for the write pump, dropping it if the
// buffer is full or the client has gone
func (c *Client) Enqueue(msg model.Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to encode message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close stops the write pump once everything queued has been written
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump decodes inbound events until the connection fails
func (c *Client) readPump(sink EventSink, metrics *Metrics) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	// The write pump answers a close frame once everything queued is flushed
	c.conn.SetCloseHandler(func(int, string) error { return nil })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}

		var env request.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			metrics.EventsDropped.Add(1)
			c.logger.Debug("malformed event dropped")
			continue
		}
		sink(c.id, env)
	}
}

// writePump writes queued messages and keepalive pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Client closed
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Endpoint upgrades HTTP requests to relay connections
type Endpoint struct {
	upgrader websocket.Upgrader
	registry *Registry
	sink     EventSink
	metrics  *Metrics
	logger   *slog.Logger
}

// NewEndpoint creates an Endpoint. An empty allowedOrigins accepts any origin.
func NewEndpoint(registry *Registry, sink EventSink, metrics *Metrics, allowedOrigins []string, logger *slog.Logger) *Endpoint {
	return &Endpoint{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		registry: registry,
		sink:     sink,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "ws")),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[strings.ToLower(origin)]
	}
}

// ServeHTTP handles one connection for its whole lifetime. Disconnect
// cleanup finishes before the outbound queue is closed.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(conn, e.logger)
	client.id = e.registry.Connect(client)
	client.logger = e.logger.With(slog.String("player_id", string(client.id)))
	connectedAt := time.Now()

	go client.writePump()
	e.registry.Send(client.id, model.NewMessage(model.EventConnected, model.ConnectedPayload{ID: client.id}))

	client.readPump(e.sink, e.metrics)

	e.registry.Disconnect(client.id)
	client.close()
	client.logger.Info("connection closed",
		slog.Duration("connection_duration", time.Since(connectedAt)))
}
