package broadcast

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// writeWait bounds a single frame write to a client.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent before it is
	// considered dead; pings go out at pingPeriod.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-client outbound queue. A client that falls
	// this far behind is dropped rather than blocking the hub.
	sendBuffer = 64
)

// Hub fans invalidation events out to connected WebSocket clients
// (admin dashboards and storefront tabs that refetch on change).
// Clients register through ServeHTTP; Run owns the client set.
type Hub struct {
	register   chan *client
	unregister chan *client
	events     chan Event
	done       chan struct{} // closed when Run exits
	logger     zerolog.Logger
	upgrader   websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a Hub. Call Run before serving connections.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
		logger:     log.With().Str("component", "broadcast-hub").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The gateway fronts trusted origins; tighten per deployment.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Notify queues an event for broadcast. It never blocks: when the hub's
// queue is full the event is dropped and logged, since subscribers only
// use events as a refetch hint and the cache purge already happened.
func (h *Hub) Notify(ctx context.Context, event Event) {
	select {
	case h.events <- event:
	default:
		h.logger.Warn().Str("type", event.Type).Msg("Broadcast queue full, dropping event")
	}
}

// Run owns the client set and dispatches events until ctx is canceled,
// then closes every client. Run it once, in its own goroutine.
func (h *Hub) Run(ctx context.Context) error {
	clients := make(map[*client]struct{})

	defer func() {
		close(h.done)
		for c := range clients {
			close(c.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Int("clients", len(clients)).Msg("Broadcast hub shutting down")
			return ctx.Err()

		case c := <-h.register:
			clients[c] = struct{}{}
			h.logger.Debug().Int("clients", len(clients)).Msg("Subscriber connected")

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
			h.logger.Debug().Int("clients", len(clients)).Msg("Subscriber disconnected")

		case event := <-h.events:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error().Err(err).Str("type", event.Type).Msg("Failed to encode event")
				continue
			}
			for c := range clients {
				select {
				case c.send <- payload:
				default:
					// Slow client: drop it rather than stall the hub.
					delete(clients, c)
					close(c.send)
					h.logger.Warn().Msg("Dropping slow subscriber")
				}
			}
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket subscription.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		// The hub already shut down; nobody will service this client.
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// writePump drains the client's send queue and keeps the connection
// alive with pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// The hub closed this client.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames (subscribers only listen) and
// unregisters the client when the connection drops.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Msg("Subscriber read error")
			}
			return
		}
	}
}
