package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"refurbstock/internal/logger"
	"refurbstock/internal/permission"
	"refurbstock/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer and the session token
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the envelope sent to every client.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Relay carries encoded events between instances.
type Relay interface {
	Publish(ctx context.Context, payload []byte) error
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	relay      Relay
	log        *logger.Logger
}

// NewHub initializes a new WS Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log.With("component", "Hub"),
	}
}

// SetRelay routes published events through r. Events then reach local clients via the relay subscriber.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.relay = r
}

// Run starts the core dispatch loop for WebSocket events until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("WebSocket client connected", "user_id", client.UserID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.Debug("WebSocket client disconnected", "user_id", client.UserID)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount reports the connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish encodes and fans out an event. It never blocks the caller on slow clients.
func (h *Hub) Publish(event string, data interface{}) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		h.log.Warn("Failed to encode event", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	relay := h.relay
	h.mu.Unlock()

	if relay != nil {
		err := relay.Publish(context.Background(), payload)
		if err == nil {
			return
		}
		h.log.Warn("Relay publish failed, delivering locally", "event", event, "error", err)
	}
	h.localBroadcast(payload)
}

func (h *Hub) localBroadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn("Broadcast queue full, dropping event")
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()
	for {
		// Client messages are ignored; reading detects disconnects
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Debug("WebSocket read error", "user_id", c.UserID, "error", err)
			}
			break
		}
	}
}

// ServeWs authenticates the token query param and upgrades the connection.
// Events carry product data, so the caller needs product.list.
func ServeWs(hub *Hub, auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := auth.ResolveSession(c.Request.Context(), c.Query("token"))
		if err != nil {
			hub.log.Debug("WebSocket connection rejected", "error", err)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if !id.Allows(permission.Product, permission.List) {
			hub.log.Debug("WebSocket connection rejected: insufficient permissions", "user_id", id.UserID)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Warn("WebSocket upgrade failed", "error", err)
			return
		}
		client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), UserID: id.UserID.String()}
		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
